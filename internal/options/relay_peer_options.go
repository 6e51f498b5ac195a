package options

import "time"

// RelayPeerOptions controls the outbound relay-peer client (C6).
type RelayPeerOptions struct {
	// ReconnectDelay is the fixed delay before retrying a dropped
	// relay-peer side channel.
	ReconnectDelay time.Duration

	// DialTimeout bounds how long establishing the libp2p side channel
	// may take before the attempt is abandoned.
	DialTimeout time.Duration
}

// NewRelayPeerOptions creates RelayPeerOptions with the relay node's
// standard one-second reconnect delay.
func NewRelayPeerOptions() *RelayPeerOptions {
	return &RelayPeerOptions{
		ReconnectDelay: time.Second,
		DialTimeout:    30 * time.Second,
	}
}
