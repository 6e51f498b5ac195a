package options

// ListenerOptions controls the three Bitcoin-wire TCP listeners the
// dispatcher binds (C7).
type ListenerOptions struct {
	// BlocksOnlyPort is the port that relays blocks only to untrusted
	// peers, never transactions.
	BlocksOnlyPort int

	// BlocksAndTxPort is the port that relays both blocks and
	// transactions to untrusted peers.
	BlocksAndTxPort int

	// RelayProtocolPort is the port other relay nodes connect to using
	// the relay-protocol subversion marker.
	RelayProtocolPort int

	// BindAddress is the address every listener binds to.
	BindAddress string
}

// NewListenerOptions creates ListenerOptions with the relay node's
// standard port assignments.
func NewListenerOptions() *ListenerOptions {
	return &ListenerOptions{
		BlocksOnlyPort:    8334,
		BlocksAndTxPort:   8335,
		RelayProtocolPort: 8336,
		BindAddress:       "0.0.0.0",
	}
}
