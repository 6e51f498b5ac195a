// Package p2perrors declares the sentinel errors this relay node's
// components return, so callers can classify a failure with errors.Is
// without depending on string matching. Of these, only
// ErrUnknownTrustedPeer and ErrUnknownPeer are returned by any function in
// this module; the others are declared and never returned.
package p2perrors

import "errors"

var (
	// ErrHandshakeFailed is returned when a peer connection fails the
	// Bitcoin wire-protocol version/verack handshake.
	ErrHandshakeFailed = errors.New("peer handshake failed")

	// ErrDeserialization is returned when a peer sends a message this
	// node cannot parse under the wire format.
	ErrDeserialization = errors.New("error deserializing wire message")

	// ErrUnrequestedObject is returned when a peer sends a block or
	// transaction that was never requested via getdata.
	ErrUnrequestedObject = errors.New("received object that was not requested")

	// ErrTransactionRejected is returned when a trusted peer's
	// transaction-verification response rejects a transaction this node
	// forwarded to it.
	ErrTransactionRejected = errors.New("trusted peer rejected transaction")

	// ErrHeaderChainRejected is returned when the header-chain store
	// refuses a block header, forcing disconnection of all trusted
	// peers so the relay can re-synchronize from a consistent state.
	ErrHeaderChainRejected = errors.New("header chain store rejected block header")

	// ErrRelayPeerUnreachable is returned when a relay-peer client
	// cannot establish or re-establish its side-channel connection.
	ErrRelayPeerUnreachable = errors.New("relay peer unreachable")

	// ErrTrustedPeerDisconnected is returned when an operation is
	// attempted against a trusted peer connection that is not currently
	// fully up.
	ErrTrustedPeerDisconnected = errors.New("trusted peer connection is not up")

	// ErrUnknownTrustedPeer is returned by operator commands that
	// reference a trusted peer address not currently configured.
	ErrUnknownTrustedPeer = errors.New("no such trusted peer")

	// ErrUnknownPeer is returned by operator commands that reference an
	// outbound untrusted peer or relay-peer address not currently
	// tracked.
	ErrUnknownPeer = errors.New("no such peer")
)
