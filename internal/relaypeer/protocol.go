// Package relaypeer implements the outbound relay-peer client (C6): the
// opaque, compact side channel this node uses to forward blocks,
// transactions, and block headers to a sibling relay node, distinct from
// every other connection this node makes, which all speak plain Bitcoin
// wire protocol. It is realized over a libp2p stream transport with
// go-libp2p-gorpc request dispatch, since spec.md explicitly calls this
// channel's framing opaque and out of scope for the relay engine itself.
package relaypeer

// ServiceID is the gorpc protocol identifier relay-peer connections
// register under.
const ServiceID = "/relaynode/relaypeer/1.0.0"

// Ack is the empty reply every relaypeer RPC returns; the side channel
// is fire-and-forget from the relay engine's point of view (§4.6), and
// only the RPC's error return matters to the caller.
type Ack struct{}

// BlockArgs carries a gob-encoded Bitcoin block.
type BlockArgs struct {
	// Payload is the gob encoding of a wire.MsgBlock.
	Payload []byte
}

// HeaderArgs carries a gob-encoded Bitcoin block header.
type HeaderArgs struct {
	// Payload is the gob encoding of a wire.BlockHeader.
	Payload []byte
}

// TransactionArgs carries a gob-encoded Bitcoin transaction.
type TransactionArgs struct {
	// Payload is the gob encoding of a wire.MsgTx.
	Payload []byte
}

// StatsArgs carries one accumulated receive-statistics line to be
// appended to the next block-relay log entry for this connection
// (mirrors LogStatsRecv in the data model).
type StatsArgs struct {
	Line string
}
