// Package invitem defines the inventory item identity shared by the
// peer-inventory tracker, the timed object pool, and the peer group.
package invitem

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Kind distinguishes a block inventory item from a transaction one.
type Kind uint8

const (
	// KindBlock identifies a block hash.
	KindBlock Kind = iota
	// KindTransaction identifies a transaction hash.
	KindTransaction
)

func (k Kind) String() string {
	switch k {
	case KindBlock:
		return "block"
	case KindTransaction:
		return "transaction"
	default:
		return "unknown"
	}
}

// Item is the comparable identity of a relayable object: its kind plus
// its hash. It is small and comparable so it can be used directly as a
// map key without any further hashing, the same role InventoryItem plays
// in the data model.
type Item struct {
	Kind Kind
	Hash chainhash.Hash
}

// InvVect returns the wire representation of this item for getdata/inv
// messages.
func (i Item) InvVect() *wire.InvVect {
	t := wire.InvTypeTx
	if i.Kind == KindBlock {
		t = wire.InvTypeBlock
	}
	return wire.NewInvVect(t, &i.Hash)
}

// FromInvVect converts a wire inventory vector into an Item. ok is false
// for inventory types this relay does not track (e.g. filtered block,
// witness variants).
func FromInvVect(iv *wire.InvVect) (item Item, ok bool) {
	switch iv.Type {
	case wire.InvTypeBlock:
		return Item{Kind: KindBlock, Hash: iv.Hash}, true
	case wire.InvTypeTx:
		return Item{Kind: KindTransaction, Hash: iv.Hash}, true
	default:
		return Item{}, false
	}
}

// Relayable is implemented by the two concrete payload wrappers this node
// relays: Block and Transaction. It lets the object pool and peer group
// operate generically over either payload type.
type Relayable interface {
	InvItem() Item
	WireMessage() wire.Message
}

// Block wraps a decoded block message for relaying.
type Block struct {
	Msg *wire.MsgBlock
}

// InvItem implements Relayable.
func (b Block) InvItem() Item {
	return Item{Kind: KindBlock, Hash: b.Msg.BlockHash()}
}

// WireMessage implements Relayable.
func (b Block) WireMessage() wire.Message { return b.Msg }

// Transaction wraps a decoded transaction message for relaying.
type Transaction struct {
	Msg *wire.MsgTx
}

// InvItem implements Relayable.
func (t Transaction) InvItem() Item {
	return Item{Kind: KindTransaction, Hash: t.Msg.TxHash()}
}

// WireMessage implements Relayable.
func (t Transaction) WireMessage() wire.Message { return t.Msg }
