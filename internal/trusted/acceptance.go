package trusted

import (
	"github.com/btcsuite/btcd/peer"
	"github.com/btcsuite/btcd/wire"
	log "github.com/koinos/koinos-log-golang"

	"github.com/mattcorallo/relaynode/internal/headerstore"
	"github.com/mattcorallo/relaynode/internal/invitem"
	"github.com/mattcorallo/relaynode/internal/objpool"
)

// AcceptanceDeps collects the dependencies the acceptance handler (C5)
// attached to a trusted peer's inbound socket needs.
type AcceptanceDeps struct {
	Blocks       *objpool.Pool[invitem.Block]
	Transactions *objpool.Pool[invitem.Transaction]
	Headers      headerstore.Store

	// OnBlockAccepted/OnTxAccepted are invoked once a block or
	// transaction arriving on the inbound socket is ready to be fanned
	// out to this node's own untrusted peer groups and relay-peer
	// clients (§4.5). Neither is fed back to any trusted connection:
	// the object either originated at a trusted peer already, or was
	// pushed there by objpool.Pool.Provide ahead of this handler ever
	// running.
	OnBlockAccepted func(block invitem.Block)
	OnTxAccepted    func(tx invitem.Transaction)
}

// Listeners returns the peer.MessageListeners for a trusted peer's
// inbound socket: acceptance events for objects this node itself
// provided to the trusted outbound group earlier, arriving back either
// as a bare inv (already held in the pool) or as a full body (§4.5 C5).
func Listeners(deps AcceptanceDeps) peer.MessageListeners {
	return peer.MessageListeners{
		OnInv:   func(p *peer.Peer, msg *wire.MsgInv) { onInv(deps, p, msg) },
		OnBlock: func(p *peer.Peer, msg *wire.MsgBlock, buf []byte) { onBlock(deps, p, msg) },
		OnTx:    func(p *peer.Peer, msg *wire.MsgTx) { onTx(deps, p, msg) },
	}
}

// onInv handles an already-known inv item echoed back by the trusted
// peer: the full object is fetched back out of the pool it was
// Provide()d into, rather than requested again over the wire.
func onInv(deps AcceptanceDeps, p *peer.Peer, msg *wire.MsgInv) {
	for _, iv := range msg.InvList {
		item, ok := invitem.FromInvVect(iv)
		if !ok {
			continue
		}
		switch item.Kind {
		case invitem.KindBlock:
			if obj, ok := deps.Blocks.Fetch(item); ok {
				acceptBlock(deps, obj)
			}
		case invitem.KindTransaction:
			if obj, ok := deps.Transactions.Fetch(item); ok {
				acceptTx(deps, obj)
			}
		}
	}
}

func onBlock(deps AcceptanceDeps, p *peer.Peer, msg *wire.MsgBlock) {
	acceptBlock(deps, invitem.Block{Msg: msg})
}

func onTx(deps AcceptanceDeps, p *peer.Peer, msg *wire.MsgTx) {
	acceptTx(deps, invitem.Transaction{Msg: msg})
}

func acceptBlock(deps AcceptanceDeps, block invitem.Block) {
	item := block.InvItem()
	if deps.Blocks.AlreadyRelayed(item) {
		return
	}
	deps.Blocks.Provide(block)

	if !deps.Headers.HasBlock(item.Hash) {
		header := block.Msg.Header
		if err := deps.Headers.AddHeader(&header); err != nil {
			// The trusted peer already validated this block; a local
			// header-chain rejection here is this node's own store
			// disagreeing, not evidence the trusted peer misbehaved, so
			// it only warns and never disconnects (§7).
			log.Warnf("trusted: header chain store rejected inbound block %s: %v", item.Hash, err)
			return
		}
	}

	deps.Blocks.MarkRelayed(item)
	log.Infof("trusted inv: accepted block %s", item.Hash)
	if deps.OnBlockAccepted != nil {
		deps.OnBlockAccepted(block)
	}
}

func acceptTx(deps AcceptanceDeps, tx invitem.Transaction) {
	item := tx.InvItem()
	if deps.Transactions.AlreadyRelayed(item) {
		return
	}
	deps.Transactions.Provide(tx)

	log.Infof("trusted inv: accepted tx %s", item.Hash)
	if deps.OnTxAccepted != nil {
		deps.OnTxAccepted(tx)
	}
}
