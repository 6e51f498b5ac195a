// Package untrusted implements the untrusted-peer handler (C4): the
// message listeners attached to every Bitcoin-wire connection that did
// not come from a trusted validator — ordinary P2P peers, and peers that
// connected on the relay-protocol port (which are also untrusted from a
// consensus standpoint; only their relay hints are treated specially).
package untrusted

import (
	"strings"

	"github.com/btcsuite/btcd/peer"
	"github.com/btcsuite/btcd/wire"
	log "github.com/koinos/koinos-log-golang"

	"github.com/mattcorallo/relaynode/internal/headerstore"
	"github.com/mattcorallo/relaynode/internal/invitem"
	"github.com/mattcorallo/relaynode/internal/netpeer"
	"github.com/mattcorallo/relaynode/internal/objpool"
	"github.com/mattcorallo/relaynode/internal/peergroup"
)

// Deps collects the handler's dependencies: the two timed object pools,
// the header-chain store, the peer group blocks/txs fan out to, and the
// hooks the dispatcher uses for relay logging and wider block fan-out.
type Deps struct {
	Blocks       *objpool.Pool[invitem.Block]
	Transactions *objpool.Pool[invitem.Transaction]
	Headers      headerstore.Store
	Peers        *peergroup.Group

	// LogBlockRelay records a relayed block in the structured relay log.
	LogBlockRelay func(item invitem.Item, source *peer.Peer, isRelayPeerSource bool)

	// ExtraRelayBlock is invoked after a newly seen block has been
	// relayed to this handler's own peer group, so the dispatcher can
	// fan it out further: to any other untrusted peer group listening
	// on a different port, and to any outbound relay-peer clients (C6).
	ExtraRelayBlock func(block invitem.Block, source *peer.Peer)
}

// Handlers returns the peer.MessageListeners to attach to every
// untrusted, relay-protocol-tagged, and plain Bitcoin-wire listener this
// node accepts connections on (§4.7).
func Handlers(deps Deps) peer.MessageListeners {
	return peer.MessageListeners{
		OnInv:     func(p *peer.Peer, msg *wire.MsgInv) { onInv(deps, p, msg) },
		OnBlock:   func(p *peer.Peer, msg *wire.MsgBlock, buf []byte) { onBlock(deps, p, msg) },
		OnTx:      func(p *peer.Peer, msg *wire.MsgTx) { onTx(deps, p, msg) },
		OnGetData: func(p *peer.Peer, msg *wire.MsgGetData) { onGetData(deps, p, msg) },
	}
}

func onInv(deps Deps, p *peer.Peer, msg *wire.MsgInv) {
	getData := wire.NewMsgGetData()
	for _, iv := range msg.InvList {
		item, ok := invitem.FromInvVect(iv)
		if !ok {
			continue
		}
		deps.Peers.Learn(p, item)

		if shouldRequest(deps, item) {
			if err := getData.AddInvVect(iv); err != nil {
				log.Warnf("untrusted: could not queue getdata for %s: %v", item.Hash, err)
				break
			}
		}
	}
	if len(getData.InvList) > 0 {
		p.QueueMessage(getData, nil)
	}
}

func shouldRequest(deps Deps, item invitem.Item) bool {
	if item.Kind == invitem.KindBlock {
		return deps.Blocks.ShouldRequest(item)
	}
	return deps.Transactions.ShouldRequest(item)
}

func onBlock(deps Deps, p *peer.Peer, msg *wire.MsgBlock) {
	block := invitem.Block{Msg: msg}
	item := block.InvItem()
	deps.Peers.Learn(p, item)

	// Provide unconditionally, even if item is already relayed: the
	// pool's trusted-group push must never wait on this node's own
	// validation of an object it only just received (§4.3, P6).
	deps.Blocks.Provide(block)

	if deps.Blocks.AlreadyRelayed(item) {
		return
	}

	if !deps.Headers.HasBlock(item.Hash) {
		header := msg.Header
		if err := deps.Headers.AddHeader(&header); err != nil {
			// Header-chain rejection from an untrusted P2P source is
			// silent: no fan-out, no peer disconnect, and no
			// trusted-peer resync (§7) — that response is reserved for
			// a rejection coming from a relay-peer source.
			return
		}
	}

	deps.Blocks.MarkRelayed(item)
	deps.Peers.Relay(block, func(dst *peer.Peer, obj invitem.Relayable) {
		sendInv(dst, obj.InvItem())
	})

	isRelaySource := isRelayProtocolPeer(p)
	if deps.LogBlockRelay != nil {
		deps.LogBlockRelay(item, p, isRelaySource)
	}
	if deps.ExtraRelayBlock != nil {
		deps.ExtraRelayBlock(block, p)
	}
}

func onTx(deps Deps, p *peer.Peer, msg *wire.MsgTx) {
	tx := invitem.Transaction{Msg: msg}
	item := tx.InvItem()
	deps.Peers.Learn(p, item)

	if len(msg.TxIn) == 0 || len(msg.TxOut) == 0 {
		// A structurally malformed transaction; swallowed rather than
		// disconnecting the peer over it (mirrors the one place the
		// original relay node tolerates a bad transaction without
		// penalizing the sender).
		return
	}

	// Provide unconditionally (P6): this pushes tx to the trusted
	// outbound group for verification regardless of relayed status. A
	// trusted peer's inbound acceptance handler (C5) is what eventually
	// calls back into RelayVerifiedTransaction once it comes back.
	deps.Transactions.Provide(tx)
}

func onGetData(deps Deps, p *peer.Peer, msg *wire.MsgGetData) {
	for _, iv := range msg.InvList {
		item, ok := invitem.FromInvVect(iv)
		if !ok {
			continue
		}
		switch item.Kind {
		case invitem.KindBlock:
			if obj, ok := deps.Blocks.Fetch(item); ok {
				p.QueueMessage(obj.WireMessage(), nil)
				deps.Peers.Learn(p, item)
			}
		case invitem.KindTransaction:
			if obj, ok := deps.Transactions.Fetch(item); ok {
				p.QueueMessage(obj.WireMessage(), nil)
				deps.Peers.Learn(p, item)
			}
		}
	}
}

func sendInv(p *peer.Peer, item invitem.Item) {
	inv := wire.NewMsgInv()
	_ = inv.AddInvVect(item.InvVect())
	p.QueueMessage(inv, nil)
}

// isRelayProtocolPeer reports whether p's own advertised subversion (its
// user agent) carries the relay-protocol marker (§4.4, §4.7). The marker
// this node puts in its own version message on the relay-protocol port
// has no effect on this check.
func isRelayProtocolPeer(p *peer.Peer) bool {
	return strings.Contains(p.UserAgent(), netpeer.RelayProtocolMarker)
}
