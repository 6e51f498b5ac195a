// Package node implements the dispatcher (C7): it owns the three
// Bitcoin-wire listeners, wires the untrusted-peer handler, the trusted
// peer manager, the relay-peer clients, the object pools, and the
// structured relay log together, and drives the operator CLI and stats
// TUI (C11).
package node

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/peer"
	"github.com/btcsuite/btcd/wire"
	log "github.com/koinos/koinos-log-golang"

	"github.com/mattcorallo/relaynode/internal/asyncpool"
	"github.com/mattcorallo/relaynode/internal/headerstore"
	"github.com/mattcorallo/relaynode/internal/invitem"
	"github.com/mattcorallo/relaynode/internal/netpeer"
	"github.com/mattcorallo/relaynode/internal/objpool"
	"github.com/mattcorallo/relaynode/internal/options"
	"github.com/mattcorallo/relaynode/internal/outboundpeer"
	"github.com/mattcorallo/relaynode/internal/p2perrors"
	"github.com/mattcorallo/relaynode/internal/peergroup"
	"github.com/mattcorallo/relaynode/internal/relaylog"
	"github.com/mattcorallo/relaynode/internal/relaypeer"
	"github.com/mattcorallo/relaynode/internal/trusted"
	"github.com/mattcorallo/relaynode/internal/untrusted"
)

// Node is the relay node's top-level dispatcher.
type Node struct {
	listenerOpts options.ListenerOptions

	blocksOnlyPeers  *peergroup.Group
	blocksAndTxPeers *peergroup.Group

	blocks *objpool.Pool[invitem.Block]
	txs    *objpool.Pool[invitem.Transaction]

	headers  headerstore.Store
	trusted  *trusted.Manager
	outbound *outboundpeer.Manager
	log      *relaylog.Log
	workers  *asyncpool.Pool

	relayClientsMu sync.Mutex
	relayClients   map[string]*relaypeer.Client
}

// New constructs a Node from its component options. relayLog is the
// opened structured relay log (C8); headers is the external header-chain
// store (C9); trustedMgr is the already-constructed trusted-peer manager
// (C5).
func New(
	listenerOpts options.ListenerOptions,
	poolOpts options.PoolOptions,
	workerOpts options.WorkerOptions,
	headers headerstore.Store,
	trustedMgr *trusted.Manager,
	relayLog *relaylog.Log,
) *Node {
	n := &Node{
		listenerOpts:     listenerOpts,
		blocksOnlyPeers:  peergroup.New(),
		blocksAndTxPeers: peergroup.New(),
		headers:          headers,
		trusted:          trustedMgr,
		log:              relayLog,
		workers:          asyncpool.New(workerOpts.Workers, workerOpts.QueueDepth),
		relayClients:     make(map[string]*relaypeer.Client),
	}

	// provideObject pushes to the trusted outbound group unconditionally,
	// ahead of (and independent of) this node's own header/mempool
	// validation of the object (§4.3, P6).
	n.blocks = objpool.New[invitem.Block](poolOpts.BlockRelayedCapacity, poolOpts.ObjectTTL, poolOpts.SweepInterval, func(block invitem.Block) {
		trustedMgr.Broadcast(func(p *peer.Peer) { p.QueueMessage(block.Msg, nil) })
	})
	n.txs = objpool.New[invitem.Transaction](poolOpts.TransactionRelayedCapacity, poolOpts.ObjectTTL, poolOpts.SweepInterval, func(tx invitem.Transaction) {
		trustedMgr.Broadcast(func(p *peer.Peer) { p.QueueMessage(tx.Msg, nil) })
	})

	outboundListeners := untrusted.Handlers(n.untrustedDeps(n.blocksAndTxPeers))
	outboundCfg := netpeer.NewConfig(outboundListeners, n.newestBlock, false)
	outboundCfg.UserAgentComments = append(outboundCfg.UserAgentComments, netpeer.OutboundOperatorPeerComment)
	n.outbound = outboundpeer.NewManager(outboundCfg, *options.NewOutboundPeerOptions(), func(addr string, p *peer.Peer) {
		n.joinUntrustedGroups(p)
	})

	return n
}

// joinUntrustedGroups adds an operator-dialed outbound peer to both
// untrusted peer groups (the superset of what either listener port
// grants an inbound peer) and removes it from both once it disconnects.
func (n *Node) joinUntrustedGroups(p *peer.Peer) {
	n.blocksAndTxPeers.Add(p)
	n.blocksOnlyPeers.Add(p)
	go func() {
		p.WaitForDisconnect()
		n.blocksAndTxPeers.Remove(p)
		n.blocksOnlyPeers.Remove(p)
	}()
}

// AddOutboundPeer dials an untrusted outbound Bitcoin P2P peer (the "o"
// operator command, §6), reconnecting with a fixed delay until marked
// for removal.
func (n *Node) AddOutboundPeer(addr string) {
	n.outbound.Add(addr)
}

// RemoveOutboundPeer marks an outbound untrusted peer for removal after
// its next disconnect (the "o-" operator command, §6).
func (n *Node) RemoveOutboundPeer(addr string) error {
	return n.outbound.MarkForRemoval(addr)
}

// AddRelayClient registers an outbound relay-peer client (C6) that newly
// seen blocks are forwarded to in addition to this node's own untrusted
// peer groups.
func (n *Node) AddRelayClient(addr string, c *relaypeer.Client) {
	n.relayClientsMu.Lock()
	defer n.relayClientsMu.Unlock()
	n.relayClients[addr] = c
}

// RemoveRelayClient marks an outbound relay-peer client for removal
// after its next disconnect (the "r-" operator command, §6), rather than
// forcing an immediate teardown of an already-open side channel.
func (n *Node) RemoveRelayClient(addr string) error {
	n.relayClientsMu.Lock()
	c, ok := n.relayClients[addr]
	n.relayClientsMu.Unlock()
	if !ok {
		return p2perrors.ErrUnknownPeer
	}
	c.MarkForRemoval()
	return nil
}

// newestBlock adapts the header store's tip into the shape a btcd peer
// handshake wants. This relay never reports an actual tip hash — only
// the header-chain store in a full node would know that — so it reports
// the zero hash alongside the tracked height, which is sufficient for
// handshake purposes since nothing here validates that field.
func (n *Node) newestBlock() (*chainhash.Hash, int32, error) {
	return &chainhash.Hash{}, n.headers.Height(), nil
}

// ListenBlocksOnly runs the blocks-only listener (default port 8334).
// Accepted peers receive block relay only, never transactions.
func (n *Node) ListenBlocksOnly() error {
	deps := n.untrustedDeps(n.blocksOnlyPeers)
	listeners := untrusted.Handlers(deps)
	listeners.OnTx = nil // this port never relays transactions (§4.7)

	addr := fmt.Sprintf("%s:%d", n.listenerOpts.BindAddress, n.listenerOpts.BlocksOnlyPort)
	cfg := netpeer.NewConfig(listeners, n.newestBlock, false)
	return n.acceptLoop(addr, cfg, n.blocksOnlyPeers)
}

// ListenBlocksAndTx runs the blocks-and-transactions listener (default
// port 8335).
func (n *Node) ListenBlocksAndTx() error {
	deps := n.untrustedDeps(n.blocksAndTxPeers)
	listeners := untrusted.Handlers(deps)

	addr := fmt.Sprintf("%s:%d", n.listenerOpts.BindAddress, n.listenerOpts.BlocksAndTxPort)
	cfg := netpeer.NewConfig(listeners, n.newestBlock, false)
	return n.acceptLoop(addr, cfg, n.blocksAndTxPeers)
}

// ListenRelayProtocol runs the relay-protocol listener (default port
// 8336): plain Bitcoin wire, tagged with the relay-protocol subversion
// marker, fed into the same untrusted-peer handler as the other two
// listeners (§4.7).
func (n *Node) ListenRelayProtocol() error {
	deps := n.untrustedDeps(n.blocksAndTxPeers)
	listeners := untrusted.Handlers(deps)

	addr := fmt.Sprintf("%s:%d", n.listenerOpts.BindAddress, n.listenerOpts.RelayProtocolPort)
	cfg := netpeer.NewConfig(listeners, n.newestBlock, true)
	return n.acceptLoop(addr, cfg, n.blocksAndTxPeers)
}

// acceptLoop runs addr's accept loop, routing each accepted connection to
// either the trusted acceptance handler (C5), if its remote IP matches a
// configured trusted peer's inbound socket, or the ordinary untrusted
// handler (C4) built from untrustedCfg, otherwise (§4.4, §4.5).
func (n *Node) acceptLoop(addr string, untrustedCfg *peer.Config, group *peergroup.Group) error {
	trustedCfg := netpeer.NewConfig(trusted.Listeners(n.trustedAcceptanceDeps()), n.newestBlock, false)

	return netpeer.Listen(addr, func(conn net.Conn) {
		host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
		if err != nil {
			host = conn.RemoteAddr().String()
		}

		if c, ok := n.trusted.MatchInbound(host); ok {
			p := netpeer.Accept(trustedCfg, conn)
			c.AttachInbound(p)
			log.Infof("node: accepted trusted inbound peer %s on %s", p.Addr(), addr)
			go func() {
				p.WaitForDisconnect()
				c.OnDisconnect(false)
			}()
			return
		}

		p := netpeer.Accept(untrustedCfg, conn)
		group.Add(p)
		log.Infof("node: accepted peer %s on %s", p.Addr(), addr)
		go func() {
			p.WaitForDisconnect()
			group.Remove(p)
		}()
	})
}

func (n *Node) untrustedDeps(group *peergroup.Group) untrusted.Deps {
	return untrusted.Deps{
		Blocks:       n.blocks,
		Transactions: n.txs,
		Headers:      n.headers,
		Peers:        group,
		LogBlockRelay: func(item invitem.Item, source *peer.Peer, isRelaySource bool) {
			n.workers.Submit(func() {
				n.log.LogBlockRelay(item.Hash, relaylog.SourceDescription(source.Addr(), isRelaySource), nil)
			})
		},
		ExtraRelayBlock: func(block invitem.Block, source *peer.Peer) {
			n.fanOutBlock(block, group)
		},
	}
}

// trustedAcceptanceDeps builds the dependencies for the acceptance
// handler (C5) attached to every trusted peer's inbound socket.
func (n *Node) trustedAcceptanceDeps() trusted.AcceptanceDeps {
	return trusted.AcceptanceDeps{
		Blocks:       n.blocks,
		Transactions: n.txs,
		Headers:      n.headers,
		OnBlockAccepted: func(block invitem.Block) {
			n.fanOutBlock(block, nil)
		},
		OnTxAccepted: func(tx invitem.Transaction) {
			n.RelayVerifiedTransaction(tx)
		},
	}
}

// relayToUntrustedGroups relays block to every untrusted peer group
// except, if non-nil, the one it was first relayed within.
func (n *Node) relayToUntrustedGroups(block invitem.Block, except *peergroup.Group) {
	for _, g := range []*peergroup.Group{n.blocksOnlyPeers, n.blocksAndTxPeers} {
		if g == except {
			continue
		}
		g.Relay(block, func(dst *peer.Peer, obj invitem.Relayable) {
			inv := wire.NewMsgInv()
			_ = inv.AddInvVect(obj.InvItem().InvVect())
			dst.QueueMessage(inv, nil)
		})
	}
}

// relayToClients forwards block to every outbound relay-peer client (C6).
func (n *Node) relayToClients(block invitem.Block) {
	n.relayClientsMu.Lock()
	clients := make([]*relaypeer.Client, 0, len(n.relayClients))
	for _, c := range n.relayClients {
		clients = append(clients, c)
	}
	n.relayClientsMu.Unlock()

	for _, c := range clients {
		c := c
		n.workers.Submit(func() {
			if err := c.SendBlock(block.Msg); err != nil {
				log.Warnf("node: failed to forward block to relay peer: %v", err)
			}
		})
	}
}

// fanOutBlock relays block to every untrusted peer group besides the one
// it was first relayed within, and every outbound relay-peer client. It
// does not push to any trusted connection: objpool.Pool.Provide already
// did that, unconditionally, before this block was ever validated
// (§4.3, P6).
func (n *Node) fanOutBlock(block invitem.Block, originGroup *peergroup.Group) {
	n.relayToUntrustedGroups(block, originGroup)
	n.relayToClients(block)
}

// ReceiveRelayedBlock handles a block arriving over an inbound
// relay-peer side channel (C6's listener side): it is provided to the
// pool, recorded in the header-chain store, and fanned out to both
// untrusted peer groups, every trusted connection, and every other
// relay-peer client, exactly like a block received over plain Bitcoin
// wire.
func (n *Node) ReceiveRelayedBlock(msg *wire.MsgBlock) {
	block := invitem.Block{Msg: msg}
	item := block.InvItem()
	// Provide unconditionally (P6): the trusted-group push must not wait
	// on this node's own header-chain validation of the block.
	n.blocks.Provide(block)
	if n.blocks.AlreadyRelayed(item) {
		return
	}

	header := msg.Header
	if err := n.headers.AddHeader(&header); err != nil {
		log.Errorf("node: header chain store rejected relayed block %s, disconnecting trusted peers: %v", item.Hash, err)
		n.trusted.DisconnectAll()
		return
	}

	n.blocks.MarkRelayed(item)
	n.fanOutBlock(block, nil)
	n.workers.Submit(func() {
		n.log.LogBlockRelay(item.Hash, "relay:inbound", nil)
	})
}

// RelayVerifiedTransaction is called once a trusted peer confirms a
// transaction is valid, fanning it out to every untrusted peer group
// capable of carrying transactions.
func (n *Node) RelayVerifiedTransaction(tx invitem.Transaction) {
	item := tx.InvItem()
	if n.txs.AlreadyRelayed(item) {
		return
	}
	n.txs.MarkRelayed(item)

	n.blocksAndTxPeers.Relay(tx, func(dst *peer.Peer, obj invitem.Relayable) {
		inv := wire.NewMsgInv()
		_ = inv.AddInvVect(obj.InvItem().InvVect())
		dst.QueueMessage(inv, nil)
	})
}

// Close releases the node's background resources.
func (n *Node) Close() {
	n.workers.Close()
	n.blocks.Close()
	n.txs.Close()
}

// Stats is a snapshot of the node's current state, for the operator stats
// TUI (C11).
type Stats struct {
	BlocksOnlyPeers  int
	BlocksAndTxPeers int
	TrustedPeers     []string
	RelayClients     []string
	HeaderHeight     int32
	Timestamp        time.Time
}

// Snapshot returns the node's current Stats.
func (n *Node) Snapshot() Stats {
	n.relayClientsMu.Lock()
	relayAddrs := make([]string, 0, len(n.relayClients))
	for addr := range n.relayClients {
		relayAddrs = append(relayAddrs, addr)
	}
	n.relayClientsMu.Unlock()

	return Stats{
		BlocksOnlyPeers:  n.blocksOnlyPeers.Len(),
		BlocksAndTxPeers: n.blocksAndTxPeers.Len(),
		TrustedPeers:     n.trusted.List(),
		RelayClients:     relayAddrs,
		HeaderHeight:     n.headers.Height(),
		Timestamp:        time.Now(),
	}
}
