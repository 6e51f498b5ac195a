package relaypeer

import (
	"context"
	"sync"
	"time"

	"github.com/btcsuite/btcd/wire"
	gorpc "github.com/libp2p/go-libp2p-gorpc"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	multiaddr "github.com/multiformats/go-multiaddr"

	log "github.com/koinos/koinos-log-golang"
	"github.com/mattcorallo/relaynode/internal/options"
)

// Client maintains one outbound relay-peer side channel: a libp2p
// connection plus the gorpc client dispatching onto it, reconnecting
// after a fixed delay whenever the stream drops, mirroring the trusted
// peer connection's fixed 1-second reconnect policy (§4.5/§9) rather than
// the exponential backoff more commonly used for best-effort peering.
type Client struct {
	host      host.Host
	rpcClient *gorpc.Client
	addr      multiaddr.Multiaddr
	opts      options.RelayPeerOptions

	mu               sync.Mutex
	peerID           peer.ID
	connected        bool
	closed           bool
	markedForRemoval bool

	onOpened func()
	onClosed func()
}

// NewClient creates a Client dialing target (a full /p2p/<id> multiaddr)
// from host. onOpened/onClosed, if non-nil, mirror
// connectionOpened/connectionClosed in the data model.
func NewClient(h host.Host, target multiaddr.Multiaddr, opts options.RelayPeerOptions, onOpened, onClosed func()) *Client {
	c := &Client{
		host:      h,
		rpcClient: gorpc.NewClient(h, ServiceID),
		addr:      target,
		opts:      opts,
		onOpened:  onOpened,
		onClosed:  onClosed,
	}
	h.Network().Notify(c)
	go c.connectLoop()
	return c
}

func (c *Client) connectLoop() {
	for {
		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}

		info, err := peer.AddrInfoFromP2pAddr(c.addr)
		if err != nil {
			log.Errorf("relaypeer: invalid relay peer address: %v", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.opts.DialTimeout)
		err = c.host.Connect(ctx, *info)
		cancel()

		if err == nil {
			c.mu.Lock()
			c.peerID = info.ID
			c.connected = true
			c.mu.Unlock()
			if c.onOpened != nil {
				c.onOpened()
			}
			return
		}

		log.Warnf("relaypeer: dial to %s failed: %v, retrying in %s", c.addr, err, c.opts.ReconnectDelay)
		time.Sleep(c.opts.ReconnectDelay)
	}
}

// Disconnected implements network.Notifiee: a drop of the relay peer's
// connection triggers connectionClosed and a fresh reconnect attempt.
func (c *Client) Disconnected(n network.Network, conn network.Conn) {
	c.mu.Lock()
	if !c.connected || conn.RemotePeer() != c.peerID {
		c.mu.Unlock()
		return
	}
	c.connected = false
	closed := c.closed || c.markedForRemoval
	c.mu.Unlock()

	if c.onClosed != nil {
		c.onClosed()
	}
	if !closed {
		go c.connectLoop()
	}
}

// MarkForRemoval flags the client so that its next disconnect is not
// followed by a reconnect attempt, mirroring the operator's "remove
// after next disconnect" semantics for outbound relay peers (§6). It
// does not force-close an already-open connection.
func (c *Client) MarkForRemoval() {
	c.mu.Lock()
	c.markedForRemoval = true
	c.mu.Unlock()
}

// Connected, Listen, ListenClose are required by network.Notifiee but
// unused here.
func (c *Client) Connected(network.Network, network.Conn)      {}
func (c *Client) Listen(network.Network, multiaddr.Multiaddr)      {}
func (c *Client) ListenClose(network.Network, multiaddr.Multiaddr) {}

// Close stops reconnecting and tears down the connection.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	id := c.peerID
	c.mu.Unlock()
	if id != "" {
		_ = c.host.Network().ClosePeer(id)
	}
}

func (c *Client) call(method string, args, reply interface{}) error {
	c.mu.Lock()
	id, connected := c.peerID, c.connected
	c.mu.Unlock()
	if !connected {
		return errNotConnected
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.DialTimeout)
	defer cancel()
	return c.rpcClient.CallContext(ctx, id, "Service", method, args, reply)
}

// SendBlock forwards block to the relay peer.
func (c *Client) SendBlock(block *wire.MsgBlock) error {
	payload, err := gobEncode(block)
	if err != nil {
		return err
	}
	return c.call("ReceiveBlock", BlockArgs{Payload: payload}, &Ack{})
}

// SendBlockHeader forwards header to the relay peer.
func (c *Client) SendBlockHeader(header *wire.BlockHeader) error {
	payload, err := gobEncode(header)
	if err != nil {
		return err
	}
	return c.call("ReceiveBlockHeader", HeaderArgs{Payload: payload}, &Ack{})
}

// SendTransaction forwards tx to the relay peer.
func (c *Client) SendTransaction(tx *wire.MsgTx) error {
	payload, err := gobEncode(tx)
	if err != nil {
		return err
	}
	return c.call("ReceiveTransaction", TransactionArgs{Payload: payload}, &Ack{})
}

// SendStatsLine forwards one accumulated receive-stats line.
func (c *Client) SendStatsLine(line string) error {
	return c.call("LogStatsRecv", StatsArgs{Line: line}, &Ack{})
}
