// Package trusted manages the dual-socket connections this relay
// maintains to its trusted, full-validating peers (C5). Each trusted
// peer is reached over two independent Bitcoin-wire sockets — one this
// node dials out, one the trusted peer dials in — so that a block or
// transaction can always flow in the direction whichever socket happens
// to be up.
package trusted

import (
	"sync"
	"time"

	"github.com/btcsuite/btcd/peer"
	log "github.com/koinos/koinos-log-golang"

	"github.com/mattcorallo/relaynode/internal/netpeer"
	"github.com/mattcorallo/relaynode/internal/options"
)

// State is a trusted peer connection's lifecycle state (§4.5/§9).
type State int

const (
	// StateIdle means neither socket has been dialed yet.
	StateIdle State = iota
	// StateConnecting means a dial attempt is in flight.
	StateConnecting
	// StatePartiallyUp means exactly one of the two sockets is up.
	StatePartiallyUp
	// StateFullyUp means both sockets are up.
	StateFullyUp
	// StateDisconnected means both sockets are down and no reconnect is
	// currently scheduled.
	StateDisconnected
	// StateScheduledReconnect means both sockets are down and a
	// reconnect has been scheduled after the fixed delay.
	StateScheduledReconnect
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateConnecting:
		return "Connecting"
	case StatePartiallyUp:
		return "PartiallyUp"
	case StateFullyUp:
		return "FullyUp"
	case StateDisconnected:
		return "Disconnected"
	case StateScheduledReconnect:
		return "ScheduledReconnect"
	default:
		return "*Unknown*"
	}
}

// Connection is one trusted peer's dual-socket connection.
type Connection struct {
	mu      sync.Mutex
	addr    string
	cfg     *peer.Config
	opts    options.TrustedPeerOptions
	outbound *peer.Peer
	inbound  *peer.Peer
	state    State
	permanentlyDisconnected bool
	onStateChange func(addr string, state State)
}

// New creates a Connection for the trusted peer at addr. It does not dial
// until Connect is called.
func New(addr string, cfg *peer.Config, opts options.TrustedPeerOptions, onStateChange func(addr string, state State)) *Connection {
	return &Connection{
		addr:          addr,
		cfg:           cfg,
		opts:          opts,
		state:         StateIdle,
		onStateChange: onStateChange,
	}
}

// Addr returns the trusted peer's address.
func (c *Connection) Addr() string { return c.addr }

// State returns the connection's current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials the outbound socket. It is safe to call repeatedly; a
// connection already connecting or up is left alone.
func (c *Connection) Connect() {
	c.mu.Lock()
	if c.permanentlyDisconnected || c.outbound != nil || c.state == StateConnecting {
		c.mu.Unlock()
		return
	}
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	p, err := netpeer.Dial(c.addr, c.cfg)
	if err != nil {
		log.Warnf("trusted: outbound dial to %s failed: %v", c.addr, err)
		c.scheduleReconnect()
		return
	}

	c.mu.Lock()
	c.outbound = p
	c.recomputeStateLocked()
	c.mu.Unlock()

	go func() {
		p.WaitForDisconnect()
		c.mu.Lock()
		current := c.outbound == p
		c.mu.Unlock()
		if current {
			c.OnDisconnect(true)
		}
	}()
}

// AttachInbound registers an inbound socket accepted from this trusted
// peer's address.
func (c *Connection) AttachInbound(p *peer.Peer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.permanentlyDisconnected {
		p.Disconnect()
		return
	}
	c.inbound = p
	c.recomputeStateLocked()
}

// OnDisconnect must be called whenever either socket drops. When both
// sockets are down, a reconnect is scheduled after the fixed delay.
func (c *Connection) OnDisconnect(isOutbound bool) {
	c.mu.Lock()
	if isOutbound {
		c.outbound = nil
	} else {
		c.inbound = nil
	}
	bothDown := c.outbound == nil && c.inbound == nil
	c.recomputeStateLocked()
	permanentlyDisconnected := c.permanentlyDisconnected
	c.mu.Unlock()

	if bothDown && !permanentlyDisconnected {
		c.scheduleReconnect()
	}
}

// DisconnectPermanently tears down both sockets and stops any future
// reconnect attempts, for operator-driven removal of a trusted peer.
func (c *Connection) DisconnectPermanently() {
	c.mu.Lock()
	c.permanentlyDisconnected = true
	out, in := c.outbound, c.inbound
	c.outbound, c.inbound = nil, nil
	c.setStateLocked(StateDisconnected)
	c.mu.Unlock()

	if out != nil {
		out.Disconnect()
	}
	if in != nil {
		in.Disconnect()
	}
}

// forceDisconnect tears down both sockets (if up) and schedules a
// reconnect, without marking the connection permanently disconnected.
func (c *Connection) forceDisconnect() {
	c.mu.Lock()
	out, in := c.outbound, c.inbound
	c.outbound, c.inbound = nil, nil
	c.recomputeStateLocked()
	permanentlyDisconnected := c.permanentlyDisconnected
	c.mu.Unlock()

	if out != nil {
		out.Disconnect()
	}
	if in != nil {
		in.Disconnect()
	}
	if !permanentlyDisconnected {
		c.scheduleReconnect()
	}
}

// Send queues msg on whichever socket is up, preferring the outbound
// socket.
func (c *Connection) Send(queue func(p *peer.Peer)) {
	c.mu.Lock()
	out, in := c.outbound, c.inbound
	c.mu.Unlock()

	if out != nil {
		queue(out)
	} else if in != nil {
		queue(in)
	}
}

func (c *Connection) scheduleReconnect() {
	c.mu.Lock()
	if c.permanentlyDisconnected {
		c.mu.Unlock()
		return
	}
	c.setStateLocked(StateScheduledReconnect)
	c.mu.Unlock()

	time.AfterFunc(c.opts.ReconnectDelay, c.Connect)
}

// recomputeStateLocked must be called with c.mu held.
func (c *Connection) recomputeStateLocked() {
	switch {
	case c.outbound != nil && c.inbound != nil:
		c.setStateLocked(StateFullyUp)
	case c.outbound != nil || c.inbound != nil:
		c.setStateLocked(StatePartiallyUp)
	default:
		c.setStateLocked(StateDisconnected)
	}
}

func (c *Connection) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.state = s
	if c.onStateChange != nil {
		c.onStateChange(c.addr, s)
	}
}
