package trusted

import (
	"net"
	"sync"

	"github.com/btcsuite/btcd/peer"
	"github.com/mattcorallo/relaynode/internal/options"
	"github.com/mattcorallo/relaynode/internal/p2perrors"
)

// Manager owns every trusted peer's Connection, keyed by address.
type Manager struct {
	mu          sync.Mutex
	connections map[string]*Connection
	cfg         *peer.Config
	opts        options.TrustedPeerOptions
	onState     func(addr string, state State)
}

// NewManager creates an empty Manager. cfg is the peer.Config shared by
// every trusted connection's sockets; onState, if non-nil, is invoked on
// every state transition of any connection, for the stats TUI (C11).
func NewManager(cfg *peer.Config, opts options.TrustedPeerOptions, onState func(addr string, state State)) *Manager {
	return &Manager{
		connections: make(map[string]*Connection),
		cfg:         cfg,
		opts:        opts,
		onState:     onState,
	}
}

// Add registers a trusted peer at addr and begins connecting it. Adding
// an address already present is a no-op.
func (m *Manager) Add(addr string) *Connection {
	m.mu.Lock()
	if c, ok := m.connections[addr]; ok {
		m.mu.Unlock()
		return c
	}
	c := New(addr, m.cfg, m.opts, m.onState)
	m.connections[addr] = c
	m.mu.Unlock()

	go c.Connect()
	return c
}

// Remove permanently disconnects and forgets the trusted peer at addr.
func (m *Manager) Remove(addr string) error {
	m.mu.Lock()
	c, ok := m.connections[addr]
	if ok {
		delete(m.connections, addr)
	}
	m.mu.Unlock()

	if !ok {
		return p2perrors.ErrUnknownTrustedPeer
	}
	c.DisconnectPermanently()
	return nil
}

// List returns every currently configured trusted peer's address.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	addrs := make([]string, 0, len(m.connections))
	for addr := range m.connections {
		addrs = append(addrs, addr)
	}
	return addrs
}

// Get returns the Connection for addr, if any.
func (m *Manager) Get(addr string) (*Connection, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.connections[addr]
	return c, ok
}

// AttachInbound routes an inbound socket accepted from addr to its
// Connection, if addr is a configured trusted peer. ok is false if it is
// not (the caller should then treat the connection as untrusted).
func (m *Manager) AttachInbound(addr string, p *peer.Peer) (ok bool) {
	m.mu.Lock()
	c, found := m.connections[addr]
	m.mu.Unlock()
	if !found {
		return false
	}
	c.AttachInbound(p)
	return true
}

// MatchInbound looks up the trusted Connection whose configured address
// resolves to remoteIP, so the dispatcher's accept loop can tell a
// trusted peer's inbound socket apart from an ordinary untrusted
// connection arriving on the same listening port. remoteIP carries no
// port, since the trusted peer dials in from an ephemeral one.
func (m *Manager) MatchInbound(remoteIP string) (*Connection, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.connections {
		host, _, err := net.SplitHostPort(c.Addr())
		if err != nil {
			host = c.Addr()
		}
		if host == remoteIP {
			return c, true
		}
	}
	return nil, false
}

// DisconnectAll forcibly disconnects and reschedules every trusted
// connection. Used when the header-chain store rejects a block, so every
// trusted peer re-synchronizes from a consistent state (§4.5 Design
// Notes).
func (m *Manager) DisconnectAll() {
	m.mu.Lock()
	conns := make([]*Connection, 0, len(m.connections))
	for _, c := range m.connections {
		conns = append(conns, c)
	}
	m.mu.Unlock()

	for _, c := range conns {
		c.forceDisconnect()
	}
}

// Broadcast sends to every fully- or partially-up trusted connection.
func (m *Manager) Broadcast(queue func(p *peer.Peer)) {
	m.mu.Lock()
	conns := make([]*Connection, 0, len(m.connections))
	for _, c := range m.connections {
		conns = append(conns, c)
	}
	m.mu.Unlock()

	for _, c := range conns {
		c.Send(queue)
	}
}
