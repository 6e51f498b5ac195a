// Package outboundpeer manages operator-added outbound untrusted Bitcoin
// P2P connections (the "o"/"o-" operator commands, §6). Unlike a trusted
// peer, each of these has a single socket and joins the ordinary
// untrusted peer groups exactly like an inbound connection would.
package outboundpeer

import (
	"sync"
	"time"

	"github.com/btcsuite/btcd/peer"
	log "github.com/koinos/koinos-log-golang"

	"github.com/mattcorallo/relaynode/internal/netpeer"
	"github.com/mattcorallo/relaynode/internal/options"
	"github.com/mattcorallo/relaynode/internal/p2perrors"
)

// onConnect is invoked with the freshly connected socket each time a dial
// succeeds, so the caller can add it to its peer groups.
type onConnect func(addr string, p *peer.Peer)

// Manager tracks every operator-added outbound untrusted peer by address.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*entry
	cfg     *peer.Config
	opts    options.OutboundPeerOptions
	connect onConnect
}

type entry struct {
	markedForRemoval bool
}

// NewManager creates a Manager that dials with cfg and reports freshly
// connected sockets through connect.
func NewManager(cfg *peer.Config, opts options.OutboundPeerOptions, connect onConnect) *Manager {
	return &Manager{
		entries: make(map[string]*entry),
		cfg:     cfg,
		opts:    opts,
		connect: connect,
	}
}

// Add dials addr if it is not already tracked, reconnecting with a fixed
// delay on every disconnect until the operator marks it for removal.
func (m *Manager) Add(addr string) {
	m.mu.Lock()
	if _, ok := m.entries[addr]; ok {
		m.mu.Unlock()
		return
	}
	m.entries[addr] = &entry{}
	m.mu.Unlock()

	go m.dial(addr)
}

// MarkForRemoval flags addr so that its next disconnect is not followed
// by a reconnect, and the entry is forgotten. It does not force a
// disconnect of an already-up connection.
func (m *Manager) MarkForRemoval(addr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[addr]
	if !ok {
		return p2perrors.ErrUnknownPeer
	}
	e.markedForRemoval = true
	return nil
}

// List returns the addresses currently tracked.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	addrs := make([]string, 0, len(m.entries))
	for addr := range m.entries {
		addrs = append(addrs, addr)
	}
	return addrs
}

func (m *Manager) dial(addr string) {
	p, err := netpeer.Dial(addr, m.cfg)
	if err != nil {
		log.Warnf("outboundpeer: dial to %s failed: %v, retrying in %s", addr, err, m.opts.ReconnectDelay)
		time.AfterFunc(m.opts.ReconnectDelay, func() { m.dial(addr) })
		return
	}

	if m.connect != nil {
		m.connect(addr, p)
	}

	go func() {
		p.WaitForDisconnect()

		m.mu.Lock()
		e, ok := m.entries[addr]
		if !ok {
			m.mu.Unlock()
			return
		}
		if e.markedForRemoval {
			delete(m.entries, addr)
			m.mu.Unlock()
			return
		}
		m.mu.Unlock()

		log.Infof("outboundpeer: %s disconnected, reconnecting in %s", addr, m.opts.ReconnectDelay)
		time.AfterFunc(m.opts.ReconnectDelay, func() { m.dial(addr) })
	}()
}
