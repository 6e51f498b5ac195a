// Package peergroup tracks a set of connected peers and fans a relayable
// object out to every member that has not already seen it, without
// holding the group lock while peers are being written to.
package peergroup

import (
	"sync"

	"github.com/btcsuite/btcd/peer"
	"github.com/mattcorallo/relaynode/internal/invitem"
	"github.com/mattcorallo/relaynode/internal/peerinv"
)

// member pairs a connected peer with what that peer is already known to
// have, mirroring PeerAndInvs in the data model.
type member struct {
	peer *peer.Peer
	inv  *peerinv.Tracker
}

// Group is a mutation-safe set of connected peers, keyed by remote
// address, each carrying its own inventory tracker.
type Group struct {
	mu      sync.Mutex
	members map[string]*member
}

// New creates an empty Group.
func New() *Group {
	return &Group{members: make(map[string]*member)}
}

// Add registers p as a member of the group with a fresh, empty inventory
// tracker. Adding a peer already present is a no-op.
func (g *Group) Add(p *peer.Peer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.members[p.Addr()]; ok {
		return
	}
	g.members[p.Addr()] = &member{peer: p, inv: peerinv.New()}
}

// Remove drops p from the group.
func (g *Group) Remove(p *peer.Peer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.members, p.Addr())
}

// Len reports the current member count.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.members)
}

// Learn records that p is already known to have item, e.g. because p
// announced it or because we just handed it the object. It is safe to
// call for a peer not currently a member (a no-op).
func (g *Group) Learn(p *peer.Peer, item invitem.Item) {
	g.mu.Lock()
	m, ok := g.members[p.Addr()]
	g.mu.Unlock()
	if ok {
		m.inv.Learn(item)
	}
}

// Relay hands obj to every current member not already known to have it,
// via send, and records that every member it was sent to now has it.
// Members are snapshotted under the lock and then iterated without it
// held, so a slow or blocking send from one peer cannot stall additions
// or removals of other peers.
func (g *Group) Relay(obj invitem.Relayable, send func(p *peer.Peer, obj invitem.Relayable)) {
	item := obj.InvItem()

	g.mu.Lock()
	snapshot := make([]*member, 0, len(g.members))
	for _, m := range g.members {
		snapshot = append(snapshot, m)
	}
	g.mu.Unlock()

	for _, m := range snapshot {
		if m.inv.Knows(item) {
			continue
		}
		send(m.peer, obj)
		m.inv.Learn(item)
	}
}
