// Package peerinv tracks, per peer, which inventory items that peer is
// already known to have (either because it announced them or because we
// sent them), so the relay never re-announces or re-sends an item to a
// peer that already has it.
package peerinv

import (
	"github.com/mattcorallo/relaynode/internal/fifoset"
	"github.com/mattcorallo/relaynode/internal/invitem"
)

// perPeerCapacity bounds how many items are remembered for a single peer.
// A peer that never confirms an item eventually "forgets" it fell off the
// front of the FIFO and may be re-offered it; that is an acceptable and
// harmless waste of bandwidth, not a correctness issue.
const perPeerCapacity = 500

// Tracker records, for a single peer, the inventory items already known
// to be in its possession.
type Tracker struct {
	known *fifoset.Set[invitem.Item]
}

// New creates an empty Tracker for one peer.
func New() *Tracker {
	return &Tracker{known: fifoset.New[invitem.Item](perPeerCapacity)}
}

// Learn records that the peer is now known to have item, whether because
// it told us so via inv or because we handed it the object.
func (t *Tracker) Learn(item invitem.Item) {
	t.known.Add(item)
}

// Knows reports whether the peer is already known to have item.
func (t *Tracker) Knows(item invitem.Item) bool {
	return t.known.Contains(item)
}
