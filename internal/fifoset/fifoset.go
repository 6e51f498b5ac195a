// Package fifoset implements a fixed-capacity set with FIFO eviction: once
// full, adding a new member evicts whichever member was added longest ago.
// It is the generic form of the bounded membership sets the peer-inventory
// tracker and the object pool's "already relayed" set both need.
package fifoset

import (
	"container/ring"
	"sync"
)

// Set is a fixed-capacity, FIFO-eviction membership set over any
// comparable key type.
type Set[K comparable] struct {
	mu   sync.Mutex
	ring *ring.Ring
	hash map[K]*ring.Ring
}

// New creates a Set that holds at most n members.
func New[K comparable](n int) *Set[K] {
	if n <= 0 {
		n = 1
	}
	return &Set[K]{
		ring: ring.New(n),
		hash: make(map[K]*ring.Ring, n),
	}
}

// Add inserts item, evicting the oldest member if the set is already at
// capacity. Re-adding a member already present is a no-op; it does not
// refresh its position.
func (s *Set[K]) Add(item K) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.hash[item]; ok {
		return
	}
	if old, ok := s.ring.Value.(K); ok {
		delete(s.hash, old)
	}
	s.ring.Value = item
	s.hash[item] = s.ring
	s.ring = s.ring.Next()
}

// Contains reports whether item is currently a member of the set.
func (s *Set[K]) Contains(item K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.hash[item]
	return ok
}

// Len returns the current number of members.
func (s *Set[K]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hash)
}
