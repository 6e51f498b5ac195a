// Package headerstore provides the minimal external header-chain store
// this relay depends on: hash-membership dedup and tip-height tracking.
// It performs no proof-of-work or difficulty-adjustment validation; a
// relay never validates consensus rules, it only avoids re-announcing
// blocks it has already seen and reports its current notion of chain tip.
package headerstore

import (
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Store is the external collaborator the dispatcher hands block headers
// to as they arrive.
type Store interface {
	// HasBlock reports whether hash has already been recorded.
	HasBlock(hash chainhash.Hash) bool
	// Height returns the store's current tip height, or -1 if empty.
	Height() int32
	// AddHeader records header's hash and advances the tracked tip height
	// by one; a header whose hash is already recorded changes nothing. It
	// returns an error only if header is structurally unusable (e.g. a
	// nil header).
	AddHeader(header *wire.BlockHeader) error
}

// MemStore is the default in-memory Store implementation.
type MemStore struct {
	mu     sync.RWMutex
	hashes map[chainhash.Hash]struct{}
	height int32
}

// NewMemStore creates an empty MemStore whose height starts at -1.
func NewMemStore() *MemStore {
	return &MemStore{
		hashes: make(map[chainhash.Hash]struct{}),
		height: -1,
	}
}

// HasBlock implements Store.
func (m *MemStore) HasBlock(hash chainhash.Hash) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.hashes[hash]
	return ok
}

// Height implements Store.
func (m *MemStore) Height() int32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.height
}

// AddHeader implements Store.
func (m *MemStore) AddHeader(header *wire.BlockHeader) error {
	if header == nil {
		return errNilHeader
	}
	hash := header.BlockHash()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.hashes[hash]; ok {
		return nil
	}
	m.hashes[hash] = struct{}{}
	m.height++
	return nil
}
