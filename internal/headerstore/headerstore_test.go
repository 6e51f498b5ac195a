package headerstore

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyStoreHeight(t *testing.T) {
	s := NewMemStore()
	assert.Equal(t, int32(-1), s.Height())
}

func TestAddHeaderAdvancesHeightAndDedups(t *testing.T) {
	s := NewMemStore()
	h1 := &wire.BlockHeader{Timestamp: time.Unix(1, 0)}
	h2 := &wire.BlockHeader{Timestamp: time.Unix(2, 0)}

	require.NoError(t, s.AddHeader(h1))
	assert.Equal(t, int32(0), s.Height())
	assert.True(t, s.HasBlock(h1.BlockHash()))

	require.NoError(t, s.AddHeader(h2))
	assert.Equal(t, int32(1), s.Height())

	// Re-adding the same header must not advance height again.
	require.NoError(t, s.AddHeader(h1))
	assert.Equal(t, int32(1), s.Height())
}

func TestAddNilHeaderErrors(t *testing.T) {
	s := NewMemStore()
	err := s.AddHeader(nil)
	assert.Error(t, err)
}

func TestUnknownHashNotPresent(t *testing.T) {
	s := NewMemStore()
	assert.False(t, s.HasBlock(chainhash.Hash{1, 2, 3}))
}
