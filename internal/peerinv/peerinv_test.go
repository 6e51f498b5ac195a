package peerinv

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/mattcorallo/relaynode/internal/invitem"
	"github.com/stretchr/testify/assert"
)

func TestLearnAndKnows(t *testing.T) {
	tr := New()
	item := invitem.Item{Kind: invitem.KindBlock, Hash: chainhash.Hash{1}}

	assert.False(t, tr.Knows(item))
	tr.Learn(item)
	assert.True(t, tr.Knows(item))
}

func TestUnknownItemDefaultsFalse(t *testing.T) {
	tr := New()
	item := invitem.Item{Kind: invitem.KindTransaction, Hash: chainhash.Hash{2}}
	assert.False(t, tr.Knows(item))
}
