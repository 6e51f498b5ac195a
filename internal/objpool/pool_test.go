package objpool

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/mattcorallo/relaynode/internal/invitem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvideAndFetch(t *testing.T) {
	p := New[invitem.Transaction](10000, time.Minute, time.Hour, nil)
	defer p.Close()

	tx := invitem.Transaction{Msg: newTestTx()}
	item := tx.InvItem()

	assert.True(t, p.ShouldRequest(item))
	p.Provide(tx)
	assert.False(t, p.ShouldRequest(item))

	got, ok := p.Fetch(item)
	require.True(t, ok)
	assert.Equal(t, item, got.InvItem())
}

func TestMarkRelayedStopsFurtherRequests(t *testing.T) {
	p := New[invitem.Transaction](10000, time.Minute, time.Hour, nil)
	defer p.Close()

	item := invitem.Item{Kind: invitem.KindTransaction, Hash: chainhash.Hash{9}}
	assert.True(t, p.ShouldRequest(item))
	p.MarkRelayed(item)
	assert.False(t, p.ShouldRequest(item))
	assert.True(t, p.AlreadyRelayed(item))
}

func TestSweepEvictsExpiredEntries(t *testing.T) {
	p := New[invitem.Transaction](10000, 10*time.Millisecond, 5*time.Millisecond, nil)
	defer p.Close()

	tx := invitem.Transaction{Msg: newTestTx()}
	item := tx.InvItem()
	p.Provide(tx)

	_, ok := p.Fetch(item)
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := p.Fetch(item)
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestProvidePushesToTrustedEvenWhenAlreadyRelayed(t *testing.T) {
	pushed := 0
	p := New[invitem.Transaction](10000, time.Minute, time.Hour, func(invitem.Transaction) { pushed++ })
	defer p.Close()

	tx := invitem.Transaction{Msg: newTestTx()}
	item := tx.InvItem()
	p.MarkRelayed(item)

	p.Provide(tx)
	assert.Equal(t, 1, pushed, "Provide must push to the trusted group even for an already-relayed object (P6)")

	_, held := p.Fetch(item)
	assert.False(t, held, "an already-relayed object must not be (re)inserted into the objects map")
}

func newTestTx() *wire.MsgTx {
	return wire.NewMsgTx(wire.TxVersion)
}
