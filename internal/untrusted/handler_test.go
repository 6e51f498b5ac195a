package untrusted

import (
	"errors"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/peer"
	"github.com/btcsuite/btcd/wire"
	"github.com/mattcorallo/relaynode/internal/headerstore"
	"github.com/mattcorallo/relaynode/internal/invitem"
	"github.com/mattcorallo/relaynode/internal/objpool"
	"github.com/mattcorallo/relaynode/internal/peergroup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDeps(t *testing.T) Deps {
	t.Helper()
	blocks := objpool.New[invitem.Block](100, 60*time.Second, time.Hour, nil)
	txs := objpool.New[invitem.Transaction](10000, 60*time.Second, time.Hour, nil)
	t.Cleanup(func() { blocks.Close(); txs.Close() })

	return Deps{
		Blocks:        blocks,
		Transactions:  txs,
		Headers:       headerstore.NewMemStore(),
		Peers:         peergroup.New(),
		LogBlockRelay: func(invitem.Item, *peer.Peer, bool) {},
	}
}

func newTestPeer(t *testing.T, addr string) *peer.Peer {
	t.Helper()
	cfg := &peer.Config{ChainParams: &chaincfg.MainNetParams}
	p, err := peer.NewOutboundPeer(cfg, addr)
	require.NoError(t, err)
	return p
}

func TestOnTxSwallowsEmptyTransaction(t *testing.T) {
	deps := newTestDeps(t)
	p := newTestPeer(t, "127.0.0.1:8333")

	tx := wire.NewMsgTx(wire.TxVersion)
	onTx(deps, p, tx)

	item := invitem.Transaction{Msg: tx}.InvItem()
	_, held := deps.Transactions.Fetch(item)
	assert.False(t, held, "a transaction with no inputs or outputs must be swallowed, never provided")
}

func TestOnBlockRejectedByHeaderStoreIsSilent(t *testing.T) {
	deps := newTestDeps(t)
	p := newTestPeer(t, "127.0.0.1:8333")

	deps.Headers = alwaysRejectStore{}
	relayed := false
	deps.LogBlockRelay = func(invitem.Item, *peer.Peer, bool) { relayed = true }

	block := wire.NewMsgBlock(&wire.BlockHeader{})
	onBlock(deps, p, block)

	item := invitem.Block{Msg: block}.InvItem()
	assert.False(t, deps.Blocks.AlreadyRelayed(item), "a header-chain rejection from an untrusted source must not mark the block relayed")
	assert.False(t, relayed, "a header-chain rejection from an untrusted source must not fan out the block")
}

func TestOnBlockAcceptedMarksRelayed(t *testing.T) {
	deps := newTestDeps(t)
	p := newTestPeer(t, "127.0.0.1:8333")

	block := wire.NewMsgBlock(&wire.BlockHeader{})
	onBlock(deps, p, block)

	item := invitem.Block{Msg: block}.InvItem()
	assert.True(t, deps.Blocks.AlreadyRelayed(item))
}

// alwaysRejectStore is a headerstore.Store that rejects every header, used
// to exercise the silent header-chain rejection path for untrusted sources.
type alwaysRejectStore struct{}

func (alwaysRejectStore) HasBlock(hash chainhash.Hash) bool { return false }
func (alwaysRejectStore) Height() int32                     { return -1 }
func (alwaysRejectStore) AddHeader(header *wire.BlockHeader) error {
	return errors.New("rejected")
}
