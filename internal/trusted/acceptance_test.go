package trusted

import (
	"errors"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/mattcorallo/relaynode/internal/headerstore"
	"github.com/mattcorallo/relaynode/internal/invitem"
	"github.com/mattcorallo/relaynode/internal/objpool"
	"github.com/stretchr/testify/assert"
)

func newTestAcceptanceDeps(t *testing.T) (AcceptanceDeps, *bool, *bool) {
	t.Helper()
	blocks := objpool.New[invitem.Block](100, time.Minute, time.Hour, nil)
	txs := objpool.New[invitem.Transaction](10000, time.Minute, time.Hour, nil)
	t.Cleanup(func() { blocks.Close(); txs.Close() })

	blockAccepted := false
	txAccepted := false
	return AcceptanceDeps{
		Blocks:          blocks,
		Transactions:    txs,
		Headers:         headerstore.NewMemStore(),
		OnBlockAccepted: func(invitem.Block) { blockAccepted = true },
		OnTxAccepted:    func(invitem.Transaction) { txAccepted = true },
	}, &blockAccepted, &txAccepted
}

func TestAcceptBlockMarksRelayedAndFires(t *testing.T) {
	deps, blockAccepted, _ := newTestAcceptanceDeps(t)

	block := invitem.Block{Msg: wire.NewMsgBlock(&wire.BlockHeader{})}
	acceptBlock(deps, block)

	assert.True(t, deps.Blocks.AlreadyRelayed(block.InvItem()))
	assert.True(t, *blockAccepted)
}

func TestAcceptBlockRejectedByHeaderStoreWarnsOnly(t *testing.T) {
	deps, blockAccepted, _ := newTestAcceptanceDeps(t)
	deps.Headers = alwaysRejectStore{}

	block := invitem.Block{Msg: wire.NewMsgBlock(&wire.BlockHeader{})}
	acceptBlock(deps, block)

	assert.False(t, deps.Blocks.AlreadyRelayed(block.InvItem()))
	assert.False(t, *blockAccepted, "a local header-chain rejection must not fan the block out")
}

func TestAcceptTxFires(t *testing.T) {
	deps, _, txAccepted := newTestAcceptanceDeps(t)

	tx := invitem.Transaction{Msg: wire.NewMsgTx(wire.TxVersion)}
	acceptTx(deps, tx)

	assert.True(t, *txAccepted)
}

func TestOnInvFetchesAlreadyProvidedBlock(t *testing.T) {
	deps, blockAccepted, _ := newTestAcceptanceDeps(t)

	block := invitem.Block{Msg: wire.NewMsgBlock(&wire.BlockHeader{})}
	deps.Blocks.Provide(block)

	inv := wire.NewMsgInv()
	_ = inv.AddInvVect(block.InvItem().InvVect())
	onInv(deps, nil, inv)

	assert.True(t, *blockAccepted)
}

// alwaysRejectStore is a headerstore.Store that rejects every header.
type alwaysRejectStore struct{}

func (alwaysRejectStore) HasBlock(hash chainhash.Hash) bool { return false }
func (alwaysRejectStore) Height() int32                     { return -1 }
func (alwaysRejectStore) AddHeader(header *wire.BlockHeader) error {
	return errors.New("rejected")
}
