package aggregate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thanhnp/baseline-explorer/internal/models"
	"github.com/thanhnp/baseline-explorer/internal/rpc"
)

type fakeRecentChain struct {
	blocks map[int64]*models.Block
	txs    map[string]*models.Transaction
}

func (f *fakeRecentChain) BlockByHeight(_ context.Context, height int64) (*models.Block, error) {
	b, ok := f.blocks[height]
	if !ok {
		return nil, &rpc.Error{Code: -8, Message: "block height out of range"}
	}
	return b, nil
}

func (f *fakeRecentChain) Transaction(_ context.Context, txid, _ string) (*models.Transaction, error) {
	tx, ok := f.txs[txid]
	if !ok {
		return nil, &rpc.Error{Code: -5, Message: "no such transaction"}
	}
	return tx, nil
}

// chainOfHeight builds a linear chain where block h carries one coinbase
// transaction "cb-h".
func chainOfHeight(tip int64) *fakeRecentChain {
	c := &fakeRecentChain{
		blocks: make(map[int64]*models.Block),
		txs:    make(map[string]*models.Transaction),
	}
	for h := int64(0); h <= tip; h++ {
		txid := fmt.Sprintf("cb-%d", h)
		c.blocks[h] = &models.Block{
			Hash:      fmt.Sprintf("hash-%d", h),
			Height:    h,
			Timestamp: time.Unix(1700000000+h, 0).UTC(),
			TxIDs:     []string{txid},
		}
		c.txs[txid] = &models.Transaction{
			TxID: txid, BlockHash: fmt.Sprintf("hash-%d", h), BlockHeight: h,
			IsCoinbase: true,
			Outputs:    []models.TxOutput{{Index: 0, Value: 100}},
		}
	}
	return c
}

func TestRecentBlocksWalksDownFromTip(t *testing.T) {
	l := NewRecentLister(chainOfHeight(9), nil)
	snap := models.Snapshot{TipHeight: 9}

	blocks, hasNext, partial, err := l.Blocks(context.Background(), snap, 1, 4)
	require.NoError(t, err)
	assert.False(t, partial)
	assert.True(t, hasNext)
	require.Len(t, blocks, 4)
	assert.Equal(t, int64(9), blocks[0].Height)
	assert.Equal(t, int64(6), blocks[3].Height)
	assert.Equal(t, int64(1), blocks[0].Confirmations)
}

func TestRecentBlocksStopsAtGenesis(t *testing.T) {
	l := NewRecentLister(chainOfHeight(9), nil)
	snap := models.Snapshot{TipHeight: 9}

	blocks, hasNext, _, err := l.Blocks(context.Background(), snap, 3, 4)
	require.NoError(t, err)
	assert.False(t, hasNext)
	require.Len(t, blocks, 2)
	assert.Equal(t, int64(1), blocks[0].Height)
	assert.Equal(t, int64(0), blocks[1].Height)
}

func TestRecentBlocksSkipsUnreadable(t *testing.T) {
	chain := chainOfHeight(5)
	delete(chain.blocks, 4)
	l := NewRecentLister(chain, nil)
	snap := models.Snapshot{TipHeight: 5}

	blocks, _, partial, err := l.Blocks(context.Background(), snap, 1, 3)
	require.NoError(t, err)
	assert.True(t, partial)
	require.Len(t, blocks, 2)
	assert.Equal(t, int64(5), blocks[0].Height)
	assert.Equal(t, int64(3), blocks[1].Height)
}

func TestRecentTransactionsWindow(t *testing.T) {
	l := NewRecentLister(chainOfHeight(9), nil)
	snap := models.Snapshot{TipHeight: 9}

	txs, hasNext, partial, err := l.Transactions(context.Background(), snap, 2, 4)
	require.NoError(t, err)
	assert.False(t, partial)
	assert.True(t, hasNext)
	require.Len(t, txs, 4)
	// Page 2 of a one-tx-per-block chain: heights 5 down to 2.
	assert.Equal(t, "cb-5", txs[0].TxID)
	assert.Equal(t, "cb-2", txs[3].TxID)
	assert.Equal(t, int64(9-5+1), txs[0].Confirmations)
}

func TestRecentTransactionsSkipsUndecodable(t *testing.T) {
	chain := chainOfHeight(3)
	delete(chain.txs, "cb-2")
	l := NewRecentLister(chain, nil)
	snap := models.Snapshot{TipHeight: 3}

	txs, hasNext, partial, err := l.Transactions(context.Background(), snap, 1, 10)
	require.NoError(t, err)
	assert.True(t, partial)
	assert.False(t, hasNext)
	require.Len(t, txs, 3)
	for _, tx := range txs {
		assert.NotEqual(t, "cb-2", tx.TxID)
	}
}
