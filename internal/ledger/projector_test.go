package ledger

import (
	"bytes"
	"context"
	"testing"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thanhnp/baseline-explorer/internal/models"
	"github.com/thanhnp/baseline-explorer/internal/rpc"
)

const testAddressVersion byte = 0x35

func testAddress(fill byte) string {
	return base58.CheckEncode(bytes.Repeat([]byte{fill}, 20), testAddressVersion)
}

type fakeLedgerNode struct {
	tip      int64
	bestHash string
	balances map[string]*rpc.AddressBalance
	utxos    map[string][]rpc.AddressUTXO
	txRefs   map[string][]rpc.AddressTxRef
}

func (f *fakeLedgerNode) GetBlockchainInfo(context.Context) (*rpc.ChainInfo, error) {
	return &rpc.ChainInfo{Blocks: f.tip, BestBlockHash: f.bestHash}, nil
}

func (f *fakeLedgerNode) GetAddressBalance(_ context.Context, address string) (*rpc.AddressBalance, error) {
	bal, ok := f.balances[address]
	if !ok {
		return nil, &rpc.Error{Code: -5, Message: "address index has no information"}
	}
	return bal, nil
}

func (f *fakeLedgerNode) GetAddressTxIDs(_ context.Context, address string, limit, offset int) ([]rpc.AddressTxRef, error) {
	refs := f.txRefs[address]
	if offset >= len(refs) {
		return nil, nil
	}
	end := offset + limit
	if end > len(refs) {
		end = len(refs)
	}
	return refs[offset:end], nil
}

func (f *fakeLedgerNode) GetAddressUTXOs(_ context.Context, address string) ([]rpc.AddressUTXO, error) {
	return f.utxos[address], nil
}

type fakeChain struct {
	blocks map[string]*models.Block
	byH    map[int64]*models.Block
	txs    map[string]*models.Transaction
}

func (f *fakeChain) BlockByHash(_ context.Context, hash string) (*models.Block, error) {
	b, ok := f.blocks[hash]
	if !ok {
		return nil, &rpc.Error{Code: -5, Message: "block not found"}
	}
	return b, nil
}

func (f *fakeChain) BlockByHeight(_ context.Context, height int64) (*models.Block, error) {
	b, ok := f.byH[height]
	if !ok {
		return nil, &rpc.Error{Code: -8, Message: "block height out of range"}
	}
	return b, nil
}

func (f *fakeChain) Transaction(_ context.Context, txid, _ string) (*models.Transaction, error) {
	tx, ok := f.txs[txid]
	if !ok {
		return nil, &rpc.Error{Code: -5, Message: "no such transaction"}
	}
	return tx, nil
}

func TestAddressViewInvalidAddress(t *testing.T) {
	p := NewProjector(&fakeLedgerNode{}, &fakeChain{}, nil, testAddressVersion, 15, nil)

	_, err := p.AddressView(context.Background(), models.Snapshot{}, "garbage", 1, 15)
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestAddressViewUnknownAddress(t *testing.T) {
	addr := testAddress(1)
	node := &fakeLedgerNode{balances: map[string]*rpc.AddressBalance{}}
	p := NewProjector(node, &fakeChain{}, nil, testAddressVersion, 15, nil)

	_, err := p.AddressView(context.Background(), models.Snapshot{TipHeight: 10}, addr, 1, 15)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddressViewBalanceEqualsUTXOSum(t *testing.T) {
	addr := testAddress(2)
	node := &fakeLedgerNode{
		tip: 100,
		balances: map[string]*rpc.AddressBalance{
			// Node balance disagrees with its own UTXO set; the sum wins.
			addr: {Balance: 999},
		},
		utxos: map[string][]rpc.AddressUTXO{
			addr: {
				{TxID: "t1", OutputIndex: 0, Value: 300, Height: 90},
				{TxID: "t2", OutputIndex: 1, Value: 450, Height: 95},
			},
		},
	}
	p := NewProjector(node, &fakeChain{}, nil, testAddressVersion, 15, nil)

	snap := models.Snapshot{TipHeight: 100}
	view, err := p.AddressView(context.Background(), snap, addr, 1, 15)
	require.NoError(t, err)
	assert.Equal(t, int64(750), view.Balance)
	assert.Len(t, view.UTXOs, 2)
}

func TestAddressViewHistoryOrderingAndPagination(t *testing.T) {
	addr := testAddress(3)
	other := testAddress(4)

	confirmedLow := &models.Transaction{
		TxID: "low", BlockHash: "b10", BlockHeight: 10,
		Outputs: []models.TxOutput{{Index: 0, Value: 100, Address: addr}},
	}
	confirmedHigh := &models.Transaction{
		TxID: "high", BlockHash: "b90", BlockHeight: 90,
		Inputs:  []models.TxInput{{PrevTxID: "low", Value: 100, Address: addr}},
		Outputs: []models.TxOutput{{Index: 0, Value: 80, Address: other}},
	}
	pending := &models.Transaction{
		TxID: "mem", BlockHeight: -1,
		Outputs: []models.TxOutput{{Index: 0, Value: 50, Address: addr}},
	}
	unrelated := &models.Transaction{
		TxID: "noise", BlockHash: "b20", BlockHeight: 20,
		Outputs: []models.TxOutput{{Index: 0, Value: 1, Address: other}},
	}

	node := &fakeLedgerNode{
		tip:      100,
		balances: map[string]*rpc.AddressBalance{addr: {Balance: 50}},
		utxos:    map[string][]rpc.AddressUTXO{addr: {{TxID: "mem", Value: 50}}},
		txRefs: map[string][]rpc.AddressTxRef{
			addr: {
				{TxID: "low", Height: 10, BlockHash: "b10"},
				{TxID: "mem", Height: -1},
				{TxID: "noise", Height: 20, BlockHash: "b20"},
				{TxID: "high", Height: 90, BlockHash: "b90"},
			},
		},
	}
	chain := &fakeChain{txs: map[string]*models.Transaction{
		"low": confirmedLow, "high": confirmedHigh, "mem": pending, "noise": unrelated,
	}}
	p := NewProjector(node, chain, nil, testAddressVersion, 15, nil)

	snap := models.Snapshot{TipHeight: 100}
	view, err := p.AddressView(context.Background(), snap, addr, 1, 10)
	require.NoError(t, err)

	// "noise" never touches the address and is dropped.
	require.Len(t, view.History, 3)
	assert.Equal(t, "mem", view.History[0].TxID, "pending entries come first")
	assert.True(t, view.History[0].Pending)
	assert.Equal(t, "high", view.History[1].TxID)
	assert.Equal(t, "low", view.History[2].TxID)

	// Confirmations derive from the request snapshot.
	assert.Equal(t, int64(100-90+1), view.History[1].Confirmations)
	assert.Equal(t, int64(0), view.History[0].Confirmations)

	// Net flow per entry.
	assert.Equal(t, int64(50), view.History[0].Net)
	assert.Equal(t, int64(-100), view.History[1].Net)
	assert.Equal(t, int64(100), view.History[2].Net)

	assert.False(t, view.HasNext)
	assert.False(t, view.HasPrev)
}

func TestAddressViewHasNextLookahead(t *testing.T) {
	addr := testAddress(5)
	txs := make(map[string]*models.Transaction)
	var refs []rpc.AddressTxRef
	for i := 0; i < 4; i++ {
		id := string(rune('a' + i))
		txs[id] = &models.Transaction{
			TxID: id, BlockHash: "b", BlockHeight: int64(i),
			Outputs: []models.TxOutput{{Index: 0, Value: 10, Address: addr}},
		}
		refs = append(refs, rpc.AddressTxRef{TxID: id, Height: int64(i)})
	}
	node := &fakeLedgerNode{
		tip:      50,
		balances: map[string]*rpc.AddressBalance{addr: {Balance: 40}},
		utxos:    map[string][]rpc.AddressUTXO{addr: {{TxID: "a", Value: 40}}},
		txRefs:   map[string][]rpc.AddressTxRef{addr: refs},
	}
	p := NewProjector(node, &fakeChain{txs: txs}, nil, testAddressVersion, 15, nil)
	snap := models.Snapshot{TipHeight: 50}

	page1, err := p.AddressView(context.Background(), snap, addr, 1, 3)
	require.NoError(t, err)
	assert.Len(t, page1.History, 3)
	assert.True(t, page1.HasNext)
	assert.False(t, page1.HasPrev)

	page2, err := p.AddressView(context.Background(), snap, addr, 2, 3)
	require.NoError(t, err)
	assert.Len(t, page2.History, 1)
	assert.False(t, page2.HasNext)
	assert.True(t, page2.HasPrev)
}

func TestAddressViewMemoizedPerTip(t *testing.T) {
	addr := testAddress(6)
	node := &fakeLedgerNode{
		tip:      100,
		balances: map[string]*rpc.AddressBalance{addr: {Balance: 10}},
		utxos:    map[string][]rpc.AddressUTXO{addr: {{TxID: "t1", Value: 10}}},
	}
	p := NewProjector(node, &fakeChain{}, nil, testAddressVersion, 15, nil)

	snap := models.Snapshot{TipHeight: 100}
	first, err := p.AddressView(context.Background(), snap, addr, 1, 15)
	require.NoError(t, err)

	// Underlying data moves but the tip has not; the memoized page answers.
	node.utxos[addr] = append(node.utxos[addr], rpc.AddressUTXO{TxID: "t2", Value: 99})
	again, err := p.AddressView(context.Background(), snap, addr, 1, 15)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	// A new tip produces a fresh projection.
	fresh, err := p.AddressView(context.Background(), models.Snapshot{TipHeight: 101}, addr, 1, 15)
	require.NoError(t, err)
	assert.Equal(t, int64(109), fresh.Balance)
}

func TestBlockByHeightBeyondTip(t *testing.T) {
	chain := &fakeChain{byH: map[int64]*models.Block{5: {Hash: "b5", Height: 5}}}
	p := NewProjector(&fakeLedgerNode{}, chain, nil, testAddressVersion, 15, nil)
	snap := models.Snapshot{TipHeight: 10}

	_, err := p.BlockByHeight(context.Background(), snap, 11)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = p.BlockByHeight(context.Background(), snap, -1)
	assert.ErrorIs(t, err, ErrNotFound)

	b, err := p.BlockByHeight(context.Background(), snap, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(6), b.Confirmations)
}

func TestSnapshotObservesTip(t *testing.T) {
	node := &fakeLedgerNode{tip: 42, bestHash: "besthash"}
	obs := &tipRecorder{}
	p := NewProjector(node, &fakeChain{}, obs, testAddressVersion, 15, nil)

	snap, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), snap.TipHeight)
	assert.Equal(t, "besthash", snap.BestHash)
	assert.Equal(t, []int64{42}, obs.seen)
	assert.Equal(t, []string{"besthash"}, obs.hashes)
}

type tipRecorder struct {
	seen   []int64
	hashes []string
}

func (r *tipRecorder) ObserveTip(height int64, bestHash string) {
	r.seen = append(r.seen, height)
	r.hashes = append(r.hashes, bestHash)
}
