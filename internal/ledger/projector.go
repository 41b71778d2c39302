package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"

	"github.com/thanhnp/baseline-explorer/internal/decoder"
	"github.com/thanhnp/baseline-explorer/internal/models"
	"github.com/thanhnp/baseline-explorer/internal/rpc"
)

const (
	pageMemoTTL      = 30 * time.Second
	pageMemoCapacity = 1024
)

// NodeClient is the slice of the RPC surface the projector needs.
type NodeClient interface {
	GetBlockchainInfo(ctx context.Context) (*rpc.ChainInfo, error)
	GetAddressBalance(ctx context.Context, address string) (*rpc.AddressBalance, error)
	GetAddressTxIDs(ctx context.Context, address string, limit, offset int) ([]rpc.AddressTxRef, error)
	GetAddressUTXOs(ctx context.Context, address string) ([]rpc.AddressUTXO, error)
}

// ChainSource provides decoded entities. Implemented by the decoder.
type ChainSource interface {
	BlockByHash(ctx context.Context, hash string) (*models.Block, error)
	BlockByHeight(ctx context.Context, height int64) (*models.Block, error)
	Transaction(ctx context.Context, txid, blockHash string) (*models.Transaction, error)
}

// TipObserver learns the tip height seen at the start of each request.
// Implemented by the decoder cache.
type TipObserver interface {
	ObserveTip(height int64, bestHash string)
}

// Projector derives address views and entity details from the node,
// threading one tip snapshot through each request. Views are memoized per
// (address, page, tip height), so pagination is stable until the chain
// moves, at which point the stale windows simply stop being addressed.
type Projector struct {
	node            NodeClient
	chain           ChainSource
	tips            TipObserver
	addressVersion  byte
	defaultPageSize int
	pages           *ttlcache.Cache[string, *models.AddressView]
	log             *zap.Logger
}

// NewProjector constructs a Projector.
func NewProjector(node NodeClient, chain ChainSource, tips TipObserver, addressVersion byte, defaultPageSize int, log *zap.Logger) *Projector {
	if defaultPageSize <= 0 {
		defaultPageSize = 15
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Projector{
		node:            node,
		chain:           chain,
		tips:            tips,
		addressVersion:  addressVersion,
		defaultPageSize: defaultPageSize,
		pages: ttlcache.New[string, *models.AddressView](
			ttlcache.WithTTL[string, *models.AddressView](pageMemoTTL),
			ttlcache.WithCapacity[string, *models.AddressView](pageMemoCapacity),
		),
		log: log,
	}
}

// Snapshot reads the node tip once. Callers hold the result for the whole
// request; nothing downstream re-reads the tip.
func (p *Projector) Snapshot(ctx context.Context) (models.Snapshot, error) {
	info, err := p.node.GetBlockchainInfo(ctx)
	if err != nil {
		return models.Snapshot{}, err
	}
	snap := models.Snapshot{
		TipHeight: info.Blocks,
		BestHash:  info.BestBlockHash,
		TakenAt:   time.Now().UTC(),
	}
	if p.tips != nil {
		p.tips.ObserveTip(snap.TipHeight, snap.BestHash)
	}
	return snap, nil
}

// AddressView assembles the paginated projection of one address at the
// given snapshot: balance, UTXO set, and history. The returned view is
// internally consistent: balance equals the sum of the UTXO values, and
// every history entry moves value in or out of this address.
func (p *Projector) AddressView(ctx context.Context, snap models.Snapshot, address string, page, pageSize int) (*models.AddressView, error) {
	if !decoder.ValidAddress(address, p.addressVersion) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, address)
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = p.defaultPageSize
	}

	memoKey := fmt.Sprintf("%s|%d|%d|%d", address, page, pageSize, snap.TipHeight)
	if item := p.pages.Get(memoKey); item != nil {
		return item.Value(), nil
	}

	bal, err := p.node.GetAddressBalance(ctx, address)
	if err != nil {
		if _, ok := rpc.IsNodeError(err); ok {
			return nil, fmt.Errorf("%w: address %s", ErrNotFound, address)
		}
		return nil, err
	}

	utxos, err := p.node.GetAddressUTXOs(ctx, address)
	if err != nil {
		if _, ok := rpc.IsNodeError(err); ok {
			return nil, fmt.Errorf("%w: address %s", ErrNotFound, address)
		}
		return nil, err
	}

	view := &models.AddressView{
		Address:  address,
		Page:     page,
		PageSize: pageSize,
		HasPrev:  page > 1,
	}
	var utxoSum int64
	for _, u := range utxos {
		height := u.Height
		if height == 0 {
			height = -1
		}
		view.UTXOs = append(view.UTXOs, models.UTXO{
			TxID:      u.TxID,
			VoutIndex: u.OutputIndex,
			Value:     u.Value,
			Height:    height,
		})
		utxoSum += u.Value
	}
	// Balance must equal the UTXO sum. When the node's balance index lags
	// its UTXO set mid-block, the UTXO sum wins.
	view.Balance = utxoSum
	if bal.Balance != utxoSum {
		p.log.Warn("node balance disagrees with utxo sum",
			zap.String("address", address),
			zap.Int64("node_balance", bal.Balance),
			zap.Int64("utxo_sum", utxoSum))
	}

	offset := (page - 1) * pageSize
	refs, err := p.node.GetAddressTxIDs(ctx, address, pageSize+1, offset)
	if err != nil {
		if _, ok := rpc.IsNodeError(err); ok {
			return nil, fmt.Errorf("%w: address %s", ErrNotFound, address)
		}
		return nil, err
	}
	view.HasNext = len(refs) > pageSize
	if len(refs) > pageSize {
		refs = refs[:pageSize]
	}

	for _, ref := range refs {
		entry, ok := p.historyEntry(ctx, snap, address, ref)
		if !ok {
			continue
		}
		view.History = append(view.History, entry)
	}
	sortHistory(view.History)

	p.pages.Set(memoKey, view, ttlcache.DefaultTTL)
	return view, nil
}

// historyEntry expands one transaction reference into an address-relative
// history entry. Entities that fail to decode are skipped, not fatal.
func (p *Projector) historyEntry(ctx context.Context, snap models.Snapshot, address string, ref rpc.AddressTxRef) (models.HistoryEntry, bool) {
	tx, err := p.chain.Transaction(ctx, ref.TxID, ref.BlockHash)
	if err != nil {
		p.log.Warn("skipping history transaction",
			zap.String("address", address), zap.String("txid", ref.TxID), zap.Error(err))
		return models.HistoryEntry{}, false
	}

	var received, sent int64
	for _, out := range tx.Outputs {
		if out.Address == address {
			received += out.Value
		}
	}
	for _, in := range tx.Inputs {
		if in.Address == address {
			sent += in.Value
		}
	}
	if received == 0 && sent == 0 {
		// The node claims this tx involves the address but neither side
		// references it; treat as an index glitch and omit.
		p.log.Warn("history transaction does not reference address",
			zap.String("address", address), zap.String("txid", ref.TxID))
		return models.HistoryEntry{}, false
	}

	entry := models.HistoryEntry{
		TxID:        tx.TxID,
		BlockHash:   tx.BlockHash,
		BlockHeight: tx.BlockHeight,
		Timestamp:   tx.Timestamp,
		Received:    received,
		Sent:        sent,
		Net:         received - sent,
		Pending:     !tx.Confirmed(),
	}
	if tx.Confirmed() {
		entry.Confirmations = snap.Confirmations(tx.BlockHeight)
	}
	return entry, true
}

// sortHistory orders entries mempool-first, then by block height
// descending. The sort is stable so same-height entries keep the node's
// in-block ordering.
func sortHistory(entries []models.HistoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Pending != entries[j].Pending {
			return entries[i].Pending
		}
		return entries[i].BlockHeight > entries[j].BlockHeight
	})
}

// BlockByHash returns the block with confirmations derived at snap.
func (p *Projector) BlockByHash(ctx context.Context, snap models.Snapshot, hash string) (*models.Block, error) {
	b, err := p.chain.BlockByHash(ctx, hash)
	if err != nil {
		if _, ok := rpc.IsNodeError(err); ok {
			return nil, fmt.Errorf("%w: block %s", ErrNotFound, hash)
		}
		return nil, err
	}
	withConfs := *b
	withConfs.Confirmations = snap.Confirmations(b.Height)
	return &withConfs, nil
}

// BlockByHeight returns the block at height with confirmations at snap.
func (p *Projector) BlockByHeight(ctx context.Context, snap models.Snapshot, height int64) (*models.Block, error) {
	if height < 0 || height > snap.TipHeight {
		return nil, fmt.Errorf("%w: block height %d", ErrNotFound, height)
	}
	b, err := p.chain.BlockByHeight(ctx, height)
	if err != nil {
		if _, ok := rpc.IsNodeError(err); ok {
			return nil, fmt.Errorf("%w: block height %d", ErrNotFound, height)
		}
		return nil, err
	}
	withConfs := *b
	withConfs.Confirmations = snap.Confirmations(b.Height)
	return &withConfs, nil
}

// Transaction returns the decoded transaction with confirmations at snap.
func (p *Projector) Transaction(ctx context.Context, snap models.Snapshot, txid, blockHint string) (*models.Transaction, error) {
	tx, err := p.chain.Transaction(ctx, txid, blockHint)
	if err != nil {
		if _, ok := rpc.IsNodeError(err); ok {
			return nil, fmt.Errorf("%w: transaction %s", ErrNotFound, txid)
		}
		return nil, err
	}
	withConfs := *tx
	if tx.Confirmed() {
		withConfs.Confirmations = snap.Confirmations(tx.BlockHeight)
	}
	return &withConfs, nil
}
