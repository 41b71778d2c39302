package aggregate

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/thanhnp/baseline-explorer/internal/models"
)

// ChainSource provides decoded entities. Implemented by the decoder.
type ChainSource interface {
	BlockByHeight(ctx context.Context, height int64) (*models.Block, error)
	Transaction(ctx context.Context, txid, blockHash string) (*models.Transaction, error)
}

// TxSummary is one row of the recent-transactions listing.
type TxSummary struct {
	TxID          string    `json:"txid"`
	BlockHash     string    `json:"block_hash"`
	BlockHeight   int64     `json:"block_height"`
	Timestamp     time.Time `json:"timestamp"`
	Size          int       `json:"size"`
	Fee           int64     `json:"fee"`
	InputSum      int64     `json:"input_sum"`
	OutputSum     int64     `json:"output_sum"`
	IsCoinbase    bool      `json:"is_coinbase"`
	Confirmations int64     `json:"confirmations"`
}

// RecentLister produces the descending-from-tip block and transaction
// listings. All reads derive from the caller's snapshot, so a block
// arriving mid-request cannot shift the window.
type RecentLister struct {
	chain ChainSource
	log   *zap.Logger
}

// NewRecentLister constructs a RecentLister.
func NewRecentLister(chain ChainSource, log *zap.Logger) *RecentLister {
	if log == nil {
		log = zap.NewNop()
	}
	return &RecentLister{chain: chain, log: log}
}

// Blocks returns the page'th window of blocks walking down from the
// snapshot tip. partial reports that at least one block failed to load and
// was omitted.
func (l *RecentLister) Blocks(ctx context.Context, snap models.Snapshot, page, pageSize int) (blocks []*models.Block, hasNext, partial bool, err error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	start := snap.TipHeight - int64((page-1)*pageSize)
	for offset := 0; offset < pageSize; offset++ {
		height := start - int64(offset)
		if height < 0 {
			break
		}
		b, blockErr := l.chain.BlockByHeight(ctx, height)
		if blockErr != nil {
			l.log.Warn("skipping unreadable block in listing",
				zap.Int64("height", height), zap.Error(blockErr))
			partial = true
			continue
		}
		withConfs := *b
		withConfs.Confirmations = snap.Confirmations(b.Height)
		blocks = append(blocks, &withConfs)
	}
	hasNext = start-int64(pageSize) >= 0
	if len(blocks) == 0 && partial {
		return nil, hasNext, true, nil
	}
	return blocks, hasNext, partial, nil
}

// Transactions walks blocks downward from the snapshot tip collecting
// decoded transactions until the requested window is filled. Transactions
// that fail to decode are logged and omitted rather than failing the page.
func (l *RecentLister) Transactions(ctx context.Context, snap models.Snapshot, page, pageSize int) (txs []TxSummary, hasNext, partial bool, err error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	offset := (page - 1) * pageSize
	want := offset + pageSize + 1 // look-ahead for hasNext

	collected := make([]TxSummary, 0, want)
	for height := snap.TipHeight; height >= 0 && len(collected) < want; height-- {
		block, blockErr := l.chain.BlockByHeight(ctx, height)
		if blockErr != nil {
			l.log.Warn("skipping unreadable block in transaction listing",
				zap.Int64("height", height), zap.Error(blockErr))
			partial = true
			continue
		}
		for _, txid := range block.TxIDs {
			if len(collected) >= want {
				break
			}
			tx, txErr := l.chain.Transaction(ctx, txid, block.Hash)
			if txErr != nil {
				l.log.Warn("skipping undecodable transaction in listing",
					zap.String("txid", txid), zap.Error(txErr))
				partial = true
				continue
			}
			collected = append(collected, TxSummary{
				TxID:          tx.TxID,
				BlockHash:     block.Hash,
				BlockHeight:   block.Height,
				Timestamp:     block.Timestamp,
				Size:          tx.Size,
				Fee:           tx.Fee,
				InputSum:      tx.InputSum(),
				OutputSum:     tx.OutputSum(),
				IsCoinbase:    tx.IsCoinbase,
				Confirmations: snap.Confirmations(block.Height),
			})
		}
	}

	if offset >= len(collected) {
		return nil, false, partial, nil
	}
	window, hasNext, _ := Window(collected[offset:], page, pageSize)
	return window, hasNext, partial, nil
}
