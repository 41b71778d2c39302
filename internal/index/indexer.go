package index

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"

	"github.com/thanhnp/baseline-explorer/internal/config"
	"github.com/thanhnp/baseline-explorer/internal/decoder"
	"github.com/thanhnp/baseline-explorer/internal/models"
	"github.com/thanhnp/baseline-explorer/internal/storage"
)

// catchupThreshold is how many blocks behind the tip we switch the store
// to unsynced writes.
const catchupThreshold = 100

// syncCheckpoint is how often (in blocks) the store is flushed while in
// catch-up mode.
const syncCheckpoint = 1000

// NodeClient is the slice of the RPC surface the indexer polls.
type NodeClient interface {
	GetBlockCount(ctx context.Context) (int64, error)
	GetBlockHash(ctx context.Context, height int64) (string, error)
}

// ChainSource provides decoded blocks and transactions. Implemented by
// the decoder.
type ChainSource interface {
	BlockByHash(ctx context.Context, hash string) (*models.Block, error)
	BlockByHeight(ctx context.Context, height int64) (*models.Block, error)
	Transaction(ctx context.Context, txid, blockHash string) (*models.Transaction, error)
}

// Indexer maintains the local balance index by tailing the chain. It polls
// the node tip, applies new blocks as balance deltas, detects reorgs by
// comparing stored block hashes against the node's, and rewinds with the
// stored undo records before re-applying the winning branch.
type Indexer struct {
	node    NodeClient
	chain   ChainSource
	db      *storage.PebbleDB
	store   *storage.BalanceStore
	syncs   *storage.SyncStore
	limiter ratelimit.Limiter
	cfg     config.IndexConfig
	log     *zap.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New constructs an Indexer over an open database.
func New(node NodeClient, chain ChainSource, db *storage.PebbleDB, cfg config.IndexConfig, log *zap.Logger) *Indexer {
	if log == nil {
		log = zap.NewNop()
	}
	rate := cfg.RPCRateLimit
	if rate <= 0 {
		rate = 50
	}
	return &Indexer{
		node:    node,
		chain:   chain,
		db:      db,
		store:   storage.NewBalanceStore(db),
		syncs:   storage.NewSyncStore(db),
		limiter: ratelimit.New(rate),
		cfg:     cfg,
		log:     log,
	}
}

// Store exposes the balance store for read-side consumers.
func (ix *Indexer) Store() *storage.BalanceStore {
	return ix.store
}

// Start launches the background sync loop.
func (ix *Indexer) Start(ctx context.Context) {
	ctx, ix.cancel = context.WithCancel(ctx)
	interval := time.Duration(ix.cfg.PollInterval) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}

	ix.wg.Add(1)
	go func() {
		defer ix.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		if err := ix.syncOnce(ctx); err != nil && ctx.Err() == nil {
			ix.log.Error("index sync failed", zap.Error(err))
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := ix.syncOnce(ctx); err != nil && ctx.Err() == nil {
					ix.log.Error("index sync failed", zap.Error(err))
				}
			}
		}
	}()
}

// Stop cancels the sync loop and waits for it to finish.
func (ix *Indexer) Stop() {
	if ix.cancel != nil {
		ix.cancel()
	}
	ix.wg.Wait()
}

// syncOnce brings the index up to the current node tip.
func (ix *Indexer) syncOnce(ctx context.Context) error {
	tip, err := ix.node.GetBlockCount(ctx)
	if err != nil {
		return fmt.Errorf("tip poll: %w", err)
	}

	state, err := ix.syncs.Get()
	if err != nil {
		return err
	}
	if state.Height >= 0 {
		if state, err = ix.rewindForks(ctx, state); err != nil {
			return err
		}
	}

	next := state.Height + 1
	if next < ix.cfg.StartHeight {
		next = ix.cfg.StartHeight
	}
	if next > tip {
		return nil
	}

	behind := tip - next + 1
	catchup := behind > catchupThreshold
	if catchup {
		ix.db.SetCatchupMode(true)
		defer func() {
			ix.db.SetCatchupMode(false)
			if syncErr := ix.db.Sync(); syncErr != nil {
				ix.log.Error("index flush failed", zap.Error(syncErr))
			}
		}()
		ix.log.Info("index catching up",
			zap.Int64("from", next), zap.Int64("tip", tip), zap.Int64("behind", behind))
	}

	for height := next; height <= tip; height++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ix.limiter.Take()
		if err := ix.applyHeight(ctx, height); err != nil {
			return fmt.Errorf("apply height %d: %w", height, err)
		}
		if catchup && (height-next+1)%syncCheckpoint == 0 {
			if err := ix.db.Sync(); err != nil {
				return err
			}
			ix.log.Info("index checkpoint", zap.Int64("height", height), zap.Int64("tip", tip))
		}
	}
	ix.log.Debug("index synced", zap.Int64("tip", tip))
	return nil
}

// rewindForks walks the stored tip back until the stored hash matches the
// node's hash for the same height, undoing each orphaned block.
func (ix *Indexer) rewindForks(ctx context.Context, state storage.SyncState) (storage.SyncState, error) {
	for state.Height >= 0 && state.Height >= ix.cfg.StartHeight {
		ix.limiter.Take()
		nodeHash, err := ix.node.GetBlockHash(ctx, state.Height)
		if err != nil {
			return state, fmt.Errorf("fork check at %d: %w", state.Height, err)
		}
		if nodeHash == state.Hash {
			return state, nil
		}
		ix.log.Warn("reorg detected, rewinding block",
			zap.Int64("height", state.Height),
			zap.String("stored", state.Hash), zap.String("node", nodeHash))
		if err := ix.store.RewindBlock(state.Height); err != nil {
			return state, err
		}
		if state, err = ix.syncs.Get(); err != nil {
			return state, err
		}
	}
	return state, nil
}

// applyHeight decodes one block into balance deltas and commits it.
func (ix *Indexer) applyHeight(ctx context.Context, height int64) error {
	block, err := ix.chain.BlockByHeight(ctx, height)
	if err != nil {
		return err
	}

	var deltas []storage.AddressDelta
	spenders := make(map[storage.Outpoint]string)
	for _, txid := range block.TxIDs {
		tx, txErr := ix.chain.Transaction(ctx, txid, block.Hash)
		if txErr != nil {
			if decoder.IsMalformed(txErr) {
				ix.log.Warn("skipping malformed transaction in index",
					zap.String("txid", txid), zap.Int64("height", height), zap.Error(txErr))
				continue
			}
			return txErr
		}
		txDeltas, txSpends, applyErr := ix.transactionDeltas(tx, spenders)
		if applyErr != nil {
			ix.log.Error("skipping transaction violating spend rules",
				zap.String("txid", txid), zap.Int64("height", height), zap.Error(applyErr))
			continue
		}
		deltas = append(deltas, txDeltas...)
		for out, spender := range txSpends {
			spenders[out] = spender
		}
	}

	return ix.store.ApplyBlock(height, block.Hash, deltas, spenders)
}

// transactionDeltas turns one decoded transaction into balance deltas and
// spent outpoints. A spend of an outpoint already consumed, whether in a
// prior block or earlier in this one, is an error.
func (ix *Indexer) transactionDeltas(tx *models.Transaction, pending map[storage.Outpoint]string) ([]storage.AddressDelta, map[storage.Outpoint]string, error) {
	var deltas []storage.AddressDelta
	spenders := make(map[storage.Outpoint]string)

	for _, in := range tx.Inputs {
		if in.IsCoinbase {
			continue
		}
		out := storage.Outpoint{TxID: in.PrevTxID, Vout: in.PrevVoutIdx}
		if spender, spent, err := ix.store.SpentBy(out); err != nil {
			return nil, nil, err
		} else if spent {
			return nil, nil, fmt.Errorf("outpoint %s:%d already spent by %s",
				out.TxID, out.Vout, spender)
		}
		if spender, dup := pending[out]; dup {
			return nil, nil, fmt.Errorf("outpoint %s:%d already spent by %s in this block",
				out.TxID, out.Vout, spender)
		}
		if _, dup := spenders[out]; dup {
			return nil, nil, fmt.Errorf("outpoint %s:%d spent twice in one transaction",
				out.TxID, out.Vout)
		}
		spenders[out] = tx.TxID
		if in.Address != "" {
			deltas = append(deltas, storage.AddressDelta{Address: in.Address, Delta: -in.Value})
		}
	}
	for _, out := range tx.Outputs {
		if out.Address != "" {
			deltas = append(deltas, storage.AddressDelta{Address: out.Address, Delta: out.Value})
		}
	}
	return deltas, spenders, nil
}
