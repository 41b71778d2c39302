package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/thanhnp/baseline-explorer/internal/models"
)

// AddressDelta is a signed balance change for one address.
type AddressDelta struct {
	Address string `json:"address"`
	Delta   int64  `json:"delta"` // liners
}

// Outpoint identifies a transaction output.
type Outpoint struct {
	TxID string `json:"txid"`
	Vout int    `json:"vout"`
}

// UndoRecord holds everything needed to reverse one applied block.
type UndoRecord struct {
	Hash   string         `json:"hash"`
	Deltas []AddressDelta `json:"deltas"`
	Spends []Outpoint     `json:"spends"`
}

// BalanceStore maintains the incrementally projected per-address balances,
// the spent-outpoint set, and per-height undo records. A block is applied
// or rewound in one atomic batch together with the sync state, so the
// index never observes a half-applied block.
type BalanceStore struct {
	db *PebbleDB
}

// NewBalanceStore creates a new BalanceStore
func NewBalanceStore(db *PebbleDB) *BalanceStore {
	return &BalanceStore{db: db}
}

func undoKey(height int64) []byte {
	return []byte(fmt.Sprintf("%012d", height))
}

func spentKey(out Outpoint) []byte {
	return []byte(fmt.Sprintf("%s:%06d", out.TxID, out.Vout))
}

// Balance returns the indexed balance of an address (0 when unknown).
func (s *BalanceStore) Balance(address string) (int64, error) {
	data, err := s.db.Get(CFBalances, []byte(address))
	if err != nil {
		return 0, err
	}
	if data == nil {
		return 0, nil
	}
	balance, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse balance for %s: %w", address, err)
	}
	return balance, nil
}

// SpentBy returns the txid that spent the outpoint, if any.
func (s *BalanceStore) SpentBy(out Outpoint) (string, bool, error) {
	data, err := s.db.Get(CFSpent, spentKey(out))
	if err != nil {
		return "", false, err
	}
	if data == nil {
		return "", false, nil
	}
	return string(data), true, nil
}

// ApplyBlock applies a block's balance deltas and spends atomically,
// records the undo data for the height, and advances the sync state.
// spenders maps each spent outpoint to the spending txid.
func (s *BalanceStore) ApplyBlock(height int64, hash string, deltas []AddressDelta, spenders map[Outpoint]string) error {
	batch := s.db.NewBatch()
	defer batch.Destroy()

	merged := mergeDeltas(deltas)
	for _, d := range merged {
		balance, err := s.Balance(d.Address)
		if err != nil {
			return err
		}
		if err := s.putBalance(batch, d.Address, balance+d.Delta); err != nil {
			return err
		}
	}

	spends := make([]Outpoint, 0, len(spenders))
	for out, spender := range spenders {
		spends = append(spends, out)
		if err := s.db.PutBatch(batch, CFSpent, spentKey(out), []byte(spender)); err != nil {
			return err
		}
	}

	undo := UndoRecord{Hash: hash, Deltas: merged, Spends: spends}
	undoData, err := json.Marshal(undo)
	if err != nil {
		return fmt.Errorf("failed to marshal undo record: %w", err)
	}
	if err := s.db.PutBatch(batch, CFUndo, undoKey(height), undoData); err != nil {
		return err
	}

	if err := putSyncState(s.db, batch, SyncState{Height: height, Hash: hash}); err != nil {
		return err
	}
	return s.db.WriteBatch(batch)
}

// RewindBlock reverses the block applied at height using its undo record
// and steps the sync state back to height-1.
func (s *BalanceStore) RewindBlock(height int64) error {
	data, err := s.db.Get(CFUndo, undoKey(height))
	if err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("no undo record at height %d", height)
	}
	var undo UndoRecord
	if err := json.Unmarshal(data, &undo); err != nil {
		return fmt.Errorf("failed to unmarshal undo record: %w", err)
	}

	batch := s.db.NewBatch()
	defer batch.Destroy()

	for _, d := range undo.Deltas {
		balance, err := s.Balance(d.Address)
		if err != nil {
			return err
		}
		if err := s.putBalance(batch, d.Address, balance-d.Delta); err != nil {
			return err
		}
	}
	for _, out := range undo.Spends {
		if err := s.db.DeleteBatch(batch, CFSpent, spentKey(out)); err != nil {
			return err
		}
	}
	if err := s.db.DeleteBatch(batch, CFUndo, undoKey(height)); err != nil {
		return err
	}

	prev := SyncState{Height: height - 1}
	if prevData, err := s.db.Get(CFUndo, undoKey(height - 1)); err != nil {
		return err
	} else if prevData != nil {
		var prevUndo UndoRecord
		if err := json.Unmarshal(prevData, &prevUndo); err != nil {
			return fmt.Errorf("failed to unmarshal undo record: %w", err)
		}
		prev.Hash = prevUndo.Hash
	}
	if err := putSyncState(s.db, batch, prev); err != nil {
		return err
	}
	return s.db.WriteBatch(batch)
}

func (s *BalanceStore) putBalance(batch *WriteBatch, address string, balance int64) error {
	if balance == 0 {
		return s.db.DeleteBatch(batch, CFBalances, []byte(address))
	}
	return s.db.PutBatch(batch, CFBalances, []byte(address), []byte(strconv.FormatInt(balance, 10)))
}

// TopBalances returns the [offset, offset+limit) window of indexed
// balances ranked descending, ties broken by ascending address. Zero and
// negative balances never appear.
func (s *BalanceStore) TopBalances(limit, offset int) ([]models.RichListEntry, error) {
	if limit < 1 {
		limit = 1
	}
	if offset < 0 {
		offset = 0
	}

	iter, err := s.db.NewIterator(CFBalances)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	type row struct {
		address string
		balance int64
	}
	var rows []row
	for ; iter.Valid(); iter.Next() {
		balance, parseErr := strconv.ParseInt(string(iter.Value()), 10, 64)
		if parseErr != nil {
			return nil, fmt.Errorf("failed to parse balance for %s: %w", string(iter.Key()), parseErr)
		}
		if balance <= 0 {
			continue
		}
		rows = append(rows, row{address: string(iter.Key()), balance: balance})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].balance != rows[j].balance {
			return rows[i].balance > rows[j].balance
		}
		return rows[i].address < rows[j].address
	})

	if offset >= len(rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	entries := make([]models.RichListEntry, 0, end-offset)
	for i, r := range rows[offset:end] {
		entries = append(entries, models.RichListEntry{
			Rank:    offset + i + 1,
			Address: r.address,
			Balance: r.balance,
		})
	}
	return entries, nil
}

// mergeDeltas collapses repeated addresses so an undo record holds one
// delta per address.
func mergeDeltas(deltas []AddressDelta) []AddressDelta {
	byAddr := make(map[string]int64, len(deltas))
	order := make([]string, 0, len(deltas))
	for _, d := range deltas {
		if _, seen := byAddr[d.Address]; !seen {
			order = append(order, d.Address)
		}
		byAddr[d.Address] += d.Delta
	}
	merged := make([]AddressDelta, 0, len(order))
	for _, addr := range order {
		if byAddr[addr] == 0 {
			continue
		}
		merged = append(merged, AddressDelta{Address: addr, Delta: byAddr[addr]})
	}
	return merged
}
