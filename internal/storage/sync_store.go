package storage

import (
	"encoding/json"
	"fmt"
)

var syncStateKey = []byte("tip")

// SyncState records the last block applied to the balance index.
type SyncState struct {
	Height int64  `json:"height"` // -1 means nothing applied yet
	Hash   string `json:"hash"`
}

// SyncStore handles sync state storage operations
type SyncStore struct {
	db *PebbleDB
}

// NewSyncStore creates a new SyncStore
func NewSyncStore(db *PebbleDB) *SyncStore {
	return &SyncStore{db: db}
}

// Get retrieves the last applied sync state. Height is -1 when no state
// exists yet.
func (s *SyncStore) Get() (SyncState, error) {
	data, err := s.db.Get(CFSyncState, syncStateKey)
	if err != nil {
		return SyncState{}, err
	}
	if data == nil {
		return SyncState{Height: -1}, nil
	}

	var state SyncState
	if err := json.Unmarshal(data, &state); err != nil {
		return SyncState{}, fmt.Errorf("failed to parse sync state: %w", err)
	}
	return state, nil
}

// Set stores the sync state.
func (s *SyncStore) Set(state SyncState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal sync state: %w", err)
	}
	return s.db.Put(CFSyncState, syncStateKey, data)
}

// putSyncState stages the sync state into an open batch.
func putSyncState(db *PebbleDB, batch *WriteBatch, state SyncState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal sync state: %w", err)
	}
	return db.PutBatch(batch, CFSyncState, syncStateKey, data)
}
