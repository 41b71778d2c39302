package models

import (
	"time"
)

// Snapshot pins the node state observed at the start of a request. Every
// component on a request's call chain derives confirmations and pagination
// from the same snapshot instead of re-reading the tip mid-request, so a
// block arriving mid-request cannot mix pre- and post-advance data.
type Snapshot struct {
	TipHeight int64     `json:"tip_height"`
	BestHash  string    `json:"best_hash"`
	TakenAt   time.Time `json:"taken_at"`
}

// Confirmations returns the confirmation count at this snapshot for a
// transaction or block at blockHeight, or 0 if unconfirmed.
func (s Snapshot) Confirmations(blockHeight int64) int64 {
	if blockHeight < 0 || blockHeight > s.TipHeight {
		return 0
	}
	return s.TipHeight - blockHeight + 1
}
