package models

import (
	"time"
)

// FeeRateBucket counts mempool transactions whose fee rate falls inside
// [MinRate, MaxRate) liners per byte. MaxRate 0 means unbounded.
type FeeRateBucket struct {
	Label   string `json:"label"`
	MinRate int64  `json:"min_rate"`
	MaxRate int64  `json:"max_rate"`
	Count   int    `json:"count"`
}

// MempoolStats is a point-in-time summary of the pending transaction set.
// Stale marks a snapshot served from the last successful observation after
// a node failure.
type MempoolStats struct {
	TxCount   int             `json:"tx_count"`
	TotalFee  int64           `json:"total_fee"`  // liners
	TotalSize int64           `json:"total_size"` // bytes
	FeeRates  []FeeRateBucket `json:"fee_rates"`
	Stale     bool            `json:"stale"`
	TakenAt   time.Time       `json:"taken_at"`
}
