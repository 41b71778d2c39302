package aggregate

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/thanhnp/baseline-explorer/internal/models"
	"github.com/thanhnp/baseline-explorer/internal/rpc"
)

// MempoolNode is the slice of the RPC surface the monitor needs.
type MempoolNode interface {
	GetRawMempoolVerbose(ctx context.Context) (map[string]rpc.MempoolEntry, error)
}

// feeRateBounds are the fee-rate histogram bucket edges in liners per
// byte. The last bucket is open-ended.
var feeRateBounds = []struct {
	label    string
	min, max int64
}{
	{"0-1", 0, 1},
	{"1-5", 1, 5},
	{"5-10", 5, 10},
	{"10-50", 10, 50},
	{"50-100", 50, 100},
	{"100+", 100, 0},
}

// Monitor summarizes the pending transaction set. Every Snapshot call
// recomputes from the node; the mempool is too volatile to cache. When the
// node is down the last successful snapshot is returned marked stale.
type Monitor struct {
	node MempoolNode
	log  *zap.Logger

	mu   sync.Mutex
	last *models.MempoolStats
}

// NewMonitor constructs a mempool Monitor.
func NewMonitor(node MempoolNode, log *zap.Logger) *Monitor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Monitor{node: node, log: log}
}

// Snapshot recomputes the mempool summary. On node failure it degrades to
// the last successful snapshot with Stale set; with no prior snapshot the
// error is surfaced.
func (m *Monitor) Snapshot(ctx context.Context) (*models.MempoolStats, error) {
	entries, err := m.node.GetRawMempoolVerbose(ctx)
	if err != nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.last == nil {
			return nil, err
		}
		m.log.Warn("mempool unavailable, serving last snapshot", zap.Error(err))
		stale := *m.last
		stale.Stale = true
		return &stale, nil
	}

	stats := &models.MempoolStats{
		TxCount: len(entries),
		TakenAt: time.Now().UTC(),
	}
	counts := make([]int, len(feeRateBounds))
	for _, e := range entries {
		stats.TotalFee += e.Fee
		stats.TotalSize += e.Size
		if e.Size <= 0 {
			// Counted in TxCount but unusable for the distribution.
			continue
		}
		// Truncating integer division is intended: buckets are whole
		// liners per byte, so the sub-liner remainder never moves an
		// entry across a bound.
		rate := e.Fee / e.Size
		for i, b := range feeRateBounds {
			if rate >= b.min && (b.max == 0 || rate < b.max) {
				counts[i]++
				break
			}
		}
	}
	for i, b := range feeRateBounds {
		stats.FeeRates = append(stats.FeeRates, models.FeeRateBucket{
			Label:   b.label,
			MinRate: b.min,
			MaxRate: b.max,
			Count:   counts[i],
		})
	}

	m.mu.Lock()
	m.last = stats
	m.mu.Unlock()
	return stats, nil
}
