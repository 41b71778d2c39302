package aggregate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thanhnp/baseline-explorer/internal/rpc"
)

type fakeMempoolNode struct {
	entries map[string]rpc.MempoolEntry
	err     error
}

func (f *fakeMempoolNode) GetRawMempoolVerbose(context.Context) (map[string]rpc.MempoolEntry, error) {
	return f.entries, f.err
}

func TestMempoolSnapshot(t *testing.T) {
	node := &fakeMempoolNode{entries: map[string]rpc.MempoolEntry{
		"t1": {Size: 100, Fee: 50},    // 0 liners/byte
		"t2": {Size: 100, Fee: 300},   // 3
		"t3": {Size: 100, Fee: 700},   // 7
		"t4": {Size: 100, Fee: 2000},  // 20
		"t5": {Size: 10, Fee: 600},    // 60
		"t6": {Size: 10, Fee: 5000},   // 500
		"t7": {Size: 0, Fee: 10},      // unusable for the distribution
	}}
	m := NewMonitor(node, nil)

	stats, err := m.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, stats.TxCount)
	assert.Equal(t, int64(8660), stats.TotalFee)
	assert.Equal(t, int64(420), stats.TotalSize)
	assert.False(t, stats.Stale)

	counts := map[string]int{}
	var bucketTotal int
	for _, b := range stats.FeeRates {
		counts[b.Label] = b.Count
		bucketTotal += b.Count
	}
	assert.Equal(t, 1, counts["0-1"])
	assert.Equal(t, 1, counts["1-5"])
	assert.Equal(t, 1, counts["5-10"])
	assert.Equal(t, 1, counts["10-50"])
	assert.Equal(t, 1, counts["50-100"])
	assert.Equal(t, 1, counts["100+"])
	assert.Equal(t, 6, bucketTotal, "zero-size entry stays out of the buckets")
}

func TestMempoolSnapshotStaleFallback(t *testing.T) {
	node := &fakeMempoolNode{entries: map[string]rpc.MempoolEntry{
		"t1": {Size: 100, Fee: 500},
	}}
	m := NewMonitor(node, nil)

	first, err := m.Snapshot(context.Background())
	require.NoError(t, err)
	require.False(t, first.Stale)

	node.entries = nil
	node.err = errors.New("connection refused")

	stale, err := m.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, stale.Stale)
	assert.Equal(t, first.TxCount, stale.TxCount)
	assert.Equal(t, first.TotalFee, stale.TotalFee)

	// The retained snapshot itself must not be mutated.
	assert.False(t, first.Stale)
}

func TestMempoolSnapshotNoPriorData(t *testing.T) {
	nodeErr := errors.New("connection refused")
	m := NewMonitor(&fakeMempoolNode{err: nodeErr}, nil)

	_, err := m.Snapshot(context.Background())
	assert.ErrorIs(t, err, nodeErr)
}

func TestMempoolSnapshotEmpty(t *testing.T) {
	m := NewMonitor(&fakeMempoolNode{entries: map[string]rpc.MempoolEntry{}}, nil)

	stats, err := m.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TxCount)
	assert.Zero(t, stats.TotalFee)
	assert.Len(t, stats.FeeRates, 6)
}
