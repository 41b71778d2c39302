package aggregate

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/thanhnp/baseline-explorer/internal/models"
	"github.com/thanhnp/baseline-explorer/internal/rpc"
)

// RichListNode is the slice of the RPC surface the rich list needs.
type RichListNode interface {
	GetRichList(ctx context.Context, limit, offset int) ([]rpc.RichEntry, error)
}

// BalanceSource is a fallback provider of ranked balances, backed by the
// incremental index. May be nil when the index is disabled.
type BalanceSource interface {
	TopBalances(limit, offset int) ([]models.RichListEntry, error)
}

// RichList serves the ranked balance listing. The node's native rich-list
// RPC is authoritative; when it is unavailable the locally indexed
// balances stand in, flagged as degraded.
type RichList struct {
	node     RichListNode
	fallback BalanceSource
	log      *zap.Logger
}

// NewRichList constructs a RichList aggregator.
func NewRichList(node RichListNode, fallback BalanceSource, log *zap.Logger) *RichList {
	if log == nil {
		log = zap.NewNop()
	}
	return &RichList{node: node, fallback: fallback, log: log}
}

// TopBalances returns entries [offset, offset+limit) ranked by balance
// descending, ties broken by ascending address, zero balances excluded.
// degraded reports that the node RPC failed and the local index answered.
func (r *RichList) TopBalances(ctx context.Context, limit, offset int) (entries []models.RichListEntry, degraded bool, err error) {
	if limit < 1 {
		limit = 1
	}
	if offset < 0 {
		offset = 0
	}

	raw, nodeErr := r.node.GetRichList(ctx, limit, offset)
	if nodeErr == nil {
		return rankEntries(raw, offset), false, nil
	}

	if r.fallback == nil {
		return nil, false, nodeErr
	}
	r.log.Warn("native rich list unavailable, serving indexed balances", zap.Error(nodeErr))
	entries, err = r.fallback.TopBalances(limit, offset)
	if err != nil {
		return nil, false, err
	}
	return entries, true, nil
}

// rankEntries normalizes the node window: zero balances out, deterministic
// order enforced, 1-based ranks assigned from the window offset.
func rankEntries(raw []rpc.RichEntry, offset int) []models.RichListEntry {
	filtered := make([]rpc.RichEntry, 0, len(raw))
	for _, e := range raw {
		if e.Balance > 0 && e.Address != "" {
			filtered = append(filtered, e)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].Balance != filtered[j].Balance {
			return filtered[i].Balance > filtered[j].Balance
		}
		return filtered[i].Address < filtered[j].Address
	})

	entries := make([]models.RichListEntry, 0, len(filtered))
	for i, e := range filtered {
		entries = append(entries, models.RichListEntry{
			Rank:    offset + i + 1,
			Address: e.Address,
			Balance: e.Balance,
		})
	}
	return entries
}
