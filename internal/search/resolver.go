package search

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/thanhnp/baseline-explorer/internal/ledger"
	"github.com/thanhnp/baseline-explorer/internal/models"
)

// Kind classifies what a query resolved to.
type Kind string

const (
	KindBlock       Kind = "block"
	KindTransaction Kind = "transaction"
	KindAddress     Kind = "address"
)

// Result is the resolved entity. Exactly one of the pointers is set,
// matching Kind.
type Result struct {
	Kind        Kind
	Block       *models.Block
	Transaction *models.Transaction
	Address     *models.AddressView
}

// EntitySource is the lookup surface the resolver dispatches to.
// Implemented by the ledger projector.
type EntitySource interface {
	BlockByHeight(ctx context.Context, snap models.Snapshot, height int64) (*models.Block, error)
	BlockByHash(ctx context.Context, snap models.Snapshot, hash string) (*models.Block, error)
	Transaction(ctx context.Context, snap models.Snapshot, txid, blockHint string) (*models.Transaction, error)
	AddressView(ctx context.Context, snap models.Snapshot, address string, page, pageSize int) (*models.AddressView, error)
}

var hex64 = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// Resolver classifies a free-text query and dispatches it to the right
// lookup. Classification order, first hit wins: block height, block hash,
// transaction id, address. A failed lookup falls through to the next
// candidate; only exhausting all of them yields ledger.ErrNotFound.
type Resolver struct {
	source EntitySource
	log    *zap.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(source EntitySource, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{source: source, log: log}
}

// Resolve runs the classification chain for query at the given snapshot.
func (r *Resolver) Resolve(ctx context.Context, snap models.Snapshot, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ledger.ErrNotFound
	}

	if height, err := strconv.ParseInt(query, 10, 64); err == nil && height >= 0 {
		if block, blockErr := r.source.BlockByHeight(ctx, snap, height); blockErr == nil {
			return &Result{Kind: KindBlock, Block: block}, nil
		}
	}

	if hex64.MatchString(query) {
		if block, err := r.source.BlockByHash(ctx, snap, query); err == nil {
			return &Result{Kind: KindBlock, Block: block}, nil
		}
		if tx, err := r.source.Transaction(ctx, snap, query, ""); err == nil {
			return &Result{Kind: KindTransaction, Transaction: tx}, nil
		}
	}

	if view, err := r.source.AddressView(ctx, snap, query, 1, 0); err == nil {
		return &Result{Kind: KindAddress, Address: view}, nil
	}

	return nil, ledger.ErrNotFound
}
