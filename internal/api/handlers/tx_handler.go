package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thanhnp/baseline-explorer/internal/aggregate"
	"github.com/thanhnp/baseline-explorer/internal/config"
	"github.com/thanhnp/baseline-explorer/internal/ledger"
	"github.com/thanhnp/baseline-explorer/pkg/format"
)

// TxHandler handles transaction-related API requests
type TxHandler struct {
	ledger  *ledger.Projector
	recent  *aggregate.RecentLister
	display config.DisplayConfig
}

// NewTxHandler creates a new TxHandler
func NewTxHandler(ledger *ledger.Projector, recent *aggregate.RecentLister, display config.DisplayConfig) *TxHandler {
	return &TxHandler{
		ledger:  ledger,
		recent:  recent,
		display: display,
	}
}

// List returns confirmed transactions walking down from the tip, paginated
// GET /api/v1/transactions?page=N
func (h *TxHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	page := pageParam(c)

	snap, err := h.ledger.Snapshot(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	txs, hasNext, partial, err := h.recent.Transactions(ctx, snap, page, h.display.TransactionsPerPage)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": txs,
		"page":         page,
		"page_size":    h.display.TransactionsPerPage,
		"has_next":     hasNext,
		"has_prev":     page > 1,
		"partial":      partial,
		"tip_height":   snap.TipHeight,
	})
}

// Get returns a fully decoded transaction, inputs resolved
// GET /api/v1/transactions/:txid?block=HASH
func (h *TxHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	snap, err := h.ledger.Snapshot(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	tx, err := h.ledger.Transaction(ctx, snap, c.Param("txid"), c.Query("block"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transaction":       tx,
		"fee_display":       format.Amount(tx.Fee),
		"input_display":     format.Amount(tx.InputSum()),
		"output_display":    format.Amount(tx.OutputSum()),
		"lock_time_display": format.LockTime(tx.LockTime),
	})
}
