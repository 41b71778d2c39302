package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thanhnp/baseline-explorer/internal/config"
	"github.com/thanhnp/baseline-explorer/internal/ledger"
	"github.com/thanhnp/baseline-explorer/pkg/format"
)

// AddressHandler handles address-related API requests
type AddressHandler struct {
	ledger  *ledger.Projector
	display config.DisplayConfig
}

// NewAddressHandler creates a new AddressHandler
func NewAddressHandler(ledger *ledger.Projector, display config.DisplayConfig) *AddressHandler {
	return &AddressHandler{
		ledger:  ledger,
		display: display,
	}
}

// Get returns the address projection: balance, UTXOs, paginated history
// GET /api/v1/addresses/:address?page=N&page_size=M
func (h *AddressHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	page := pageParam(c)
	pageSize := intParam(c, "page_size", h.display.AddressPerPage)

	snap, err := h.ledger.Snapshot(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.ledger.AddressView(ctx, snap, c.Param("address"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":         view,
		"balance_display": format.Amount(view.Balance),
		"utxo_count":      len(view.UTXOs),
		"tip_height":      snap.TipHeight,
	})
}
