package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/thanhnp/baseline-explorer/internal/aggregate"
	"github.com/thanhnp/baseline-explorer/internal/config"
	"github.com/thanhnp/baseline-explorer/internal/ledger"
	"github.com/thanhnp/baseline-explorer/pkg/format"
)

// BlockHandler handles block-related API requests
type BlockHandler struct {
	ledger  *ledger.Projector
	recent  *aggregate.RecentLister
	display config.DisplayConfig
}

// NewBlockHandler creates a new BlockHandler
func NewBlockHandler(ledger *ledger.Projector, recent *aggregate.RecentLister, display config.DisplayConfig) *BlockHandler {
	return &BlockHandler{
		ledger:  ledger,
		recent:  recent,
		display: display,
	}
}

// List returns blocks walking down from the tip, paginated
// GET /api/v1/blocks?page=N
func (h *BlockHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	page := pageParam(c)

	snap, err := h.ledger.Snapshot(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	blocks, hasNext, partial, err := h.recent.Blocks(ctx, snap, page, h.display.BlocksPerPage)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"blocks":     blocks,
		"page":       page,
		"page_size":  h.display.BlocksPerPage,
		"has_next":   hasNext,
		"has_prev":   page > 1,
		"partial":    partial,
		"tip_height": snap.TipHeight,
	})
}

// GetByHash returns a block by its hash
// GET /api/v1/blocks/:hash
func (h *BlockHandler) GetByHash(c *gin.Context) {
	ctx := c.Request.Context()

	snap, err := h.ledger.Snapshot(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	block, err := h.ledger.BlockByHash(ctx, snap, c.Param("hash"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"block":        block,
		"tx_count":     block.TxCount(),
		"time_display": format.Timestamp(block.Timestamp),
	})
}

// GetByHeight returns a block by its height
// GET /api/v1/blocks/height/:height
func (h *BlockHandler) GetByHeight(c *gin.Context) {
	ctx := c.Request.Context()

	height, err := strconv.ParseInt(c.Param("height"), 10, 64)
	if err != nil || height < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid height"})
		return
	}

	snap, err := h.ledger.Snapshot(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	block, err := h.ledger.BlockByHeight(ctx, snap, height)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"block":        block,
		"tx_count":     block.TxCount(),
		"time_display": format.Timestamp(block.Timestamp),
	})
}
