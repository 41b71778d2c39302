package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thanhnp/baseline-explorer/internal/aggregate"
	"github.com/thanhnp/baseline-explorer/internal/config"
)

// RichListHandler handles rich list API requests
type RichListHandler struct {
	richlist *aggregate.RichList
	display  config.DisplayConfig
}

// NewRichListHandler creates a new RichListHandler
func NewRichListHandler(richlist *aggregate.RichList, display config.DisplayConfig) *RichListHandler {
	return &RichListHandler{
		richlist: richlist,
		display:  display,
	}
}

// Get returns the ranked balance listing, paginated
// GET /api/v1/richlist?page=N
func (h *RichListHandler) Get(c *gin.Context) {
	page := pageParam(c)
	pageSize := h.display.RichListPerPage
	offset := (page - 1) * pageSize

	entries, degraded, err := h.richlist.TopBalances(c.Request.Context(), pageSize, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries":   entries,
		"page":      page,
		"page_size": pageSize,
		"has_next":  len(entries) == pageSize,
		"has_prev":  page > 1,
		"degraded":  degraded,
	})
}
