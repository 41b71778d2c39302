package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thanhnp/baseline-explorer/internal/ledger"
	"github.com/thanhnp/baseline-explorer/internal/search"
)

// SearchHandler handles free-text search requests
type SearchHandler struct {
	ledger   *ledger.Projector
	resolver *search.Resolver
}

// NewSearchHandler creates a new SearchHandler
func NewSearchHandler(ledger *ledger.Projector, resolver *search.Resolver) *SearchHandler {
	return &SearchHandler{
		ledger:   ledger,
		resolver: resolver,
	}
}

// Get classifies a query and returns the matching entity
// GET /api/v1/search?q=QUERY
func (h *SearchHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing query parameter 'q'"})
		return
	}

	snap, err := h.ledger.Snapshot(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.resolver.Resolve(ctx, snap, query)
	if err != nil {
		respondError(c, err)
		return
	}

	payload := gin.H{"kind": result.Kind}
	switch result.Kind {
	case search.KindBlock:
		payload["block"] = result.Block
	case search.KindTransaction:
		payload["transaction"] = result.Transaction
	case search.KindAddress:
		payload["address"] = result.Address
	}
	c.JSON(http.StatusOK, payload)
}
