package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thanhnp/baseline-explorer/internal/decoder"
	"github.com/thanhnp/baseline-explorer/internal/ledger"
	"github.com/thanhnp/baseline-explorer/internal/rpc"
)

// respondError maps internal error kinds to HTTP statuses. Malformed node
// data and node outages are upstream faults, not client or server bugs.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrInvalidAddress):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case decoder.IsMalformed(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case rpc.IsTransport(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "node unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// pageParam parses a 1-based page query parameter, defaulting to 1.
func pageParam(c *gin.Context) int {
	return intParam(c, "page", 1)
}

func intParam(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n := 0
	for _, ch := range v {
		if ch < '0' || ch > '9' {
			return def
		}
		n = n*10 + int(ch-'0')
		if n > 1_000_000 {
			return def
		}
	}
	if n < 1 {
		return def
	}
	return n
}
