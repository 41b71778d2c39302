package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thanhnp/baseline-explorer/internal/aggregate"
	"github.com/thanhnp/baseline-explorer/pkg/format"
)

// MempoolHandler handles mempool API requests
type MempoolHandler struct {
	monitor *aggregate.Monitor
}

// NewMempoolHandler creates a new MempoolHandler
func NewMempoolHandler(monitor *aggregate.Monitor) *MempoolHandler {
	return &MempoolHandler{monitor: monitor}
}

// Get returns the current mempool summary
// GET /api/v1/mempool
func (h *MempoolHandler) Get(c *gin.Context) {
	stats, err := h.monitor.Snapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"mempool":           stats,
		"total_fee_display": format.Amount(stats.TotalFee),
	})
}
