package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thanhnp/baseline-explorer/internal/rpc"
	"github.com/thanhnp/baseline-explorer/pkg/format"
)

// StatusNode is the slice of the node RPC surface the status endpoints
// read from. *rpc.Client satisfies it.
type StatusNode interface {
	GetBlockchainInfo(ctx context.Context) (*rpc.ChainInfo, error)
	GetMempoolInfo(ctx context.Context) (*rpc.MempoolInfo, error)
	GetMiningInfo(ctx context.Context) (*rpc.MiningInfo, error)
	GetCirculatingSupply(ctx context.Context) (int64, error)
	GetChainTips(ctx context.Context) ([]rpc.ChainTip, error)
}

// StatusHandler serves node and network status
type StatusHandler struct {
	node    StatusNode
	network string
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(node StatusNode, network string) *StatusHandler {
	return &StatusHandler{node: node, network: network}
}

// GetStatus returns chain, mempool, and mining status in one payload
// GET /api/v1/status
func (h *StatusHandler) GetStatus(c *gin.Context) {
	ctx := c.Request.Context()

	chain, err := h.node.GetBlockchainInfo(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	mempool, err := h.node.GetMempoolInfo(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	mining, err := h.node.GetMiningInfo(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	payload := gin.H{
		"network":          h.network,
		"chain":            chain.Chain,
		"blocks":           chain.Blocks,
		"headers":          chain.Headers,
		"best_block_hash":  chain.BestBlockHash,
		"difficulty":       chain.Difficulty,
		"mempool_txs":      mempool.Size,
		"mempool_bytes":    mempool.Bytes,
		"network_hashrate": format.Hashrate(mining.NetworkHashPS),
	}

	// Supply is a non-standard RPC; absence is not a status failure, but
	// the payload marks it so callers can tell a failed read from zero.
	if supply, supplyErr := h.node.GetCirculatingSupply(ctx); supplyErr == nil {
		payload["supply"] = supply
		payload["supply_display"] = format.AmountGrouped(supply)
	} else {
		payload["supply_error"] = true
	}

	c.JSON(http.StatusOK, payload)
}

// GetOrphans returns non-active chain tips
// GET /api/v1/orphans
func (h *StatusHandler) GetOrphans(c *gin.Context) {
	tips, err := h.node.GetChainTips(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	orphans := make([]rpc.ChainTip, 0, len(tips))
	for _, tip := range tips {
		if tip.Status == "active" {
			continue
		}
		orphans = append(orphans, tip)
	}

	c.JSON(http.StatusOK, gin.H{"orphans": orphans, "count": len(orphans)})
}
