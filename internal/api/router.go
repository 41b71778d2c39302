package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/thanhnp/baseline-explorer/internal/aggregate"
	"github.com/thanhnp/baseline-explorer/internal/api/handlers"
	"github.com/thanhnp/baseline-explorer/internal/api/middleware"
	"github.com/thanhnp/baseline-explorer/internal/config"
	"github.com/thanhnp/baseline-explorer/internal/ledger"
	"github.com/thanhnp/baseline-explorer/internal/rpc"
	"github.com/thanhnp/baseline-explorer/internal/search"
)

// Router wraps the Gin router with handlers
type Router struct {
	engine          *gin.Engine
	statusHandler   *handlers.StatusHandler
	blockHandler    *handlers.BlockHandler
	txHandler       *handlers.TxHandler
	addressHandler  *handlers.AddressHandler
	richListHandler *handlers.RichListHandler
	mempoolHandler  *handlers.MempoolHandler
	searchHandler   *handlers.SearchHandler
	log             *zap.Logger
}

// NewRouter creates a new Router with all handlers
func NewRouter(
	node *rpc.Client,
	projector *ledger.Projector,
	recent *aggregate.RecentLister,
	richlist *aggregate.RichList,
	mempool *aggregate.Monitor,
	resolver *search.Resolver,
	display config.DisplayConfig,
	log *zap.Logger,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	if log == nil {
		log = zap.NewNop()
	}

	r := &Router{
		engine:          gin.New(),
		statusHandler:   handlers.NewStatusHandler(node, display.NetworkName),
		blockHandler:    handlers.NewBlockHandler(projector, recent, display),
		txHandler:       handlers.NewTxHandler(projector, recent, display),
		addressHandler:  handlers.NewAddressHandler(projector, display),
		richListHandler: handlers.NewRichListHandler(richlist, display),
		mempoolHandler:  handlers.NewMempoolHandler(mempool),
		searchHandler:   handlers.NewSearchHandler(projector, resolver),
		log:             log,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// setupMiddleware configures middleware
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery(r.log))
	r.engine.Use(middleware.Logger(r.log))
	r.engine.Use(middleware.CORS())
}

// setupRoutes configures API routes
func (r *Router) setupRoutes() {
	// Health check
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Prometheus metrics
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := r.engine.Group("/api/v1")
	{
		v1.GET("/status", r.statusHandler.GetStatus)
		v1.GET("/orphans", r.statusHandler.GetOrphans)
		v1.GET("/mempool", r.mempoolHandler.Get)
		v1.GET("/richlist", r.richListHandler.Get)
		v1.GET("/search", r.searchHandler.Get)

		// Block routes
		blocks := v1.Group("/blocks")
		{
			blocks.GET("", r.blockHandler.List)
			blocks.GET("/height/:height", r.blockHandler.GetByHeight)
			blocks.GET("/:hash", r.blockHandler.GetByHash)
		}

		// Transaction routes
		txs := v1.Group("/transactions")
		{
			txs.GET("", r.txHandler.List)
			txs.GET("/:txid", r.txHandler.Get)
		}

		// Address routes
		v1.GET("/addresses/:address", r.addressHandler.Get)
	}
}

// Engine returns the underlying Gin engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Run starts the HTTP server
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
