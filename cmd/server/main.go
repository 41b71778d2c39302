package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/thanhnp/baseline-explorer/internal/aggregate"
	"github.com/thanhnp/baseline-explorer/internal/api"
	"github.com/thanhnp/baseline-explorer/internal/config"
	"github.com/thanhnp/baseline-explorer/internal/decoder"
	"github.com/thanhnp/baseline-explorer/internal/index"
	"github.com/thanhnp/baseline-explorer/internal/ledger"
	"github.com/thanhnp/baseline-explorer/internal/metrics"
	"github.com/thanhnp/baseline-explorer/internal/rpc"
	"github.com/thanhnp/baseline-explorer/internal/search"
	"github.com/thanhnp/baseline-explorer/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting explorer",
		zap.String("network", cfg.Display.NetworkName),
		zap.String("node", cfg.RPC.URL()),
		zap.Bool("index", cfg.Index.Enabled))

	node := rpc.NewClient(cfg.RPC.URL(), cfg.RPC.Username, cfg.RPC.Password, rpc.Options{
		Timeout: time.Duration(cfg.RPC.TimeoutSeconds) * time.Second,
		Retries: cfg.RPC.MaxRetries,
		Metrics: metrics.NewRPCClient(cfg.Display.NetworkName),
	}, log.Named("rpc"))

	cache := decoder.NewCache()
	cache.Start()
	defer cache.Stop()
	dec := decoder.New(node, cache, cfg.Display.AddressVersion, log.Named("decoder"))

	projector := ledger.NewProjector(node, dec, cache,
		cfg.Display.AddressVersion, cfg.Display.AddressPerPage, log.Named("ledger"))

	recent := aggregate.NewRecentLister(dec, log.Named("recent"))
	mempool := aggregate.NewMonitor(node, log.Named("mempool"))
	resolver := search.NewResolver(projector, log.Named("search"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var balances aggregate.BalanceSource
	if cfg.Index.Enabled {
		db, dbErr := storage.NewPebbleDB(cfg.Index.Path)
		if dbErr != nil {
			log.Fatal("failed to open index database", zap.Error(dbErr))
		}
		defer db.Close()

		indexer := index.New(node, dec, db, cfg.Index, log.Named("index"))
		indexer.Start(ctx)
		defer indexer.Stop()
		balances = indexer.Store()
	}
	richlist := aggregate.NewRichList(node, balances, log.Named("richlist"))

	router := api.NewRouter(node, projector, recent, richlist, mempool, resolver,
		cfg.Display, log.Named("api"))

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router.Engine(),
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", zap.Error(err))
	}
}
