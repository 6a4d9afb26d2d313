// cachesrvd is the cachecore server process: it loads configuration from
// the environment, starts the reactor, and serves a debug/metrics HTTP
// surface alongside it. Grounded on
// Voskan-arena-cache/examples/basic/main.go's HTTP wiring and
// cmd/arena-cache-inspect/main.go's signal handling.
//
// © 2025 cachecore authors. MIT License.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	jsoniter "github.com/json-iterator/go"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lattice-kv/cachecore/internal/config"
	"github.com/lattice-kv/cachecore/pkg/cachesrv"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "cachesrvd:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	reg := prometheus.NewRegistry()
	srv, err := cachesrv.New(cfg, logger, reg)
	if err != nil {
		return fmt.Errorf("cachesrvd: server init: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Info("cachesrvd: shutdown signal received")
		srv.Stop()
		cancel()
	}()

	go serveDebugHTTP(cfg, srv, reg, logger)

	logger.Info("cachesrvd: listening", zap.String("port", cfg.ServerPort), zap.Int("shards", cfg.NumShards))
	return srv.Start(ctx)
}

func serveDebugHTTP(cfg config.Config, srv *cachesrv.Server, reg *prometheus.Registry, logger *zap.Logger) {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.HandleFunc("/debug/cache/snapshot", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(srv.Snapshot())
	})

	addr := cfg.MetricsHost + ":" + cfg.MetricsPort
	logger.Info("cachesrvd: debug http listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Error("cachesrvd: debug http server exited", zap.Error(err))
	}
}
