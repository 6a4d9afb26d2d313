// Package cachesrv wires the shard table, dispatcher, and reactor into one
// runnable server, and supervises its background goroutines (connection
// reactor and metrics pump) the way Voskan-arena-cache/pkg/cache.go wires
// its own components together.
//
// © 2025 cachecore authors. MIT License.
package cachesrv

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lattice-kv/cachecore/internal/config"
	"github.com/lattice-kv/cachecore/internal/dispatch"
	"github.com/lattice-kv/cachecore/internal/reactor"
	"github.com/lattice-kv/cachecore/internal/store"
)

// Server is the top-level cachecore process: a shard table, a dispatcher,
// a reactor, and a metrics sink that samples both on a fixed interval.
type Server struct {
	cfg    config.Config
	table  *store.Table
	disp   *dispatch.Dispatcher
	react  *reactor.Reactor
	metric *metricsSink
	logger *zap.Logger
}

// New builds a Server from a resolved configuration. logger defaults to
// zap.NewNop(), matching the teacher's defaultConfig rule that nothing logs
// unless a logger is explicitly supplied.
func New(cfg config.Config, logger *zap.Logger, metricsRegisterer Registerer) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	table := store.NewTable(cfg.NumShards, cfg.EnableCompression, logger)
	codec := newCodec()
	disp := dispatch.New(table, codec, logger)

	r, err := reactor.New(reactor.Config{
		ListenAddr:  cfg.ServerPort,
		SockBufSize: cfg.SockBufSize,
		Backlog:     cfg.ConnQueueLimit,
	}, disp, logger)
	if err != nil {
		return nil, err
	}

	sink := newMetricsSink(metricsRegisterer)

	return &Server{
		cfg:    cfg,
		table:  table,
		disp:   disp,
		react:  r,
		metric: sink,
		logger: logger,
	}, nil
}

// Start runs the reactor and the metrics pump until ctx is canceled or one
// of them fails. It blocks until shutdown completes.
func (s *Server) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.react.Serve(ctx)
	})

	g.Go(func() error {
		s.runMetricsPump(ctx)
		return nil
	})

	return g.Wait()
}

// Stop requests a graceful shutdown; Start's caller should still cancel the
// context it passed in, or wait for Start to return on its own accord.
func (s *Server) Stop() {
	s.react.Stop()
}

// Dispatcher exposes the dispatcher for the debug/metrics HTTP surface in
// cmd/cachesrvd.
func (s *Server) Dispatcher() *dispatch.Dispatcher { return s.disp }

// Snapshot builds the current metrics snapshot, combining dispatcher
// counters with the reactor's live connection count.
func (s *Server) Snapshot() dispatch.Snapshot {
	return s.disp.BuildSnapshot(s.react.ActiveConnections())
}

func (s *Server) runMetricsPump(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateFrequency)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.metric.observe(s.Snapshot())
		}
	}
}

const metricsUpdateFrequency = 4 * time.Second
