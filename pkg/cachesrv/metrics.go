package cachesrv

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lattice-kv/cachecore/internal/dispatch"
)

// Registerer is the subset of prometheus.Registerer that metricsSink needs;
// passing a nil Registerer yields a no-op sink, mirroring
// Voskan-arena-cache/pkg/metrics.go's newMetricsSink(nil) behavior.
type Registerer interface {
	MustRegister(...prometheus.Collector)
}

type metricsSink struct {
	enabled bool

	requestsTotal prometheus.Gauge
	errorsTotal   prometheus.Gauge
	activeConns   prometheus.Gauge

	shardEntries prometheus.GaugeVec
	shardResizes prometheus.GaugeVec
	shardHits    prometheus.GaugeVec
	shardMisses  prometheus.GaugeVec
}

func newMetricsSink(reg Registerer) *metricsSink {
	if reg == nil {
		return &metricsSink{enabled: false}
	}

	s := &metricsSink{
		enabled: true,
		requestsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cachecore_requests_total",
			Help: "Total requests handled across both wire protocols (cumulative, sampled).",
		}),
		errorsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cachecore_errors_total",
			Help: "Total requests that resulted in an error response (cumulative, sampled).",
		}),
		activeConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cachecore_active_connections",
			Help: "Current number of open client connections.",
		}),
		shardEntries: *prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cachecore_shard_entries",
			Help: "Live entries per shard.",
		}, []string{"shard"}),
		shardResizes: *prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cachecore_shard_resizes_total",
			Help: "Resize operations performed per shard.",
		}, []string{"shard"}),
		shardHits: *prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cachecore_shard_hits_total",
			Help: "GET hits per shard.",
		}, []string{"shard"}),
		shardMisses: *prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cachecore_shard_misses_total",
			Help: "GET misses per shard.",
		}, []string{"shard"}),
	}

	reg.MustRegister(
		s.requestsTotal, s.errorsTotal, s.activeConns,
		&s.shardEntries, &s.shardResizes, &s.shardHits, &s.shardMisses,
	)
	return s
}

func (s *metricsSink) observe(snap dispatch.Snapshot) {
	if !s.enabled {
		return
	}
	s.requestsTotal.Set(float64(snap.NumRequests))
	s.errorsTotal.Set(float64(snap.NumErrors))
	s.activeConns.Set(float64(snap.NumActiveConns))

	for _, sh := range snap.Shards {
		label := shardLabel(sh.Index)
		s.shardEntries.WithLabelValues(label).Set(float64(sh.Entries))
		s.shardResizes.WithLabelValues(label).Set(float64(sh.Resizes))
		s.shardHits.WithLabelValues(label).Set(float64(sh.Hits))
		s.shardMisses.WithLabelValues(label).Set(float64(sh.Misses))
	}
}

func shardLabel(i int) string {
	const digits = "0123456789"
	if i == 0 {
		return "0"
	}
	var buf []byte
	for i > 0 {
		buf = append([]byte{digits[i%10]}, buf...)
		i /= 10
	}
	return string(buf)
}
