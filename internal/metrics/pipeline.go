package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vecvstext"

// Comparison pipeline Prometheus metrics.
var (
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of books API requests",
		},
		[]string{"operation", "status"}, // status: HTTP code or "error"
	)

	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Books API request duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	EngineOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_outcomes_total",
			Help:      "Terminal retrieval outcomes per engine",
		},
		[]string{"engine", "status"}, // succeeded / failed
	)

	StaleDiscardsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_discards_total",
			Help:      "Completions dropped because a newer generation superseded them",
		},
		[]string{"component"}, // search / projection / words
	)

	ProjectionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "projection_duration_seconds",
			Help:      "End-to-end projection duration (fetch + PCA) in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"result"}, // ok / error
	)

	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_total",
			Help:      "Word index and embedding cache hits and misses",
		},
		[]string{"kind", "result"}, // kind: words / embeddings; result: hit / miss
	)

	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Comparison sessions currently held in memory",
		},
	)
)

var registerOnce sync.Once

// RegisterPipelineMetrics registers the comparison pipeline and HTTP metrics
// with the default registry. Safe to call more than once; main calls it at startup.
func RegisterPipelineMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			UpstreamRequestsTotal,
			UpstreamRequestDuration,
			EngineOutcomesTotal,
			StaleDiscardsTotal,
			ProjectionDuration,
			CacheTotal,
			SessionsActive,
			httpRequestDuration,
			httpRequestsTotal,
			httpInFlight,
		)
	})
}
