// Package metrics defines the Prometheus instruments for embedding traffic,
// scoring, and HTTP handling.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// EmbeddingRequestsTotal counts embedding provider calls by status.
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trendcast",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding provider requests",
		},
		[]string{"provider", "model", "status"},
	)

	// EmbeddingRequestDuration observes embedding provider latency.
	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trendcast",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	// EmbeddingErrorsTotal counts embedding provider errors by type.
	EmbeddingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trendcast",
			Name:      "embedding_errors_total",
			Help:      "Total embedding provider errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	// EmbeddingCacheTotal counts content-addressed cache hits and misses.
	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trendcast",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	// ScoringRequestsTotal counts demand-scoring requests by outcome.
	ScoringRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trendcast",
			Name:      "scoring_requests_total",
			Help:      "Total demand scoring requests",
		},
		[]string{"path", "status"}, // path: "attributes" / "image"
	)

	// DemandScore observes the distribution of composite demand scores.
	DemandScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "trendcast",
			Name:      "demand_score",
			Help:      "Distribution of composite demand scores",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 75, 80, 90, 100},
		},
	)
)

var registered bool

// Register registers all application metrics. Must be called once from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingErrorsTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	prometheus.MustRegister(ScoringRequestsTotal)
	prometheus.MustRegister(DemandScore)
	registered = true
}
