package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Embedding metrics. A process talks to one embedding server, so series are
// keyed by model only.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecsync",
			Name:      "embedding_requests_total",
			Help:      "Calls to the embedding server by result",
		},
		[]string{"model", "result"}, // "ok" / "error"
	)

	// Buckets start low: the all-MiniLM-L6-v2 sidecar answers in milliseconds.
	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vecsync",
			Name:      "embedding_request_duration_seconds",
			Help:      "Latency of successful embedding calls",
			Buckets:   []float64{0.002, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 10},
		},
		[]string{"model"},
	)

	EmbeddingPromptTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecsync",
			Name:      "embedding_prompt_tokens_total",
			Help:      "Prompt tokens reported by the embedding server",
		},
		[]string{"model"},
	)

	EmbeddingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecsync",
			Name:      "embedding_errors_total",
			Help:      "Failed embedding calls by reason",
		},
		[]string{"model", "reason"}, // "api_error" / "empty_response"
	)

	EmbeddingDimensionMismatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecsync",
			Name:      "embedding_dimension_mismatch_total",
			Help:      "Embeddings whose size differs from the configured dimensions",
		},
		[]string{"model"},
	)

	EmbeddingDimensionsFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecsync",
			Name:      "embedding_dimensions_fallback_total",
			Help:      "Times the server rejected the dimensions parameter and the call was retried without it",
		},
		[]string{"model"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecsync",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache lookups",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var embeddingOnce sync.Once

// RegisterEmbeddingMetrics registers the embedding metrics. Safe to call more than once.
func RegisterEmbeddingMetrics() {
	embeddingOnce.Do(func() {
		prometheus.MustRegister(
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingPromptTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingDimensionMismatchTotal,
			EmbeddingDimensionsFallbackTotal,
			EmbeddingCacheTotal,
		)
	})
}
