package metrics

import "github.com/prometheus/client_golang/prometheus"

// Embedding Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mmindex",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding model requests",
		},
		[]string{"model", "modality", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mmindex",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding model request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"model", "modality"},
	)

	EmbeddingBatchSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mmindex",
			Name:      "embedding_batch_size",
			Help:      "Number of inputs per embedding model call",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
		},
		[]string{"model", "modality"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mmindex",
			Name:      "embedding_cache_total",
			Help:      "Text embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	IngestedVectorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mmindex",
			Name:      "ingested_vectors_total",
			Help:      "Total number of vector records persisted",
		},
	)
)

var embMetricsRegistered bool

// RegisterEmbeddingMetrics registers Prometheus embedding metrics. Must be called once from main.
func RegisterEmbeddingMetrics() {
	if embMetricsRegistered {
		return
	}
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingBatchSize)
	prometheus.MustRegister(EmbeddingCacheTotal)
	prometheus.MustRegister(IngestedVectorsTotal)
	embMetricsRegistered = true
}
