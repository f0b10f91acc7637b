package metrics

import "github.com/prometheus/client_golang/prometheus"

// Backend Prometheus metrics.
var (
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchdex",
			Name:      "backend_requests_total",
			Help:      "Total number of backend search requests",
		},
		[]string{"operation", "status"},
	)

	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchdex",
			Name:      "backend_request_duration_seconds",
			Help:      "Backend search request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	BackendBatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "searchdex",
			Name:      "backend_batch_size",
			Help:      "Number of queries per multi-search batch",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		},
	)

	QueryCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchdex",
			Name:      "query_cache_total",
			Help:      "Query response cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var backendMetricsRegistered bool

// RegisterBackendMetrics registers Prometheus backend metrics. Must be called once from main.
func RegisterBackendMetrics() {
	if backendMetricsRegistered {
		return
	}
	prometheus.MustRegister(BackendRequestsTotal)
	prometheus.MustRegister(BackendRequestDuration)
	prometheus.MustRegister(BackendBatchSize)
	prometheus.MustRegister(QueryCacheTotal)
	backendMetricsRegistered = true
}
