package metrics

import "github.com/prometheus/client_golang/prometheus"

// Sync and search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecsync",
			Name:      "search_requests_total",
			Help:      "Search requests by outcome",
		},
		[]string{"outcome"}, // "ok" / "degraded"
	)

	SearchDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecsync",
			Name:      "search_degraded_total",
			Help:      "Searches that degraded to an empty result, by failing step",
		},
		[]string{"reason"}, // "embedding" / "collection" / "query"
	)

	SyncItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecsync",
			Name:      "sync_items_total",
			Help:      "Synchronized items by operation and status",
		},
		[]string{"op", "status"},
	)
)

var serviceMetricsRegistered bool

// RegisterServiceMetrics registers sync and search metrics. Must be called once from main.
func RegisterServiceMetrics() {
	if serviceMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDegradedTotal)
	prometheus.MustRegister(SyncItemsTotal)
	serviceMetricsRegistered = true
}
