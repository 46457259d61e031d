package metrics

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// searchPrefix is where the sync and search API is mounted.
const searchPrefix = "/api/v1/search"

// Route groups used as the "group" label.
const (
	GroupSync        = "sync"
	GroupSearch      = "search"
	GroupEmbed       = "embed"
	GroupCollections = "collections"
	GroupSystem      = "system"
	GroupUnmatched   = "unmatched"
)

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vecsync",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route group",
			// Bulk sync embeds up to a thousand records in one request.
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"group"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecsync",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route group, route and status class",
		},
		[]string{"group", "route", "status"},
	)
)

var httpOnce sync.Once

// RegisterHTTPMetrics registers the HTTP metrics. Safe to call more than once.
func RegisterHTTPMetrics() {
	httpOnce.Do(func() {
		prometheus.MustRegister(httpRequestDuration, httpRequestsTotal)
	})
}

// Middleware records request latency and count per route group.
// Routes come from the chi pattern, so path parameters do not add series.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route != "/" {
				route = strings.TrimSuffix(route, "/")
			}
			group := RouteGroup(route)
			// A miss under a mounted subrouter still carries the mount pattern.
			if group == GroupUnmatched || ww.status == http.StatusNotFound || ww.status == http.StatusMethodNotAllowed {
				group, route = GroupUnmatched, GroupUnmatched
			}

			httpRequestDuration.WithLabelValues(group).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(group, route, statusClass(ww.status)).Inc()
		})
	}
}

// RouteGroup maps a chi route pattern to its group.
func RouteGroup(pattern string) string {
	if pattern == "" {
		return GroupUnmatched
	}
	rest, ok := strings.CutPrefix(pattern, searchPrefix)
	if !ok {
		return GroupSystem
	}
	switch {
	case strings.HasPrefix(rest, "/sync"):
		return GroupSync
	case strings.HasPrefix(rest, "/embed"):
		return GroupEmbed
	case strings.HasPrefix(rest, "/collections"):
		return GroupCollections
	default:
		return GroupSearch
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// statusWriter captures the first status written.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b) //nolint:wrapcheck // delegating to underlying ResponseWriter
}
