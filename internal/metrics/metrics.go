// Package metrics provides Prometheus instrumentation for the indexer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EventsTotal counts applied events, partitioned by kind and outcome.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nftmarket_events_total",
		Help: "Total events processed by the projection engine",
	}, []string{"type", "outcome"})

	// EventApplyDuration tracks per-event handler latency by kind.
	EventApplyDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nftmarket_event_apply_duration_seconds",
		Help:    "Projection handler latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})

	// EventErrors counts events that failed to apply, by kind.
	EventErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nftmarket_event_errors_total",
		Help: "Events that failed to apply",
	}, []string{"type"})

	// MetadataLookupFailures counts failed read-only contract calls by method.
	MetadataLookupFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nftmarket_metadata_lookup_failures_total",
		Help: "Failed ERC-721 metadata lookups",
	}, []string{"method"})

	// WebSocketClients tracks connected trade-feed clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nftmarket_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nftmarket_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nftmarket_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the route pattern for path label to avoid high cardinality:
		// address-parameterized routes would otherwise mint one label
		// value per wallet or contract seen.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
