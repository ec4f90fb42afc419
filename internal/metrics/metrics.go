// Package metrics provides Prometheus instrumentation for the cluster service.
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
	// ExecutionsTotal counts mint and redeem executions by action and model.
	ExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nebula_executions_total",
		Help: "Total number of mint/redeem executions",
	}, []string{"action", "model"})

	// ExecutionLatency tracks end-to-end execution latency.
	ExecutionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nebula_execution_latency_seconds",
		Help:    "Mint/redeem execution latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})

	// Rejections counts executions refused by the engine or the service,
	// partitioned by error class.
	Rejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nebula_rejections_total",
		Help: "Mint/redeem executions rejected",
	}, []string{"action", "class"})

	// PenaltyNotional accumulates absolute penalty and reward notional.
	PenaltyNotional = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nebula_penalty_notional_total",
		Help: "Cumulative absolute notional charged as penalty or paid as reward",
	}, []string{"cluster_id", "kind"})

	// ActiveClusters tracks the number of active clusters.
	ActiveClusters = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nebula_active_clusters",
		Help: "Number of clusters accepting mints",
	})

	// ClusterSupply tracks outstanding cluster tokens.
	ClusterSupply = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "nebula_cluster_supply",
		Help: "Outstanding cluster tokens",
	}, []string{"cluster_id"})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nebula_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nebula_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nebula_http_request_duration_seconds",
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

		// Use the route pattern for path label to avoid high cardinality.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
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
