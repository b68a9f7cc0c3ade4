package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// serverMetrics holds all Prometheus metrics owned by the HTTP server.
// A single instance is created in New and stored on Server so that tests can
// inject a fresh prometheus.Registry without polluting the default one.
type serverMetrics struct {
	// turnsTotal counts completed coaching turns, partitioned by mode
	// ("blocking" or "stream") and outcome ("ok" or "error").
	turnsTotal *prometheus.CounterVec

	// turnDurationSeconds records the wall-clock duration of each turn from
	// request receipt to reply or stream completion.
	turnDurationSeconds *prometheus.HistogramVec

	// activeStreams is the number of SSE chat streams currently open.
	activeStreams prometheus.Gauge

	// httpRequestsTotal counts all HTTP requests handled by the mux,
	// partitioned by method, handler name, and status code.
	httpRequestsTotal *prometheus.CounterVec

	// httpDurationSeconds records the latency of all HTTP requests.
	httpDurationSeconds *prometheus.HistogramVec
}

// newServerMetrics registers all server metrics against reg and returns the
// populated serverMetrics. promauto.With(reg) registers into the provided
// registry rather than the global default, which keeps unit tests hermetic.
func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)

	return &serverMetrics{
		turnsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coachai",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total number of coaching turns completed, partitioned by mode and outcome.",
		}, []string{"mode", "outcome"}),

		turnDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "coachai",
			Subsystem: "chat",
			Name:      "turn_duration_seconds",
			Help:      "Wall-clock duration of coaching turns from receipt to completion.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}, []string{"mode", "outcome"}),

		activeStreams: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "coachai",
			Subsystem: "chat",
			Name:      "active_streams",
			Help:      "Number of SSE chat streams currently open.",
		}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coachai",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled by the server, partitioned by method, handler, and status code.",
		}, []string{"method", "handler", "code"}),

		httpDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "coachai",
			Subsystem: "http",
			Name:      "duration_seconds",
			Help:      "Latency of HTTP requests handled by the server.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "handler"}),
	}
}

// instrument wraps a handler with per-endpoint request counting and latency
// observation, labelled by the logical handler name rather than the raw path.
func (s *Server) instrument(name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		start := time.Now()
		next.ServeHTTP(rw, r)

		s.metrics.httpRequestsTotal.WithLabelValues(r.Method, name, strconv.Itoa(rw.status)).Inc()
		s.metrics.httpDurationSeconds.WithLabelValues(r.Method, name).Observe(time.Since(start).Seconds())
	})
}

// observeTurn records one completed coaching turn.
func (s *Server) observeTurn(mode string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.metrics.turnsTotal.WithLabelValues(mode, outcome).Inc()
	s.metrics.turnDurationSeconds.WithLabelValues(mode, outcome).Observe(time.Since(start).Seconds())
}
