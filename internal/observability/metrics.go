package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Histogram bucket definitions.
var (
	httpDurationBuckets    = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	backendDurationBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
)

// Metrics holds all Prometheus metric instruments for the intake service.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Session metrics
	SessionStartsTotal      *prometheus.CounterVec
	SessionAdvancesTotal    *prometheus.CounterVec
	SessionSubmissionsTotal *prometheus.CounterVec
	SessionsReapedTotal     prometheus.Counter
	ValidationFailuresTotal *prometheus.CounterVec
	ActiveSessions          prometheus.Gauge

	// Backend metrics
	BackendRequestsTotal       *prometheus.CounterVec
	BackendRequestDuration     *prometheus.HistogramVec
	BackendCircuitBreakerState *prometheus.GaugeVec
}

// InitMetrics creates and registers all Prometheus metric instruments.
func InitMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		// HTTP
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "intake_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: httpDurationBuckets,
		}, []string{"method", "path_pattern"}),

		// Sessions
		SessionStartsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_session_starts_total",
			Help: "Total number of intake sessions started.",
		}, []string{"flow"}),
		SessionAdvancesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_session_advances_total",
			Help: "Total number of step advances.",
		}, []string{"flow", "step"}),
		SessionSubmissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_session_submissions_total",
			Help: "Total number of session submissions.",
		}, []string{"flow", "outcome"}),
		SessionsReapedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "intake_sessions_reaped_total",
			Help: "Total number of idle sessions reaped.",
		}),
		ValidationFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_validation_failures_total",
			Help: "Total number of step validation failures.",
		}, []string{"step"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "intake_active_sessions",
			Help: "Number of live intake sessions.",
		}),

		// Backend
		BackendRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_backend_requests_total",
			Help: "Total number of backend service requests.",
		}, []string{"service_id", "status"}),
		BackendRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "intake_backend_request_duration_seconds",
			Help:    "Backend request duration in seconds.",
			Buckets: backendDurationBuckets,
		}, []string{"service_id"}),
		BackendCircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "intake_backend_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		}, []string{"service_id"}),
	}

	reg.MustRegister(
		// HTTP
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		// Sessions
		m.SessionStartsTotal,
		m.SessionAdvancesTotal,
		m.SessionSubmissionsTotal,
		m.SessionsReapedTotal,
		m.ValidationFailuresTotal,
		m.ActiveSessions,
		// Backend
		m.BackendRequestsTotal,
		m.BackendRequestDuration,
		m.BackendCircuitBreakerState,
	)

	return m
}

// --- Recording helpers ---

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, pathPattern string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(duration.Seconds())
}

// RecordSessionStart records a session start.
func (m *Metrics) RecordSessionStart(flow string) {
	m.SessionStartsTotal.WithLabelValues(flow).Inc()
	m.ActiveSessions.Inc()
}

// RecordSessionAdvance records a step advance.
func (m *Metrics) RecordSessionAdvance(flow, step string) {
	m.SessionAdvancesTotal.WithLabelValues(flow, step).Inc()
}

// RecordSessionSubmission records a submission outcome.
func (m *Metrics) RecordSessionSubmission(flow, outcome string) {
	m.SessionSubmissionsTotal.WithLabelValues(flow, outcome).Inc()
	if outcome == "submitted" {
		m.ActiveSessions.Dec()
	}
}

// RecordSessionsReaped records reaped sessions.
func (m *Metrics) RecordSessionsReaped(count int) {
	m.SessionsReapedTotal.Add(float64(count))
	m.ActiveSessions.Sub(float64(count))
}

// RecordValidationFailure records a step validation failure.
func (m *Metrics) RecordValidationFailure(step string) {
	m.ValidationFailuresTotal.WithLabelValues(step).Inc()
}

// RecordBackendRequest records a backend service request.
func (m *Metrics) RecordBackendRequest(serviceID string, status int, duration time.Duration) {
	m.BackendRequestsTotal.WithLabelValues(serviceID, strconv.Itoa(status)).Inc()
	m.BackendRequestDuration.WithLabelValues(serviceID).Observe(duration.Seconds())
}

// SetBackendCircuitBreakerState sets the circuit breaker state for a service.
// State: 0=closed, 1=half-open, 2=open.
func (m *Metrics) SetBackendCircuitBreakerState(serviceID string, state float64) {
	m.BackendCircuitBreakerState.WithLabelValues(serviceID).Set(state)
}

// --- HTTP Middleware ---

// MetricsMiddleware returns HTTP middleware that records request metrics using
// chi's route pattern (not the actual URL path) to avoid label cardinality
// explosion.
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &metricsResponseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		m.RecordHTTPRequest(r.Method, routePattern(r), sw.status, time.Since(start))
	})
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// routePattern extracts chi's route pattern from the request context.
// Falls back to the raw URL path if no pattern is found.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	pattern := strings.Join(rctx.RoutePatterns, "")
	// chi route patterns have trailing /*, remove it.
	pattern = strings.TrimSuffix(pattern, "/*")
	if pattern == "" {
		return r.URL.Path
	}
	return pattern
}

// metricsResponseWriter wraps http.ResponseWriter to capture status and bytes.
type metricsResponseWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *metricsResponseWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *metricsResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}
