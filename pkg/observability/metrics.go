package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. Recording methods are safe to call
// on a nil *Metrics so that components can run without instrumentation.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthOperationsTotal   *prometheus.CounterVec
	AuthOperationDuration *prometheus.HistogramVec
	TokenValidationsTotal *prometheus.CounterVec

	// Revocation registry
	RevocationRegistrySize prometheus.Gauge
	RevocationSweepsTotal  prometheus.Counter
	RevocationSweptTotal   prometheus.Counter

	// Rate limiting
	RateLimitRejectionsTotal  *prometheus.CounterVec
	RateLimitStoreErrorsTotal *prometheus.CounterVec

	// Invitations
	InvitationTransitionsTotal *prometheus.CounterVec

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boq_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "boq_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		AuthOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boq_auth_operations_total",
				Help: "Authentication operations by operation and result",
			},
			[]string{"operation", "result"},
		),
		AuthOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "boq_auth_operation_duration_seconds",
				Help: "Authentication operation duration in seconds, dominated by password hashing",
				// argon2id sits in the tens of milliseconds
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"operation"},
		),
		TokenValidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boq_token_validations_total",
				Help: "Access token validations by principal kind or failure",
			},
			[]string{"result"},
		),

		RevocationRegistrySize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "boq_revocation_registry_size",
				Help: "Number of revoked tokens held in memory",
			},
		),
		RevocationSweepsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "boq_revocation_sweeps_total",
				Help: "Number of growth-triggered revocation sweeps",
			},
		),
		RevocationSweptTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "boq_revocation_swept_entries_total",
				Help: "Revoked tokens dropped by sweeps",
			},
		),

		RateLimitRejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boq_rate_limit_rejections_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"route"},
		),
		RateLimitStoreErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boq_rate_limit_store_errors_total",
				Help: "Rate limit store failures (requests are allowed through)",
			},
			[]string{"backend"},
		),

		InvitationTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boq_invitation_transitions_total",
				Help: "Collaboration invitation transitions by kind and result",
			},
			[]string{"transition", "result"},
		),

		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "boq_db_connections_active",
				Help: "Number of in-use database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "boq_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthOperationsTotal,
		m.AuthOperationDuration,
		m.TokenValidationsTotal,
		m.RevocationRegistrySize,
		m.RevocationSweepsTotal,
		m.RevocationSweptTotal,
		m.RateLimitRejectionsTotal,
		m.RateLimitStoreErrorsTotal,
		m.InvitationTransitionsTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
	)

	return m
}

// ObserveAuth records one authentication operation
func (m *Metrics) ObserveAuth(operation, result string, took time.Duration) {
	if m == nil {
		return
	}
	m.AuthOperationsTotal.WithLabelValues(operation, result).Inc()
	m.AuthOperationDuration.WithLabelValues(operation).Observe(took.Seconds())
}

// ObserveTokenValidation records a validation outcome (user, admin, invalid)
func (m *Metrics) ObserveTokenValidation(result string) {
	if m == nil {
		return
	}
	m.TokenValidationsTotal.WithLabelValues(result).Inc()
}

// SetRevocationSize records the current registry size
func (m *Metrics) SetRevocationSize(n int) {
	if m == nil {
		return
	}
	m.RevocationRegistrySize.Set(float64(n))
}

// ObserveSweep records a completed revocation sweep
func (m *Metrics) ObserveSweep(removed int) {
	if m == nil {
		return
	}
	m.RevocationSweepsTotal.Inc()
	m.RevocationSweptTotal.Add(float64(removed))
}

// ObserveRateLimitRejection records a 429
func (m *Metrics) ObserveRateLimitRejection(route string) {
	if m == nil {
		return
	}
	m.RateLimitRejectionsTotal.WithLabelValues(route).Inc()
}

// ObserveRateLimitStoreError records a failing limiter backend
func (m *Metrics) ObserveRateLimitStoreError(backend string) {
	if m == nil {
		return
	}
	m.RateLimitStoreErrorsTotal.WithLabelValues(backend).Inc()
}

// ObserveInvitation records an invitation transition attempt
func (m *Metrics) ObserveInvitation(transition, result string) {
	if m == nil {
		return
	}
	m.InvitationTransitionsTotal.WithLabelValues(transition, result).Inc()
}

// RecordDBStats copies connection pool stats into the gauges
func (m *Metrics) RecordDBStats(stats sql.DBStats) {
	if m == nil {
		return
	}
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests. It labels by the mux
// route template and therefore must be installed with Router.Use.
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if metrics == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			route := RouteLabel(r)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

// RouteLabel returns the matched mux path template, or "unmatched"
func RouteLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(serveMux *http.ServeMux, registry *prometheus.Registry) {
	serveMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
