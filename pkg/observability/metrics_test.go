package observability

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAuth("login", "success", time.Millisecond)
	m.ObserveTokenValidation("user")
	m.SetRevocationSize(3)
	m.ObserveSweep(2)
	m.ObserveRateLimitRejection("/api/auth/login")
	m.ObserveRateLimitStoreError("redis")
	m.ObserveInvitation("accept", "success")
	m.RecordDBStats(sql.DBStats{})
}

func TestMetrics_Recording(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveAuth("login", "failure", 20*time.Millisecond)
	m.ObserveAuth("login", "failure", 20*time.Millisecond)
	if got := testutil.ToFloat64(m.AuthOperationsTotal.WithLabelValues("login", "failure")); got != 2 {
		t.Errorf("Expected 2 login failures, got %v", got)
	}

	m.SetRevocationSize(1001)
	if got := testutil.ToFloat64(m.RevocationRegistrySize); got != 1001 {
		t.Errorf("Expected registry size 1001, got %v", got)
	}

	m.ObserveSweep(40)
	if got := testutil.ToFloat64(m.RevocationSweepsTotal); got != 1 {
		t.Errorf("Expected 1 sweep, got %v", got)
	}
	if got := testutil.ToFloat64(m.RevocationSweptTotal); got != 40 {
		t.Errorf("Expected 40 swept entries, got %v", got)
	}

	m.ObserveRateLimitRejection("/api/auth/register")
	if got := testutil.ToFloat64(m.RateLimitRejectionsTotal.WithLabelValues("/api/auth/register")); got != 1 {
		t.Errorf("Expected 1 rejection, got %v", got)
	}

	m.RecordDBStats(sql.DBStats{InUse: 4, Idle: 6})
	if got := testutil.ToFloat64(m.DBConnectionsActive); got != 4 {
		t.Errorf("Expected 4 active connections, got %v", got)
	}
	if got := testutil.ToFloat64(m.DBConnectionsIdle); got != 6 {
		t.Errorf("Expected 6 idle connections, got %v", got)
	}
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	router := mux.NewRouter()
	router.Use(HTTPMetricsMiddleware(m))
	router.HandleFunc("/api/invitations/{id}/accept", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodPost)

	req := httptest.NewRequest(http.MethodPost, "/api/invitations/abc/accept", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	// The label is the route template, not the concrete path.
	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodPost, "/api/invitations/{id}/accept", "404"))
	if got != 1 {
		t.Errorf("Expected 1 request counted under the template, got %v", got)
	}
}

func TestHTTPMetricsMiddleware_NilMetrics(t *testing.T) {
	handler := HTTPMetricsMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("Expected 418, got %d", rec.Code)
	}
}

func TestRouteLabel_Unmatched(t *testing.T) {
	if got := RouteLabel(httptest.NewRequest(http.MethodGet, "/nowhere", nil)); got != "unmatched" {
		t.Errorf("Expected 'unmatched', got %s", got)
	}
}

func TestRegisterMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	m.ObserveTokenValidation("invalid")

	serveMux := http.NewServeMux()
	RegisterMetricsEndpoint(serveMux, registry)

	rec := httptest.NewRecorder()
	serveMux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `boq_token_validations_total{result="invalid"} 1`) {
		t.Errorf("Expected validation counter in output, got:\n%s", rec.Body.String())
	}
}
