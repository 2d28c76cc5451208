package observability

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Probe checks one backing dependency. A failing required probe makes the
// service unready; a failing optional probe only degrades it.
type Probe struct {
	Name     string
	Required bool
	Ping     func(ctx context.Context) error
}

// DatabaseProbe pings the account and invitation store
func DatabaseProbe(db *sql.DB) Probe {
	return Probe{Name: "database", Required: true, Ping: db.PingContext}
}

// RedisProbe pings the shared rate limit backend
func RedisProbe(client *redis.Client) Probe {
	return Probe{
		Name: "redis",
		Ping: func(ctx context.Context) error { return client.Ping(ctx).Err() },
	}
}

// HealthStatus is the readiness report body
type HealthStatus struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Version      string                      `json:"version,omitempty"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

type DependencyStatus struct {
	Status    string `json:"status"`
	Required  bool   `json:"required"`
	Message   string `json:"message,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// HealthChecker runs its probes concurrently on every readiness request
type HealthChecker struct {
	version string
	timeout time.Duration
	probes  []Probe
}

func NewHealthChecker(version string, probes ...Probe) *HealthChecker {
	return &HealthChecker{version: version, timeout: 5 * time.Second, probes: probes}
}

// Add registers another probe. Not safe to call while serving.
func (h *HealthChecker) Add(p Probe) {
	h.probes = append(h.probes, p)
}

func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	results := make([]DependencyStatus, len(h.probes))
	var wg sync.WaitGroup
	for i, p := range h.probes {
		wg.Add(1)
		go func(i int, p Probe) {
			defer wg.Done()
			start := time.Now()
			err := p.Ping(ctx)
			results[i] = DependencyStatus{
				Status:    StatusHealthy,
				Required:  p.Required,
				LatencyMS: time.Since(start).Milliseconds(),
			}
			if err != nil {
				results[i].Status = StatusUnhealthy
				results[i].Message = err.Error()
			}
		}(i, p)
	}
	wg.Wait()

	status := HealthStatus{
		Status:       StatusHealthy,
		Timestamp:    time.Now().UTC(),
		Version:      h.version,
		Dependencies: make(map[string]DependencyStatus, len(results)),
	}
	for i, dep := range results {
		status.Dependencies[h.probes[i].Name] = dep
		if dep.Status != StatusUnhealthy {
			continue
		}
		if dep.Required {
			status.Status = StatusUnhealthy
		} else if status.Status == StatusHealthy {
			status.Status = StatusDegraded
		}
	}
	return status
}

// Liveness answers 200 while the process is serving
func (h *HealthChecker) Liveness(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, http.StatusOK, HealthStatus{Status: StatusHealthy, Timestamp: time.Now().UTC(), Version: h.version})
}

// Readiness answers 503 only when a required probe fails
func (h *HealthChecker) Readiness(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())
	code := http.StatusOK
	if status.Status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeHealth(w, code, status)
}

func writeHealth(w http.ResponseWriter, code int, status HealthStatus) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}

// RegisterHealthRoutes mounts /health, /health/live and /health/ready
func RegisterHealthRoutes(serveMux *http.ServeMux, checker *HealthChecker) {
	serveMux.HandleFunc("/health", checker.Readiness)
	serveMux.HandleFunc("/health/live", checker.Liveness)
	serveMux.HandleFunc("/health/ready", checker.Readiness)
}
