package middleware

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/audit"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/auth"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/httputil"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/observability"
)

// RateLimitConfig defines rate limiting configuration
type RateLimitConfig struct {
	// MaxRequests is the number of requests allowed per window
	MaxRequests int
	// Window is the length of a window, measured from its first request
	Window time.Duration
}

// DefaultRateLimitConfig returns 100 requests per 15 minutes
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{MaxRequests: 100, Window: 15 * time.Minute}
}

func (c RateLimitConfig) withDefaults() RateLimitConfig {
	def := DefaultRateLimitConfig()
	if c.MaxRequests <= 0 {
		c.MaxRequests = def.MaxRequests
	}
	if c.Window <= 0 {
		c.Window = def.Window
	}
	return c
}

// Decision is the outcome of one rate limit check
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the time left until the window resets
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if d.ResetAt.After(now) {
		return d.ResetAt.Sub(now)
	}
	return 0
}

// RateLimitStore counts requests per key. Hit records one request at now
// and reports whether it is allowed.
type RateLimitStore interface {
	Hit(ctx context.Context, key string, now time.Time) (Decision, error)
}

type rateRecord struct {
	count int
	start time.Time
}

// MemoryRateLimitStore is a fixed window counter held in process memory.
// A record whose window has elapsed is reset to one rather than
// incremented, and every Hit drops all elapsed records.
type MemoryRateLimitStore struct {
	config RateLimitConfig

	mu      sync.Mutex
	records map[string]*rateRecord
}

// NewMemoryRateLimitStore creates an empty store
func NewMemoryRateLimitStore(config RateLimitConfig) *MemoryRateLimitStore {
	return &MemoryRateLimitStore{
		config:  config.withDefaults(),
		records: make(map[string]*rateRecord),
	}
}

// Hit implements RateLimitStore
func (s *MemoryRateLimitStore) Hit(_ context.Context, key string, now time.Time) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	window, limit := s.config.Window, s.config.MaxRequests
	d := Decision{Allowed: true, Limit: limit}

	rec, ok := s.records[key]
	switch {
	case !ok:
		rec = &rateRecord{count: 1, start: now}
		s.records[key] = rec
	case now.Sub(rec.start) >= window:
		rec.count = 1
		rec.start = now
	case rec.count >= limit:
		d.Allowed = false
	default:
		rec.count++
	}

	d.Remaining = limit - rec.count
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	d.ResetAt = rec.start.Add(window)

	for k, r := range s.records {
		if now.Sub(r.start) >= window {
			delete(s.records, k)
		}
	}

	return d, nil
}

// Len returns the number of live records
func (s *MemoryRateLimitStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// RateLimiterOptions configures the HTTP rate limiter
type RateLimiterOptions struct {
	// Backend names the store in metrics and logs
	Backend    string
	TrustProxy bool
	Logger     *observability.Logger
	Metrics    *observability.Metrics
}

// RateLimiter limits requests per client address. It is applied only to
// the unauthenticated register and login routes.
type RateLimiter struct {
	store      RateLimitStore
	backend    string
	trustProxy bool
	logger     *observability.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

// NewRateLimiter creates a rate limiter over store
func NewRateLimiter(store RateLimitStore, opts RateLimiterOptions) *RateLimiter {
	if opts.Backend == "" {
		opts.Backend = "memory"
	}
	if opts.Logger == nil {
		opts.Logger = observability.NewLogger(observability.InfoLevel, io.Discard)
	}
	return &RateLimiter{
		store:      store,
		backend:    opts.Backend,
		trustProxy: opts.TrustProxy,
		logger:     opts.Logger.WithField("component", "ratelimit"),
		metrics:    opts.Metrics,
		now:        time.Now,
	}
}

// Check records a request for key. It returns *auth.RateLimitedError when
// the budget is spent. A failing store lets the request through.
func (rl *RateLimiter) Check(ctx context.Context, key string) (Decision, error) {
	now := rl.now()
	d, err := rl.store.Hit(ctx, key, now)
	if err != nil {
		rl.metrics.ObserveRateLimitStoreError(rl.backend)
		rl.logger.WithError(err).WithField("backend", rl.backend).Warn("rate limit store unavailable, allowing request")
		return Decision{Allowed: true}, nil
	}
	if !d.Allowed {
		return d, &auth.RateLimitedError{RetryAfter: d.RetryAfter(now)}
	}
	return d, nil
}

// Handler wraps an HTTP handler
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := httputil.ClientIP(r, rl.trustProxy)
		d, err := rl.Check(r.Context(), "ip:"+ip)

		if d.Limit > 0 {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
		}

		if limited, ok := auth.IsRateLimited(err); ok {
			rl.metrics.ObserveRateLimitRejection(observability.RouteLabel(r))
			audit.FromContext(r.Context()).LogAuthentication(r.Context(), audit.EventTypeAuthRateLimited,
				"", "", audit.EventStatusDenied, "rate limit exceeded for "+ip)
			httputil.WriteTooManyRequests(w, "too many requests", limited.RetryAfterSeconds())
			return
		}

		next.ServeHTTP(w, r)
	})
}
