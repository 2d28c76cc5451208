package audit

import (
	"net/http"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/httputil"
)

// Middleware puts the audit logger and the request details into the
// request context so services deeper in the stack can emit complete events.
type Middleware struct {
	logger     Logger
	trustProxy bool
}

// NewMiddleware creates a new audit middleware
func NewMiddleware(logger Logger, trustProxy bool) *Middleware {
	if logger == nil {
		logger = NoOp()
	}
	return &Middleware{logger: logger, trustProxy: trustProxy}
}

// Handler wraps an HTTP handler
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithLogger(r.Context(), m.logger)
		ctx = WithRequestInfo(ctx, RequestInfo{
			IPAddress: httputil.ClientIP(r, m.trustProxy),
			UserAgent: r.UserAgent(),
			Method:    r.Method,
			Path:      r.URL.Path,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
