package api

import (
	"errors"
	"net/http"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/audit"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/auth"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/httputil"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/invitations"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/middleware"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/observability"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

// ServerConfig wires the HTTP server
type ServerConfig struct {
	Auth        *auth.Service
	Invitations *invitations.Service

	// Limiter guards the credential endpoints. Nil disables rate limiting.
	Limiter *middleware.RateLimiter

	Audit   audit.Logger
	Logger  *observability.Logger
	Metrics *observability.Metrics

	CORSOrigins  []string
	TrustProxy   bool
	CookieSecure bool

	// Tracing wraps the handler in otelhttp
	Tracing bool
}

// Server is the BOQ API server
type Server struct {
	router  *mux.Router
	routes  *middleware.RouteTable
	handler http.Handler

	authHandlers       *AuthHandlers
	invitationHandlers *InvitationHandlers
}

// NewServer creates a new API server
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Auth == nil {
		return nil, errors.New("auth service is required")
	}
	if cfg.Invitations == nil {
		return nil, errors.New("invitation service is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	s := &Server{
		router:             mux.NewRouter(),
		routes:             middleware.NewRouteTable(),
		authHandlers:       NewAuthHandlers(cfg.Auth, cfg.Limiter, cfg.CookieSecure),
		invitationHandlers: NewInvitationHandlers(cfg.Invitations),
	}

	s.setupRoutes()

	// Route-aware middleware runs after matching so it can read the
	// route's policy.
	s.router.Use(
		observability.HTTPMetricsMiddleware(cfg.Metrics),
		middleware.NewAuthGate(cfg.Auth, s.routes).Handler,
		middleware.NewRoleGate(s.routes).Handler,
	)

	chain := httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(cfg.Logger),
		httputil.RecoveryMiddleware(cfg.Logger),
		httputil.CORSMiddleware(cfg.CORSOrigins),
		audit.NewMiddleware(cfg.Audit, cfg.TrustProxy).Handler,
		httputil.ContentTypeMiddleware,
		httputil.MaxBytesMiddleware(maxBodyBytes),
	)
	s.handler = chain(s.router)
	if cfg.Tracing {
		s.handler = otelhttp.NewHandler(s.handler, "boq-api",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}))
	}

	return s, nil
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	s.authHandlers.RegisterRoutes(s.routes, api)
	s.invitationHandlers.RegisterRoutes(s.routes, api)

	admin := s.routes.Group(api, "/admin", middleware.Roles(auth.RoleAdmin))
	admin.HandleFunc(http.MethodGet, "/ping", s.adminPing)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Router exposes the underlying router
func (s *Server) Router() *mux.Router {
	return s.router
}

func (s *Server) adminPing(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	httputil.WriteSuccess(w, map[string]string{
		"status": "ok",
		"admin":  principal.ID,
	})
}
