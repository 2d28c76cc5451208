package api

import (
	"net/http"
	"time"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/auth"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/contextkeys"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/httputil"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/middleware"
	"github.com/gorilla/mux"
)

// AuthHandlers serves the authentication endpoints
type AuthHandlers struct {
	service      *auth.Service
	limiter      *middleware.RateLimiter
	cookieSecure bool
}

// NewAuthHandlers creates the handlers. limiter may be nil.
func NewAuthHandlers(service *auth.Service, limiter *middleware.RateLimiter, cookieSecure bool) *AuthHandlers {
	return &AuthHandlers{service: service, limiter: limiter, cookieSecure: cookieSecure}
}

// RegisterRoutes mounts the handlers under /auth
func (h *AuthHandlers) RegisterRoutes(routes *middleware.RouteTable, router *mux.Router) {
	g := routes.Group(router, "/auth")

	g.Handle(http.MethodPost, "/register", h.limited(h.register), middleware.Public())
	g.Handle(http.MethodPost, "/login", h.limited(h.login), middleware.Public())
	g.Handle(http.MethodPost, "/admin/login", h.limited(h.adminLogin), middleware.Public())
	g.HandleFunc(http.MethodPost, "/refresh", h.refresh, middleware.Public())

	g.HandleFunc(http.MethodPost, "/logout", h.logout)
	g.HandleFunc(http.MethodGet, "/me", h.me)
}

func (h *AuthHandlers) limited(f http.HandlerFunc) http.Handler {
	if h.limiter == nil {
		return f
	}
	return h.limiter.Handler(f)
}

// LoginRequest is the body of the login endpoints
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the body of the refresh endpoint
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshResponse carries the newly minted access token
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// register handles POST /auth/register
func (h *AuthHandlers) register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	pair, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.setAuthCookie(w, pair.AccessToken)
	httputil.WriteCreated(w, pair)
}

// login handles POST /auth/login
func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		httputil.WriteBadRequest(w, "email and password are required")
		return
	}

	pair, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.setAuthCookie(w, pair.AccessToken)
	httputil.WriteSuccess(w, pair)
}

// adminLogin handles POST /auth/admin/login
func (h *AuthHandlers) adminLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		httputil.WriteBadRequest(w, "email and password are required")
		return
	}

	pair, err := h.service.AdminLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.setAuthCookie(w, pair.AccessToken)
	httputil.WriteSuccess(w, pair)
}

// refresh handles POST /auth/refresh
func (h *AuthHandlers) refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		httputil.WriteBadRequest(w, "refresh_token is required")
		return
	}

	access, err := h.service.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.setAuthCookie(w, access)
	httputil.WriteSuccess(w, RefreshResponse{AccessToken: access})
}

// logout handles POST /auth/logout
func (h *AuthHandlers) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), contextkeys.GetToken(r.Context())); err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.clearAuthCookie(w)
	httputil.WriteNoContent(w)
}

// me handles GET /auth/me
func (h *AuthHandlers) me(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	httputil.WriteSuccess(w, map[string]interface{}{
		"user":          principal,
		"is_consultant": contextkeys.IsConsultant(r.Context()),
	})
}

func (h *AuthHandlers) setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.service.AccessTTL() / time.Second),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandlers) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}
