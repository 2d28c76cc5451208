package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/audit"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/auth"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/contextkeys"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/httputil"
	"github.com/gorilla/mux"
)

// AuthCookieName is the http-only cookie that carries the access token
const AuthCookieName = "auth_token"

// TokenValidator resolves an access token to a principal
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*auth.Principal, error)
}

// AuthGate authenticates every request whose route is not public
type AuthGate struct {
	validator TokenValidator
	routes    *RouteTable
}

// NewAuthGate creates the gate. It must be installed with Router.Use so the
// matched route is known.
func NewAuthGate(validator TokenValidator, routes *RouteTable) *AuthGate {
	return &AuthGate{validator: validator, routes: routes}
}

// Handler wraps an HTTP handler
func (g *AuthGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.routes.IsPublic(mux.CurrentRoute(r)) {
			next.ServeHTTP(w, r)
			return
		}

		token := ExtractToken(r)
		if token == "" {
			httputil.WriteUnauthorized(w, "unauthorized")
			return
		}

		principal, err := g.validator.ValidateToken(r.Context(), token)
		if err != nil {
			audit.FromContext(r.Context()).LogAuthentication(r.Context(), audit.EventTypeAuthTokenValidateFail,
				"", "", audit.EventStatusFailure, "token rejected")
			httputil.WriteUnauthorized(w, "unauthorized")
			return
		}

		ctx := contextkeys.WithPrincipal(r.Context(), principal)
		ctx = contextkeys.WithIsConsultant(ctx, principal.IsConsultant())
		ctx = contextkeys.WithUserID(ctx, principal.ID)
		ctx = contextkeys.WithToken(ctx, token)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ExtractToken returns the bearer credential of r. The Authorization header
// takes precedence; the cookie is only consulted when the header is absent.
// A malformed header yields no credential.
func ExtractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return ""
		}
		return strings.TrimSpace(parts[1])
	}

	if cookie, err := r.Cookie(AuthCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// GetPrincipal returns the principal attached by AuthGate, or nil
func GetPrincipal(ctx context.Context) *auth.Principal {
	principal, _ := ctx.Value(contextkeys.PrincipalKey).(*auth.Principal)
	return principal
}
