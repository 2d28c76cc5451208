package middleware

import (
	"fmt"
	"net/http"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/audit"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/auth"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/httputil"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/observability"
	"github.com/gorilla/mux"
)

// RequireRoles returns ErrForbidden unless principal holds one of allowed.
// An empty allowed list permits everyone.
func RequireRoles(principal *auth.Principal, allowed ...auth.Role) error {
	if len(allowed) == 0 {
		return nil
	}
	if !principal.HasRole(allowed...) {
		return fmt.Errorf("role not permitted: %w", auth.ErrForbidden)
	}
	return nil
}

// RoleGate enforces the role list declared on the matched route. It runs
// after AuthGate and trusts the principal's role as attached there.
type RoleGate struct {
	routes *RouteTable
}

// NewRoleGate creates the gate
func NewRoleGate(routes *RouteTable) *RoleGate {
	return &RoleGate{routes: routes}
}

// Handler wraps an HTTP handler
func (g *RoleGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		roles := g.routes.RequiredRoles(mux.CurrentRoute(r))
		principal := GetPrincipal(r.Context())

		if err := RequireRoles(principal, roles...); err != nil {
			userID := ""
			if principal != nil {
				userID = principal.ID
			}
			audit.FromContext(r.Context()).LogAuthorization(r.Context(), audit.EventTypeAuthzAccessDenied,
				userID, audit.ResourceTypeRoute, observability.RouteLabel(r), audit.EventStatusDenied, err.Error())
			httputil.WriteForbidden(w, "forbidden")
			return
		}

		next.ServeHTTP(w, r)
	})
}
