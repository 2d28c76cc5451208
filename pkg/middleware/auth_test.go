package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/auth"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/contextkeys"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeValidator struct {
	tokens map[string]*auth.Principal
	seen   []string
}

func (f *fakeValidator) ValidateToken(_ context.Context, token string) (*auth.Principal, error) {
	f.seen = append(f.seen, token)
	if p, ok := f.tokens[token]; ok {
		return p, nil
	}
	return nil, auth.ErrInvalidToken
}

func newGatedRouter(validator TokenValidator) (*mux.Router, *RouteTable) {
	router := mux.NewRouter()
	routes := NewRouteTable()
	router.Use(NewAuthGate(validator, routes).Handler, NewRoleGate(routes).Handler)
	return router, routes
}

func echoPrincipal(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())
	if p == nil {
		w.Write([]byte("anonymous"))
		return
	}
	if contextkeys.IsConsultant(r.Context()) {
		w.Header().Set("X-Consultant", "true")
	}
	w.Write([]byte(p.ID))
}

func TestAuthGate(t *testing.T) {
	validator := &fakeValidator{tokens: map[string]*auth.Principal{
		"good":       {ID: "u1", Role: auth.RoleUser, Kind: auth.KindUser},
		"consultant": {ID: "u2", Role: auth.RoleConsultant, Kind: auth.KindUser},
		"cookie":     {ID: "u3", Role: auth.RoleUser, Kind: auth.KindUser},
	}}
	router, routes := newGatedRouter(validator)

	public := routes.Group(router, "/api/auth", Public())
	public.HandleFunc(http.MethodPost, "/login", echoPrincipal)
	public.HandleFunc(http.MethodGet, "/me", echoPrincipal, Protected())

	api := routes.Group(router, "/api")
	api.HandleFunc(http.MethodGet, "/things", echoPrincipal)

	tests := []struct {
		name       string
		path       string
		method     string
		header     string
		cookie     string
		wantStatus int
		wantBody   string
	}{
		{name: "public route bypasses", method: http.MethodPost, path: "/api/auth/login", wantStatus: 200, wantBody: "anonymous"},
		{name: "handler overrides public group", method: http.MethodGet, path: "/api/auth/me", wantStatus: 401},
		{name: "missing credential", method: http.MethodGet, path: "/api/things", wantStatus: 401},
		{name: "bearer header", method: http.MethodGet, path: "/api/things", header: "Bearer good", wantStatus: 200, wantBody: "u1"},
		{name: "lowercase scheme", method: http.MethodGet, path: "/api/things", header: "bearer good", wantStatus: 200, wantBody: "u1"},
		{name: "cookie fallback", method: http.MethodGet, path: "/api/things", cookie: "cookie", wantStatus: 200, wantBody: "u3"},
		{name: "header wins over cookie", method: http.MethodGet, path: "/api/things", header: "Bearer good", cookie: "cookie", wantStatus: 200, wantBody: "u1"},
		{name: "malformed header", method: http.MethodGet, path: "/api/things", header: "Basic Zm9vOmJhcg==", cookie: "cookie", wantStatus: 401},
		{name: "invalid token", method: http.MethodGet, path: "/api/things", header: "Bearer bad", wantStatus: 401},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
			if tt.wantStatus == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
			}
		})
	}
}

func TestAuthGate_ConsultantFlag(t *testing.T) {
	validator := &fakeValidator{tokens: map[string]*auth.Principal{
		"consultant": {ID: "u2", Role: auth.RoleConsultant},
		"user":       {ID: "u1", Role: auth.RoleUser},
	}}
	router, routes := newGatedRouter(validator)
	routes.Group(router, "/api").HandleFunc(http.MethodGet, "/x", echoPrincipal)

	req := httptest.NewRequest(http.MethodGet, "/api/x", nil)
	req.Header.Set("Authorization", "Bearer consultant")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "true", w.Header().Get("X-Consultant"))

	req = httptest.NewRequest(http.MethodGet, "/api/x", nil)
	req.Header.Set("Authorization", "Bearer user")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("X-Consultant"))
}

func TestAuthGate_StoresTokenInContext(t *testing.T) {
	validator := &fakeValidator{tokens: map[string]*auth.Principal{"good": {ID: "u1"}}}
	router, routes := newGatedRouter(validator)

	var token string
	routes.Group(router, "/api").HandleFunc(http.MethodPost, "/logout", func(w http.ResponseWriter, r *http.Request) {
		token = contextkeys.GetToken(r.Context())
	})

	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.Header.Set("Authorization", "Bearer good")
	router.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, "good", token)
}

func TestExtractToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, ExtractToken(req))

	req.Header.Set("Authorization", "Bearer   spaced  ")
	assert.Equal(t, "spaced", ExtractToken(req))

	req.Header.Set("Authorization", "Bearer")
	assert.Empty(t, ExtractToken(req))
}
