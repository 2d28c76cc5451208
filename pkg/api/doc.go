// Package api provides the HTTP REST API for the BOQ backend's account,
// session and project collaboration endpoints.
//
// # Overview
//
// Server wires the auth and invitation services behind gorilla/mux. Every
// route is registered through a middleware.RouteTable so the auth gate and
// the role gate, installed with Router.Use, can read the policy of the
// matched route:
//
//	srv, err := api.NewServer(api.ServerConfig{
//		Auth:        authService,
//		Invitations: invitationService,
//		Limiter:     limiter,
//		Logger:      logger,
//	})
//	http.ListenAndServe(":8080", srv)
//
// # Routes
//
//	POST /api/auth/register                   public, rate limited
//	POST /api/auth/login                      public, rate limited
//	POST /api/auth/admin/login                public, rate limited
//	POST /api/auth/refresh                    public
//	POST /api/auth/logout                     authenticated
//	GET  /api/auth/me                         authenticated
//	POST /api/projects/{projectID}/invitations consultant, contractor or admin
//	GET  /api/invitations                     authenticated
//	POST /api/invitations/{id}/accept         authenticated
//	POST /api/invitations/{id}/reject         authenticated
//	GET  /api/admin/ping                      admin
//
// Routes not registered in the table are treated as protected.
//
// # Sessions
//
// Register and the login endpoints return the token pair in the body and
// also set the access token as the http-only, SameSite=Strict auth_token
// cookie. The gate accepts either a Bearer header or the cookie; logout
// revokes the presented token and clears the cookie.
//
// # Errors
//
// Service errors are classified with errors.Is against the auth error
// taxonomy:
//
//	auth.ErrUnauthorized    401
//	auth.ErrForbidden       403
//	auth.ErrNotFound        404
//	auth.ErrConflict        409
//	auth.ErrExpired         410
//	*auth.RateLimitedError  429 with Retry-After
//	auth.ErrValidation      400
//
// Anything else is logged and answered with a generic 500.
package api
