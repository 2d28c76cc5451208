// Package middleware provides HTTP middleware for authentication,
// authorization and rate limiting.
//
// Routes are registered through a RouteTable so the gates can read their
// access policy:
//
//	routes := middleware.NewRouteTable()
//	authGroup := routes.Group(router, "/api/auth", middleware.Public())
//	authGroup.HandleFunc(http.MethodGet, "/me", me, middleware.Protected())
//
//	admin := routes.Group(router, "/api/admin", middleware.Roles(auth.RoleAdmin))
//
//	router.Use(
//		middleware.NewAuthGate(authService, routes).Handler,
//		middleware.NewRoleGate(routes).Handler,
//	)
//
// Handler level options override group level options.
//
// RateLimiter guards the unauthenticated register and login endpoints.
// MemoryRateLimitStore keeps counters in process memory;
// RedisRateLimitStore shares them between instances and fails open.
package middleware
