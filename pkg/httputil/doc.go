// Response helpers:
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteUnauthorized(w, "unauthorized")
//	httputil.WriteTooManyRequests(w, "too many requests", 42)
//
// Every error body has the shape {"error": "..."}; 429 responses add
// "retry_after".
//
// Request parsing:
//
//	var req RegisterRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return
//	}
//	id, ok := httputil.ParsePathStringOrError(w, r, "id")
//
// Middleware:
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//		httputil.MaxBytesMiddleware(1<<20),
//	)
//
// Authentication and authorization middleware live in pkg/middleware.
package httputil
