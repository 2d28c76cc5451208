// Package contextkeys provides centralized context key definitions
//
// All context keys used across the application are defined here so that
// every producer and consumer of a value agrees on one key.
//
// USAGE PATTERN:
//
//	ctx = contextkeys.WithPrincipal(ctx, principal)
//	principal, _ := ctx.Value(contextkeys.PrincipalKey).(*auth.Principal)
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// PrincipalKey contains *auth.Principal
	// Set by: middleware.AuthGate (pkg/middleware/auth.go)
	// Required by: RoleGate, every protected handler
	// Type: *auth.Principal
	PrincipalKey Key = "principal"

	// IsConsultantKey contains a bool derived from the principal's role
	// Set by: middleware.AuthGate
	// Used by: handlers that branch on consultant access
	// Type: bool
	IsConsultantKey Key = "is_consultant"

	// TokenKey contains the raw bearer credential of the request
	// Set by: middleware.AuthGate
	// Used by: logout handler
	// Type: string
	TokenKey Key = "bearer_token"

	// RequestIDKey contains request ID string (UUID)
	// Set by: httputil.RequestIDMiddleware
	// Used by: Logger, audit trail
	// Type: string
	RequestIDKey Key = "request_id"

	// UserIDKey contains the authenticated principal's id
	// Set by: middleware.AuthGate
	// Used by: Logger, audit trail
	// Type: string
	UserIDKey Key = "user_id"

	// LoggerKey contains *observability.Logger
	// Set by: httputil.LoggingMiddleware
	// Used by: Handlers that need structured logging with request context
	// Type: *observability.Logger
	LoggerKey Key = "logger"

	// AuditLoggerKey contains audit.Logger interface
	// Set by: Audit middleware (pkg/audit/middleware.go)
	// Used by: services that record audit events
	// Type: audit.Logger
	AuditLoggerKey Key = "audit_logger"
)

// WithPrincipal adds the authenticated principal to the context
func WithPrincipal(ctx context.Context, principal interface{}) context.Context {
	return context.WithValue(ctx, PrincipalKey, principal)
}

// WithIsConsultant adds the consultant convenience flag to the context
func WithIsConsultant(ctx context.Context, isConsultant bool) context.Context {
	return context.WithValue(ctx, IsConsultantKey, isConsultant)
}

// WithToken adds the raw bearer credential to the context
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, TokenKey, token)
}

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithUserID adds user ID to the context
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// WithLogger adds logger to the context
func WithLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// WithAuditLogger adds audit logger to the context
func WithAuditLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, AuditLoggerKey, logger)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetUserID retrieves user ID from context
func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(UserIDKey).(string); ok {
		return userID
	}
	return ""
}

// GetToken retrieves the raw bearer credential from context
func GetToken(ctx context.Context) string {
	if token, ok := ctx.Value(TokenKey).(string); ok {
		return token
	}
	return ""
}

// IsConsultant reports the consultant flag set by the auth gate
func IsConsultant(ctx context.Context) bool {
	v, _ := ctx.Value(IsConsultantKey).(bool)
	return v
}
