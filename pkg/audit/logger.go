package audit

import (
	"context"
	"time"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/contextkeys"
)

// Logger is the interface for audit logging
type Logger interface {
	// Log logs an audit event
	Log(ctx context.Context, event *AuditEvent) error

	// LogAuthentication logs an authentication event
	LogAuthentication(ctx context.Context, eventType EventType, userID, email string, status EventStatus, message string) error

	// LogAuthorization logs an authorization event
	LogAuthorization(ctx context.Context, eventType EventType, userID string, resourceType ResourceType, resourceID string, status EventStatus, message string) error

	// Close flushes and releases the sink
	Close() error
}

// RequestInfo is the HTTP context copied onto events
type RequestInfo struct {
	IPAddress string
	UserAgent string
	Method    string
	Path      string
}

type requestInfoKey struct{}

// WithLogger adds an audit logger to the context
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return contextkeys.WithAuditLogger(ctx, logger)
}

// FromContext retrieves the audit logger from context, or a no-op logger
func FromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(contextkeys.AuditLoggerKey).(Logger); ok {
		return logger
	}
	return NoOp()
}

// WithRequestInfo stores request details for events logged further down the stack
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// GetRequestInfo returns the request details stored by WithRequestInfo
func GetRequestInfo(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}

// NewEvent builds an event with the request context already filled in
func NewEvent(ctx context.Context, eventType EventType, status EventStatus) *AuditEvent {
	info := GetRequestInfo(ctx)
	return &AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Status:    status,
		IPAddress: info.IPAddress,
		UserAgent: info.UserAgent,
		Method:    info.Method,
		Path:      info.Path,
		RequestID: contextkeys.GetRequestID(ctx),
	}
}

// authenticationEvent and authorizationEvent back the convenience methods of
// every sink.
func authenticationEvent(ctx context.Context, eventType EventType, userID, email string, status EventStatus, message string) *AuditEvent {
	event := NewEvent(ctx, eventType, status)
	event.UserID = userID
	event.Email = email
	event.ResourceType = ResourceTypeAccount
	event.ResourceID = userID
	event.Message = message
	return event
}

func authorizationEvent(ctx context.Context, eventType EventType, userID string, resourceType ResourceType, resourceID string, status EventStatus, message string) *AuditEvent {
	event := NewEvent(ctx, eventType, status)
	event.UserID = userID
	event.ResourceType = resourceType
	event.ResourceID = resourceID
	event.Message = message
	return event
}

// NoOp returns a logger that discards everything
func NoOp() Logger {
	return noOpLogger{}
}

type noOpLogger struct{}

func (noOpLogger) Log(context.Context, *AuditEvent) error { return nil }

func (noOpLogger) LogAuthentication(context.Context, EventType, string, string, EventStatus, string) error {
	return nil
}

func (noOpLogger) LogAuthorization(context.Context, EventType, string, ResourceType, string, EventStatus, string) error {
	return nil
}

func (noOpLogger) Close() error { return nil }
