package audit

import (
	"context"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/observability"
)

// StructuredLogger writes audit events through the application logger,
// tagged with log_type=audit so they can be routed separately.
type StructuredLogger struct {
	logger *observability.Logger
}

// NewStructuredLogger creates an audit sink on top of logger
func NewStructuredLogger(logger *observability.Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger.WithField("log_type", "audit")}
}

func (l *StructuredLogger) Log(_ context.Context, event *AuditEvent) error {
	fields := map[string]interface{}{
		"event_type": string(event.EventType),
		"status":     string(event.Status),
	}
	setIf(fields, "user_id", event.UserID)
	setIf(fields, "email", event.Email)
	setIf(fields, "resource_type", string(event.ResourceType))
	setIf(fields, "resource_id", event.ResourceID)
	setIf(fields, "ip_address", event.IPAddress)
	setIf(fields, "request_id", event.RequestID)
	setIf(fields, "path", event.Path)
	for k, v := range event.Metadata {
		fields["meta_"+k] = v
	}

	entry := l.logger.WithFields(fields)
	if event.Status == EventStatusSuccess {
		entry.Info(event.Message)
	} else {
		entry.Warn(event.Message)
	}
	return nil
}

func (l *StructuredLogger) LogAuthentication(ctx context.Context, eventType EventType, userID, email string, status EventStatus, message string) error {
	return l.Log(ctx, authenticationEvent(ctx, eventType, userID, email, status, message))
}

func (l *StructuredLogger) LogAuthorization(ctx context.Context, eventType EventType, userID string, resourceType ResourceType, resourceID string, status EventStatus, message string) error {
	return l.Log(ctx, authorizationEvent(ctx, eventType, userID, resourceType, resourceID, status, message))
}

func (l *StructuredLogger) Close() error { return nil }

func setIf(fields map[string]interface{}, key, value string) {
	if value != "" {
		fields[key] = value
	}
}
