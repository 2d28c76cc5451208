package audit

import (
	"context"
	"errors"
)

// MultiLogger fans every event out to several sinks. A failing sink does
// not stop delivery to the others.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a logger writing to all of loggers
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// Log delivers event to every sink and joins their errors
func (m *MultiLogger) Log(ctx context.Context, event *AuditEvent) error {
	var errs []error
	for _, l := range m.loggers {
		if err := l.Log(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiLogger) LogAuthentication(ctx context.Context, eventType EventType, userID, email string, status EventStatus, message string) error {
	return m.Log(ctx, authenticationEvent(ctx, eventType, userID, email, status, message))
}

func (m *MultiLogger) LogAuthorization(ctx context.Context, eventType EventType, userID string, resourceType ResourceType, resourceID string, status EventStatus, message string) error {
	return m.Log(ctx, authorizationEvent(ctx, eventType, userID, resourceType, resourceID, status, message))
}

// Close closes all sinks
func (m *MultiLogger) Close() error {
	var errs []error
	for _, l := range m.loggers {
		if err := l.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
