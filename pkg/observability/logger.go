package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/contextkeys"
	"go.opentelemetry.io/otel/trace"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLogLevel maps a config string to a level, defaulting to info
func ParseLogLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func (l LogLevel) toSlogLevel() slog.Level {
	switch l {
	case DebugLevel:
		return slog.LevelDebug
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// sensitiveKeys never reach the log output, whatever the call site passes
var sensitiveKeys = map[string]bool{
	"password":      true,
	"password_hash": true,
	"token":         true,
	"access_token":  true,
	"refresh_token": true,
	"authorization": true,
	"cookie":        true,
	"secret":        true,
}

const redacted = "[REDACTED]"

func redact(_ []string, a slog.Attr) slog.Attr {
	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, redacted)
	}
	return a
}

// Logger writes JSON lines through slog with credential fields redacted
type Logger struct {
	logger *slog.Logger
	level  LogLevel
	// bound holds the keys attached with With*; never mutated once shared
	bound map[string]bool
}

// NewLogger creates a JSON logger writing to output (stdout when nil)
func NewLogger(level LogLevel, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level:       level.toSlogLevel(),
		ReplaceAttr: redact,
	})
	return &Logger{logger: slog.New(handler), level: level}
}

// Level returns the minimum level this logger emits
func (l *Logger) Level() LogLevel {
	return l.level
}

// WithField adds a field to the logger context
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.with(key, value)
}

// WithFields adds multiple fields to the logger context
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return l.with(args...)
}

// Has reports whether key was already attached to this logger
func (l *Logger) Has(key string) bool {
	return l.bound[key]
}

// with expects alternating string keys and values
func (l *Logger) with(args ...interface{}) *Logger {
	if len(args) == 0 {
		return l
	}
	bound := make(map[string]bool, len(l.bound)+len(args)/2)
	for k := range l.bound {
		bound[k] = true
	}
	for i := 0; i+1 < len(args); i += 2 {
		if k, ok := args[i].(string); ok {
			bound[k] = true
		}
	}
	return &Logger{logger: l.logger.With(args...), level: l.level, bound: bound}
}

// WithError adds an error to the logger context
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

func (l *Logger) Debug(message string) { l.logger.Debug(message) }
func (l *Logger) Info(message string)  { l.logger.Info(message) }
func (l *Logger) Warn(message string)  { l.logger.Warn(message) }
func (l *Logger) Error(message string) { l.logger.Error(message) }

func (l *Logger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return contextkeys.WithLogger(ctx, logger)
}

// GetLogger retrieves the logger from context, falling back to an info
// level stdout logger.
func GetLogger(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextkeys.LoggerKey).(*Logger); ok {
		return logger
	}
	return NewLogger(InfoLevel, os.Stdout)
}

// FromContext returns the context logger tagged with the request id, the
// authenticated principal and the active trace, whichever are present and
// not already attached to it
func FromContext(ctx context.Context) *Logger {
	logger := GetLogger(ctx)

	var args []interface{}
	if requestID := contextkeys.GetRequestID(ctx); requestID != "" && !logger.Has("request_id") {
		args = append(args, "request_id", requestID)
	}
	if userID := contextkeys.GetUserID(ctx); userID != "" && !logger.Has("user_id") {
		args = append(args, "user_id", userID)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() && !logger.Has("trace_id") {
		args = append(args, "trace_id", sc.TraceID().String())
	}
	return logger.with(args...)
}
