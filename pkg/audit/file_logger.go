package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FileLogger appends audit events to a newline-delimited JSON file
type FileLogger struct {
	dir      string
	maxSize  int64
	maxFiles int

	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
}

// FileLoggerConfig configures the file logger
type FileLoggerConfig struct {
	Dir      string // Directory holding audit.log and its rotations
	MaxSize  int64  // Rotate once audit.log reaches this many bytes (default: 50MB)
	MaxFiles int    // Rotated files to keep (default: 5)
}

const currentAuditFile = "audit.log"

// NewFileLogger opens (or creates) dir/audit.log
func NewFileLogger(config FileLoggerConfig) (*FileLogger, error) {
	if config.Dir == "" {
		return nil, fmt.Errorf("audit log directory is required")
	}
	if err := os.MkdirAll(config.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}
	if config.MaxSize <= 0 {
		config.MaxSize = 50 * 1024 * 1024
	}
	if config.MaxFiles <= 0 {
		config.MaxFiles = 5
	}

	l := &FileLogger{dir: config.Dir, maxSize: config.MaxSize, maxFiles: config.MaxFiles}
	if err := l.open(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *FileLogger) open() error {
	file, err := os.OpenFile(filepath.Join(l.dir, currentAuditFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit log file: %w", err)
	}
	l.file = file
	l.encoder = json.NewEncoder(file)
	return nil
}

// rotate must be called with mu held
func (l *FileLogger) rotate() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	rotated := filepath.Join(l.dir, fmt.Sprintf("audit-%s.log", time.Now().UTC().Format("20060102T150405.000")))
	if err := os.Rename(filepath.Join(l.dir, currentAuditFile), rotated); err != nil {
		return fmt.Errorf("failed to rename audit log: %w", err)
	}

	// Timestamped names sort chronologically.
	old, err := filepath.Glob(filepath.Join(l.dir, "audit-*.log"))
	if err == nil && len(old) > l.maxFiles {
		sort.Strings(old)
		for _, f := range old[:len(old)-l.maxFiles] {
			os.Remove(f)
		}
	}

	return l.open()
}

// Log writes one event per line
func (l *FileLogger) Log(_ context.Context, event *AuditEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("audit log is closed")
	}

	if info, err := l.file.Stat(); err == nil && info.Size() >= l.maxSize {
		if err := l.rotate(); err != nil {
			return err
		}
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (l *FileLogger) LogAuthentication(ctx context.Context, eventType EventType, userID, email string, status EventStatus, message string) error {
	return l.Log(ctx, authenticationEvent(ctx, eventType, userID, email, status, message))
}

func (l *FileLogger) LogAuthorization(ctx context.Context, eventType EventType, userID string, resourceType ResourceType, resourceID string, status EventStatus, message string) error {
	return l.Log(ctx, authorizationEvent(ctx, eventType, userID, resourceType, resourceID, status, message))
}

// Close closes the underlying file
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// ReadLogs reads up to count events from the current file (0 means all)
func (l *FileLogger) ReadLogs(count int) ([]*AuditEvent, error) {
	file, err := os.Open(filepath.Join(l.dir, currentAuditFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer file.Close()

	var events []*AuditEvent
	decoder := json.NewDecoder(file)
	for count <= 0 || len(events) < count {
		var event AuditEvent
		if err := decoder.Decode(&event); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to decode audit log entry: %w", err)
		}
		events = append(events, &event)
	}
	return events, nil
}
