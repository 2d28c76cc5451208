package audit

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLogger_Basic(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewFileLogger(FileLoggerConfig{Dir: dir})
	require.NoError(t, err)
	defer logger.Close()

	ctx := context.Background()
	require.NoError(t, logger.LogAuthentication(ctx, EventTypeAuthLogin, "user-1", "a@example.com", EventStatusSuccess, "login"))
	require.NoError(t, logger.LogAuthentication(ctx, EventTypeAuthLoginFailed, "", "a@example.com", EventStatusFailure, "bad password"))

	assert.FileExists(t, filepath.Join(dir, "audit.log"))

	events, err := logger.ReadLogs(0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventTypeAuthLogin, events[0].EventType)
	assert.Equal(t, "user-1", events[0].UserID)
	assert.Equal(t, EventStatusFailure, events[1].Status)

	limited, err := logger.ReadLogs(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestFileLogger_Rotation(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewFileLogger(FileLoggerConfig{Dir: dir, MaxSize: 64, MaxFiles: 2})
	require.NoError(t, err)
	defer logger.Close()

	for i := 0; i < 6; i++ {
		require.NoError(t, logger.Log(context.Background(), &AuditEvent{
			Timestamp: time.Now().UTC(),
			EventType: EventTypeAuthLogout,
			Status:    EventStatusSuccess,
			Message:   "a message long enough to cross the rotation size",
		}))
		// rotated names have millisecond resolution
		time.Sleep(2 * time.Millisecond)
	}

	rotated, err := filepath.Glob(filepath.Join(dir, "audit-*.log"))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(rotated), 2)
	assert.NotEmpty(t, rotated)
}

func TestFileLogger_RequiresDir(t *testing.T) {
	_, err := NewFileLogger(FileLoggerConfig{})
	assert.Error(t, err)
}

func TestFileLogger_LogAfterClose(t *testing.T) {
	logger, err := NewFileLogger(FileLoggerConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, logger.Close())

	assert.Error(t, logger.Log(context.Background(), &AuditEvent{}))
	_, statErr := os.Stat(logger.dir)
	assert.NoError(t, statErr)
}
