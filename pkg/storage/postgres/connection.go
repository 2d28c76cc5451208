package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/observability"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/storage"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// ConnectionManager owns the PostgreSQL connection pool
type ConnectionManager struct {
	db     *sql.DB
	config storage.Config
	logger *observability.Logger
}

// NewConnectionManager opens the pool described by config and pings it
func NewConnectionManager(ctx context.Context, config storage.Config, logger *observability.Logger) (*ConnectionManager, error) {
	db, err := sql.Open("postgres", config.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	cm := newConnectionManager(db, config, logger)

	pingCtx, cancel := context.WithTimeout(ctx, config.PostgresTimeout)
	defer cancel()

	if err := cm.HealthCheck(pingCtx); err != nil {
		db.Close()
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"max_conns": config.PostgresMaxConns,
		"min_conns": config.PostgresMinConns,
	}).Info("connected to postgres")

	return cm, nil
}

func newConnectionManager(db *sql.DB, config storage.Config, logger *observability.Logger) *ConnectionManager {
	if config.PostgresTimeout <= 0 {
		config.PostgresTimeout = 10 * time.Second
	}

	db.SetMaxOpenConns(config.PostgresMaxConns)
	db.SetMaxIdleConns(config.PostgresMinConns)
	db.SetConnMaxLifetime(config.PostgresMaxLifetime)
	db.SetConnMaxIdleTime(config.PostgresMaxIdleTime)

	return &ConnectionManager{db: db, config: config, logger: logger}
}

// DB returns the pool
func (cm *ConnectionManager) DB() *sql.DB {
	return cm.db
}

// HealthCheck pings the database
func (cm *ConnectionManager) HealthCheck(ctx context.Context) error {
	if err := cm.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres unhealthy: %w", err)
	}
	return nil
}

// Stats returns connection pool statistics
func (cm *ConnectionManager) Stats() sql.DBStats {
	return cm.db.Stats()
}

// Close closes the pool
func (cm *ConnectionManager) Close() error {
	if err := cm.db.Close(); err != nil {
		return fmt.Errorf("postgres close error: %w", err)
	}
	return nil
}

// StartStatsRoutine copies pool statistics into metrics every interval
// until ctx is done.
func (cm *ConnectionManager) StartStatsRoutine(ctx context.Context, interval time.Duration, metrics *observability.Metrics) {
	if metrics == nil {
		return
	}
	if interval == 0 {
		interval = 15 * time.Second
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		defer observability.RecoverPanic(cm.logger, "postgres stats routine")

		for {
			select {
			case <-ticker.C:
				metrics.RecordDBStats(cm.db.Stats())
			case <-ctx.Done():
				return
			}
		}
	}()
}
