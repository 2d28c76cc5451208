package storage

import "time"

// Config for the relational store, the optional Redis instance and the
// account lookup cache
type Config struct {
	// PostgreSQL config. An empty URL selects the in-memory stores.
	PostgresURL         string        `yaml:"postgres_url"`
	PostgresMaxConns    int           `yaml:"postgres_max_conns"`
	PostgresMinConns    int           `yaml:"postgres_min_conns"`
	PostgresTimeout     time.Duration `yaml:"postgres_timeout"`
	PostgresMaxLifetime time.Duration `yaml:"postgres_max_lifetime"`
	PostgresMaxIdleTime time.Duration `yaml:"postgres_max_idle_time"`
	AutoMigrate         bool          `yaml:"auto_migrate"`

	// Redis config. Only needed by the distributed rate limiter.
	RedisURL        string `yaml:"redis_url"`
	RedisPassword   string `yaml:"redis_password"`
	RedisDB         int    `yaml:"redis_db"`
	RedisMaxRetries int    `yaml:"redis_max_retries"`
	RedisPoolSize   int    `yaml:"redis_pool_size"`

	// RedisTimeout bounds each read or write; dial gets twice as long.
	RedisTimeout time.Duration `yaml:"redis_timeout"`

	// Account cache in front of GetByID. Size 0 disables it.
	AccountCacheSize int           `yaml:"account_cache_size"`
	AccountCacheTTL  time.Duration `yaml:"account_cache_ttl"`
}

// DefaultConfig returns the storage defaults
func DefaultConfig() Config {
	return Config{
		PostgresMaxConns:    20,
		PostgresMinConns:    5,
		PostgresTimeout:     10 * time.Second,
		PostgresMaxLifetime: time.Hour,
		PostgresMaxIdleTime: 10 * time.Minute,
		AutoMigrate:         true,
		RedisDB:             -1,
		RedisMaxRetries:     3,
		RedisPoolSize:       10,
		RedisTimeout:        3 * time.Second,
		AccountCacheSize:    1024,
		AccountCacheTTL:     30 * time.Second,
	}
}

// UsePostgres reports whether a database URL is configured
func (c Config) UsePostgres() bool {
	return c.PostgresURL != ""
}

// UseRedis reports whether a Redis URL is configured
func (c Config) UseRedis() bool {
	return c.RedisURL != ""
}
