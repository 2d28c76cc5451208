package postgres

import (
	"context"
	"fmt"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/storage"
	"github.com/go-redis/redis/v8"
)

// NewRedisClient connects to the Redis instance backing the distributed
// rate limiter and fails unless it answers a ping
func NewRedisClient(ctx context.Context, config storage.Config) (*redis.Client, error) {
	opts, err := redisOptions(config)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// redisOptions parses the URL and lets explicit config win over it.
// RedisDB of -1 keeps whatever database the URL selects.
func redisOptions(config storage.Config) (*redis.Options, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	if config.RedisPassword != "" {
		opts.Password = config.RedisPassword
	}
	if config.RedisDB >= 0 {
		opts.DB = config.RedisDB
	}
	if config.RedisMaxRetries != 0 {
		opts.MaxRetries = config.RedisMaxRetries
	}
	if config.RedisPoolSize > 0 {
		opts.PoolSize = config.RedisPoolSize
	}

	timeout := config.RedisTimeout
	if timeout <= 0 {
		timeout = storage.DefaultConfig().RedisTimeout
	}
	opts.ReadTimeout = timeout
	opts.WriteTimeout = timeout
	opts.DialTimeout = 2 * timeout
	opts.PoolTimeout = timeout + timeout/2

	return opts, nil
}
