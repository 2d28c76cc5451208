package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// hitScript mirrors MemoryRateLimitStore: a spent window is not
// incremented, and the window starts at its first request.
var hitScript = redis.NewScript(`
local count = tonumber(redis.call('GET', KEYS[1]) or '0')
local max = tonumber(ARGV[2])
local allowed = 0
if count < max then
	count = redis.call('INCR', KEYS[1])
	allowed = 1
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl, allowed}
`)

// RedisRateLimitStore shares rate limit windows across instances. Expired
// keys are dropped by Redis itself.
type RedisRateLimitStore struct {
	redis  *redis.Client
	config RateLimitConfig
	prefix string
}

// NewRedisRateLimitStore creates a Redis-backed store
func NewRedisRateLimitStore(redisClient *redis.Client, config RateLimitConfig, prefix string) *RedisRateLimitStore {
	if prefix == "" {
		prefix = "boq:ratelimit"
	}
	return &RedisRateLimitStore{
		redis:  redisClient,
		config: config.withDefaults(),
		prefix: prefix,
	}
}

// Hit implements RateLimitStore
func (s *RedisRateLimitStore) Hit(ctx context.Context, key string, now time.Time) (Decision, error) {
	redisKey := fmt.Sprintf("%s:%s", s.prefix, key)

	res, err := hitScript.Run(ctx, s.redis, []string{redisKey}, s.config.Window.Milliseconds(), s.config.MaxRequests).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("redis error: %w", err)
	}

	values, ok := res.([]interface{})
	if !ok || len(values) != 3 {
		return Decision{}, fmt.Errorf("unexpected rate limit script result: %v", res)
	}
	count, _ := values[0].(int64)
	ttl, _ := values[1].(int64)
	allowed, _ := values[2].(int64)

	remaining := s.config.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:   allowed == 1,
		Limit:     s.config.MaxRequests,
		Remaining: remaining,
		ResetAt:   now.Add(time.Duration(ttl) * time.Millisecond),
	}, nil
}

// Reset clears the window for key
func (s *RedisRateLimitStore) Reset(ctx context.Context, key string) error {
	return s.redis.Del(ctx, fmt.Sprintf("%s:%s", s.prefix, key)).Err()
}
