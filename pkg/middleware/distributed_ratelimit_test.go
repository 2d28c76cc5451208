package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisRateLimitStore_Window(t *testing.T) {
	mr, client := setupMiniredis(t)
	store := NewRedisRateLimitStore(client, RateLimitConfig{MaxRequests: 3, Window: time.Minute}, "")
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 3; i++ {
		d, err := store.Hit(ctx, "ip:1.2.3.4", now)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d, err := store.Hit(ctx, "ip:1.2.3.4", now)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.InDelta(t, time.Minute.Seconds(), d.RetryAfter(now).Seconds(), 1)

	// Rejected requests do not extend or grow the window.
	val, err := mr.Get("boq:ratelimit:ip:1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "3", val)

	mr.FastForward(time.Minute + time.Second)

	d, err = store.Hit(ctx, "ip:1.2.3.4", now)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 2, d.Remaining)
}

func TestRedisRateLimitStore_Reset(t *testing.T) {
	mr, client := setupMiniredis(t)
	store := NewRedisRateLimitStore(client, RateLimitConfig{MaxRequests: 1, Window: time.Minute}, "test")
	ctx := context.Background()

	_, err := store.Hit(ctx, "k", time.Now())
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:k"))

	require.NoError(t, store.Reset(ctx, "k"))
	assert.False(t, mr.Exists("test:k"))
}

func TestRedisRateLimitStore_FailsOpenThroughLimiter(t *testing.T) {
	mr, client := setupMiniredis(t)
	store := NewRedisRateLimitStore(client, RateLimitConfig{MaxRequests: 1, Window: time.Minute}, "")
	limiter := NewRateLimiter(store, RateLimiterOptions{Backend: "redis"})
	mr.Close()

	d, err := limiter.Check(context.Background(), "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}
