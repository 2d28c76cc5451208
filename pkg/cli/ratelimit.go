package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/middleware"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/storage"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/storage/postgres"
	"github.com/go-redis/redis/v8"
)

func newRateLimitResetCommand() *Command {
	cmd := &Command{
		Name:        "ratelimit-reset",
		Description: "Clear the shared rate limit window of a client address",
		Flags:       flag.NewFlagSet("ratelimit-reset", flag.ContinueOnError),
	}
	cmd.Run = func(args []string) error { return runRateLimitReset(cmd.Flags, args) }

	cmd.Flags.String("redis-url", envOr("BOQ_REDIS_URL", ""), "Redis connection URL")
	cmd.Flags.String("prefix", envOr("BOQ_RATE_LIMIT_REDIS_PREFIX", "boq:ratelimit"), "Rate limit key prefix")
	cmd.Flags.String("ip", "", "Client address to unblock")

	return cmd
}

func runRateLimitReset(flags *flag.FlagSet, args []string) error {
	if err := flags.Parse(args); err != nil {
		return err
	}

	redisURL := flags.Lookup("redis-url").Value.String()
	if redisURL == "" {
		return errors.New("--redis-url is required")
	}
	ip := flags.Lookup("ip").Value.String()
	if ip == "" {
		return errors.New("--ip is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := storage.DefaultConfig()
	cfg.RedisURL = redisURL
	client, err := postgres.NewRedisClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := ResetRateLimit(ctx, client, flags.Lookup("prefix").Value.String(), ip); err != nil {
		return err
	}
	fmt.Fprintf(out, "Cleared rate limit window for %s\n", ip)
	return nil
}

// ResetRateLimit deletes the window the server keeps for ip
func ResetRateLimit(ctx context.Context, client *redis.Client, prefix, ip string) error {
	store := middleware.NewRedisRateLimitStore(client, middleware.DefaultRateLimitConfig(), prefix)
	if err := store.Reset(ctx, "ip:"+ip); err != nil {
		return fmt.Errorf("failed to reset rate limit: %w", err)
	}
	return nil
}
