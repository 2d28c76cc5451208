package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/api"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/audit"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/auth"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/config"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/invitations"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/middleware"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/observability"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/storage/memory"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/storage/postgres"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "boq-server: %v\n", err)
		os.Exit(1)
	}
}

// stores groups the backends chosen at startup
type stores struct {
	accounts    auth.AccountStore
	admins      auth.AdminStore
	invitations invitations.Store
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.Level(), os.Stdout)
	logger.Infof("Starting BOQ backend on %s:%s", cfg.Server.Host, cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout)

	tp, err := observability.InitTracing(ctx, cfg.Observability.TracingConfig(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if tp != nil {
		shutdown.Register("tracing", func(ctx context.Context) error {
			return observability.ShutdownTracing(ctx, tp, logger)
		})
	}

	var metrics *observability.Metrics
	registry := prometheus.NewRegistry()
	if cfg.Observability.MetricsEnabled {
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = observability.NewMetrics(registry)
	}

	var (
		st *stores
		cm *postgres.ConnectionManager
	)
	if cfg.Storage.UsePostgres() {
		cm, err = postgres.NewConnectionManager(ctx, cfg.Storage, logger)
		if err != nil {
			return err
		}
		shutdown.Register("postgres", func(context.Context) error { return cm.Close() })

		if cfg.Storage.AutoMigrate {
			if err := postgres.Migrate(ctx, cm.DB()); err != nil {
				return err
			}
			logger.Info("Database migrations applied")
		}
		cm.StartStatsRoutine(ctx, 0, metrics)

		accounts := postgres.NewAccountStore(cm.DB())
		st = &stores{
			accounts:    postgres.NewCachedAccountStore(accounts, cfg.Storage.AccountCacheSize, cfg.Storage.AccountCacheTTL),
			admins:      postgres.NewAdminStore(cm.DB()),
			invitations: invitations.NewPostgresStore(cm.DB()),
		}
	} else {
		logger.Warn("No database configured, using in-memory stores")
		st = &stores{
			accounts:    memory.NewAccountStore(),
			admins:      memory.NewAdminStore(),
			invitations: memory.NewInvitationStore(memory.NewMembership()),
		}
	}

	var redisClient *redis.Client
	if cfg.Storage.UseRedis() {
		redisClient, err = postgres.NewRedisClient(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		shutdown.Register("redis", func(context.Context) error { return redisClient.Close() })
	}

	auditLogger, err := buildAuditLogger(cfg, logger)
	if err != nil {
		return err
	}
	shutdown.Register("audit", func(context.Context) error { return auditLogger.Close() })

	hasher, err := auth.NewHasher(cfg.Auth.PasswordAlgorithm)
	if err != nil {
		return err
	}
	codec, err := auth.NewTokenCodec(cfg.Auth.CodecConfig())
	if err != nil {
		return err
	}

	invitationService, err := invitations.NewService(invitations.ServiceConfig{
		Store:    st.invitations,
		Accounts: st.accounts,
		Hasher:   hasher,
		TTL:      cfg.Auth.InvitationTTL,
		Logger:   logger,
		Metrics:  metrics,
	})
	if err != nil {
		return err
	}

	authService, err := auth.NewService(auth.ServiceConfig{
		Accounts:       st.accounts,
		Admins:         st.admins,
		Codec:          codec,
		Hasher:         hasher,
		Invitations:    invitationService,
		SweepThreshold: cfg.Auth.RevocationSweepThreshold,
		Logger:         logger,
		Metrics:        metrics,
	})
	if err != nil {
		return err
	}

	limiter := buildRateLimiter(cfg, redisClient, logger, metrics)

	server, err := api.NewServer(api.ServerConfig{
		Auth:         authService,
		Invitations:  invitationService,
		Limiter:      limiter,
		Audit:        auditLogger,
		Logger:       logger,
		Metrics:      metrics,
		CORSOrigins:  cfg.Server.CORSOrigins,
		TrustProxy:   cfg.Server.TrustProxy,
		CookieSecure: cfg.Auth.CookieSecure,
		Tracing:      tp != nil,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	shutdown.Register("http", httpServer.Shutdown)

	healthMux := http.NewServeMux()
	checker := observability.NewHealthChecker(cfg.Observability.OTelServiceVersion)
	if cm != nil {
		checker.Add(observability.DatabaseProbe(cm.DB()))
	}
	if redisClient != nil {
		checker.Add(observability.RedisProbe(redisClient))
	}
	observability.RegisterHealthRoutes(healthMux, checker)
	if metrics != nil {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}
	shutdown.Register("health", healthServer.Shutdown)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("API listening on %s", httpServer.Addr)
		return serve(httpServer)
	})
	g.Go(func() error {
		logger.Infof("Health and metrics listening on %s", healthServer.Addr)
		return serve(healthServer)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		return shutdown.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}

func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s: %w", srv.Addr, err)
	}
	return nil
}

func buildAuditLogger(cfg *config.Config, logger *observability.Logger) (audit.Logger, error) {
	structured := audit.NewStructuredLogger(logger)
	if cfg.Auth.AuditLogDir == "" {
		return structured, nil
	}

	fileLogger, err := audit.NewFileLogger(audit.FileLoggerConfig{Dir: cfg.Auth.AuditLogDir})
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	return audit.NewMultiLogger(structured, fileLogger), nil
}

func buildRateLimiter(cfg *config.Config, redisClient *redis.Client, logger *observability.Logger, metrics *observability.Metrics) *middleware.RateLimiter {
	limits := cfg.RateLimit.LimiterConfig()
	opts := middleware.RateLimiterOptions{
		Backend:    "memory",
		TrustProxy: cfg.Server.TrustProxy,
		Logger:     logger,
		Metrics:    metrics,
	}

	if cfg.RateLimit.Backend == "redis" && redisClient != nil {
		opts.Backend = "redis"
		return middleware.NewRateLimiter(middleware.NewRedisRateLimitStore(redisClient, limits, cfg.RateLimit.RedisPrefix), opts)
	}
	return middleware.NewRateLimiter(middleware.NewMemoryRateLimitStore(limits), opts)
}
