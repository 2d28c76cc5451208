// Package observability provides structured logging, Prometheus metrics,
// health checks and OpenTelemetry tracing for the BOQ backend.
//
// # Structured Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("user_id", id).Info("login succeeded")
//
// Request scoped loggers are carried in the context and tagged with the
// request and user ids:
//
//	observability.FromContext(ctx).Warn("refresh rejected")
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	router.Use(observability.HTTPMetricsMiddleware(metrics))
//
// All recording methods accept a nil *Metrics.
//
// # Tracing
//
//	tp, err := observability.InitTracing(ctx, cfg, logger)
//	defer observability.ShutdownTracing(ctx, tp, logger)
//	ctx, span := observability.Tracer().Start(ctx, "auth.Login")
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(version, observability.DatabaseProbe(db))
//	checker.Add(observability.RedisProbe(redisClient))
//	observability.RegisterHealthRoutes(adminMux, checker)
package observability
