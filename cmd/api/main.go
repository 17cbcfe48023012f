// Package main is the entrypoint for the user API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/penshort/userapi/internal/cache"
	"github.com/penshort/userapi/internal/config"
	"github.com/penshort/userapi/internal/handler"
	"github.com/penshort/userapi/internal/metrics"
	"github.com/penshort/userapi/internal/repository"
	"github.com/penshort/userapi/internal/router"
	"github.com/penshort/userapi/internal/server"
	"github.com/penshort/userapi/internal/service"
	"github.com/penshort/userapi/internal/telemetry"
)

const instrumentationName = "github.com/penshort/userapi"

func main() {
	if err := run(); err != nil {
		slog.Error("userapi exited with error", "error", err)
		os.Exit(1)
	}
}

func run() (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := telemetry.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	providers, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Environment:    cfg.AppEnv,
		Insecure:       cfg.Telemetry.Insecure,
		MetricInterval: cfg.Telemetry.MetricInterval,
	}, telemetry.WithSpanProcessor(telemetry.NewSpanLogProcessor(logger)))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	// Registered first so it runs last, after the server and its hooks are done.
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if shutdownErr := providers.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Error("telemetry shutdown error", "error", shutdownErr)
			err = errors.Join(err, shutdownErr)
		}
	}()
	logger.Info("telemetry initialized", "otlp_export", cfg.Telemetry.Enabled)

	repo, err := repository.New(ctx, cfg.DatabaseURL, repository.Options{
		MaxConns:          cfg.DB.MaxConns,
		MinConns:          cfg.DB.MinConns,
		MaxConnLifetime:   cfg.DB.MaxConnLifetime,
		MaxConnIdleTime:   cfg.DB.MaxConnIdleTime,
		HealthCheckPeriod: cfg.DB.HealthCheckPeriod,
		QueryTimeout:      cfg.DB.QueryTimeout,
	})
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return errors.New(sanitizeError(err, cfg.DatabaseURL))
	}
	logger.Info("connected to database")

	version, err := repository.Migrate(cfg.DatabaseURL)
	if err != nil {
		repo.Close()
		return errors.New(sanitizeError(err, cfg.DatabaseURL))
	}
	logger.Info("migrations applied", "version", version)

	meter := providers.Meter(instrumentationName)

	poolGauges, err := metrics.RegisterPoolGauges(meter, repo)
	if err != nil {
		logger.Warn("pool gauges unavailable", "error", err)
	}

	var recorder metrics.Recorder = metrics.NewNoop()
	if otelRecorder, err := metrics.NewOTel(meter); err != nil {
		logger.Warn("metric instruments unavailable, counting disabled", "error", err)
	} else {
		recorder = otelRecorder
	}

	svcOpts := []service.Option{
		service.WithRecorder(recorder),
		service.WithTracer(providers.Tracer(instrumentationName)),
		service.WithLogger(logger),
	}

	// A nil interface, not a typed nil, keeps readiness reporting "not configured".
	var cacheChecker handler.HealthChecker
	var userCache *cache.Cache
	if cfg.CacheEnabled() {
		userCache, err = cache.New(ctx, cfg.RedisURL, cfg.UserCacheTTL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			if poolGauges != nil {
				_ = poolGauges.Unregister()
			}
			repo.Close()
			return errors.New(sanitizeError(err, cfg.RedisURL))
		}
		logger.Info("connected to Redis", "user_cache_ttl", cfg.UserCacheTTL)
		cacheChecker = userCache
		svcOpts = append(svcOpts, service.WithCache(userCache))
	}

	userService := service.NewUserService(repo, svcOpts...)

	r := router.New(router.Deps{
		Users:          handler.NewUserHandler(userService, logger),
		Health:         handler.NewHealthHandler(repo, cacheChecker),
		Metrics:        handler.NewMetricsHandler(providers.MetricsHandler()),
		TracerProvider: providers.TracerProvider(),
		MeterProvider:  providers.MeterProvider(),
		Propagator:     providers.Propagator(),
		Logger:         logger,
		IsDevelopment:  cfg.IsDevelopment(),
	})

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Hooks run LIFO: cache, then gauges, then the pool.
	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	if poolGauges != nil {
		srv.OnShutdown("pool-gauges", func(context.Context) error {
			return poolGauges.Unregister()
		})
	}
	if userCache != nil {
		srv.OnShutdown("redis", func(context.Context) error {
			return userCache.Close()
		})
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"cache_enabled", cfg.CacheEnabled(),
	)

	return srv.Run(ctx)
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
