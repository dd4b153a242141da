package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/bus-tracking/internal/api/http"
	"github.com/spec-kit/bus-tracking/internal/api/http/handlers"
	"github.com/spec-kit/bus-tracking/internal/auth"
	"github.com/spec-kit/bus-tracking/internal/config"
	"github.com/spec-kit/bus-tracking/internal/events"
	"github.com/spec-kit/bus-tracking/internal/observability"
	"github.com/spec-kit/bus-tracking/internal/persistence"
	"github.com/spec-kit/bus-tracking/internal/repository"
	"github.com/spec-kit/bus-tracking/internal/service"
	"github.com/spec-kit/bus-tracking/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.App.Validate(); err != nil {
		log.Fatalf("invalid server config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Auth.SecretGenerated {
		logger.Warn("AUTH_JWT_SECRET not set; using an ephemeral development secret, tokens will not survive a restart")
	}

	metrics := observability.NewMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	userRepo := repository.NewUserStore(pg.PoolHandle())

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger, metrics))

	authService, err := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("failed to init auth service", zap.Error(err))
	}

	limiter, err := httptransport.NewAuthLimiter(redis, cfg.Auth.RateLimit)
	if err != nil {
		logger.Fatal("invalid AUTH_RATE_LIMIT", zap.Error(err))
	}

	app := httptransport.NewApp(cfg.App.Name, httptransport.MiddlewareConfig{
		Logger:       logger,
		Metrics:      metrics,
		Timeout:      cfg.App.RequestTimeout(),
		AllowOrigins: cfg.App.CORSAllowOrigins,
	}, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:            handlers.NewAuthHandler(authService),
		AuthMiddleware:  auth.NewAuthMiddleware(authService.TokenManager()),
		CredentialLimit: httptransport.RateLimit(limiter, logger),
		Metrics:         metrics,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
