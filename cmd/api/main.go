package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/user-account-service/internal/api/http"
	"github.com/spec-kit/user-account-service/internal/api/http/handlers"
	"github.com/spec-kit/user-account-service/internal/auth"
	"github.com/spec-kit/user-account-service/internal/clock"
	"github.com/spec-kit/user-account-service/internal/config"
	"github.com/spec-kit/user-account-service/internal/events"
	"github.com/spec-kit/user-account-service/internal/mail"
	"github.com/spec-kit/user-account-service/internal/observability"
	"github.com/spec-kit/user-account-service/internal/persistence"
	"github.com/spec-kit/user-account-service/internal/ratelimit"
	"github.com/spec-kit/user-account-service/internal/repository"
	"github.com/spec-kit/user-account-service/internal/service"
	"github.com/spec-kit/user-account-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)

	clk := clock.System()
	sessions := auth.NewSessionAuthority(tokenRepo, clk, cfg.Auth.SessionWindow())
	credentials := auth.NewCredentialVerifier(userRepo)
	activation := auth.NewActivationTokenManager(cfg.Auth.ActivationSecret, cfg.Auth.ActivationTTLHours)
	authorizer := auth.NewRequestAuthorizer(sessions, credentials)

	cleanup := worker.NewCleanupScheduler(sessions, clk, logger, metrics)
	cleanup.Start(cfg.Auth.SweepInterval())
	defer cleanup.Stop()

	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notify.WebhookURL)
	notifications.RegisterHandlers()

	mailSender := mail.NewSender(cfg.Mail, logger)

	userService := service.NewUserService(*cfg, service.UserDependencies{
		UserRepo:   userRepo,
		Sessions:   sessions,
		Activation: activation,
		Mail:       mailSender,
		Dispatcher: dispatcher,
	})
	authService := service.NewAuthService(credentials, sessions, dispatcher)

	limiter := ratelimit.NewRedisLimiter(redis.Client, cfg.RateLimit.LoginAttempts, cfg.RateLimit.Window())

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:     handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:      handlers.NewUsersHandler(userService),
		Auth:       handlers.NewAuthHandler(authService, limiter, logger),
		Authorizer: authorizer,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
