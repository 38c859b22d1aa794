package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/personnel-service/internal/api/http"
	"github.com/spec-kit/personnel-service/internal/api/http/handlers"
	"github.com/spec-kit/personnel-service/internal/auth"
	"github.com/spec-kit/personnel-service/internal/config"
	"github.com/spec-kit/personnel-service/internal/credentials"
	"github.com/spec-kit/personnel-service/internal/events"
	"github.com/spec-kit/personnel-service/internal/observability"
	"github.com/spec-kit/personnel-service/internal/persistence"
	"github.com/spec-kit/personnel-service/internal/repository"
	"github.com/spec-kit/personnel-service/internal/service"
	"github.com/spec-kit/personnel-service/internal/worker"
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

	pool := pg.PoolHandle()
	identityRepo := repository.NewIdentityRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewDispatcher(logger)
	unreadCache := persistence.NewUnreadCounterCache(redis, cfg.Approval.UnreadCacheTTL())

	authService := service.NewAuthService(*cfg, identityRepo, dispatcher, logger)
	approvalService := service.NewApprovalService(*cfg, service.ApprovalDependencies{
		IdentityRepo: identityRepo,
		ProfileRepo:  profileRepo,
		Generator:    credentials.NewGenerator(),
		Dispatcher:   dispatcher,
		Logger:       logger,
		Metrics:      metrics,
	})
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		NotificationRepo: notificationRepo,
		IdentityRepo:     identityRepo,
		Dispatcher:       dispatcher,
		Cache:            unreadCache,
		Logger:           logger,
		Metrics:          metrics,
	}, cfg.Approval.CredentialMaxViews)
	activityService := service.NewActivityService(activityRepo, dispatcher, logger)

	worker.StartSideEffectWorkers(notificationService, activityService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), identityRepo)

	app := fiber.New(fiber.Config{DisableStartupMessage: cfg.App.Env == "production"})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Approvals:      handlers.NewApprovalsHandler(approvalService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		Activity:       handlers.NewActivityHandler(activityService),
		AuthMiddleware: authMiddleware,
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
