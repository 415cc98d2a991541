package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/smart-resolve/internal/api/http"
	"github.com/spec-kit/smart-resolve/internal/api/http/handlers"
	"github.com/spec-kit/smart-resolve/internal/auth"
	"github.com/spec-kit/smart-resolve/internal/classifier"
	"github.com/spec-kit/smart-resolve/internal/events"
	"github.com/spec-kit/smart-resolve/internal/notify"
	"github.com/spec-kit/smart-resolve/internal/observability"
	"github.com/spec-kit/smart-resolve/internal/persistence"
	"github.com/spec-kit/smart-resolve/internal/repository"
	"github.com/spec-kit/smart-resolve/internal/service"
	"github.com/spec-kit/smart-resolve/internal/session"
	"github.com/spec-kit/smart-resolve/internal/worker"
	"github.com/spec-kit/smart-resolve/internal/workspace"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect postgres", zap.Error(err))
		return err
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Error("failed to run migrations", zap.Error(err))
			return err
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	notices := notify.NewRedisNotifier(redis.Client, logger, cfg.Notification.NoticeTTL(), cfg.Notification.MaxNotices)

	pool := pg.PoolHandle()
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		AccountRepo:  repository.NewAccountRepository(pool),
		ProfileRepo:  repository.NewProfileRepository(pool),
		SessionStore: session.NewRedisStore(redis.Client),
		Dispatcher:   dispatcher,
		Logger:       logger,
	})

	classifierClient := classifier.NewHTTPClient(cfg.Classifier, logger, metrics)
	workspaces := workspace.NewRegistry(cfg.Classifier, workspace.Dependencies{
		Classifier: classifierClient,
		TicketRepo: repository.NewTicketRepository(pool),
		Notifier:   notices,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	workspaces.RegisterHandlers(dispatcher)

	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification, notices))
	sweeperDone := worker.StartWorkspaceSweeper(ctx, workspaces, cfg.Workspace.SweepInterval(), cfg.Workspace.IdleTimeout(), logger)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, classifierClient),
		Auth:           handlers.NewAuthHandler(authService),
		Chat:           handlers.NewChatHandler(workspaces),
		Tickets:        handlers.NewTicketsHandler(workspaces),
		Admin:          handlers.NewAdminHandler(workspaces),
		Profile:        handlers.NewProfileHandler(authService),
		Notifications:  handlers.NewNotificationsHandler(notices),
		AuthMiddleware: auth.NewAuthMiddleware(authService),
		Metrics:        metrics,
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-listenErr:
		logger.Error("fiber listen", zap.Error(err))
		return err
	case sig := <-shutdownSignal():
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	cancel()
	<-sweeperDone
	return app.Shutdown()
}

func shutdownSignal() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh
}
