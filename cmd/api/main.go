package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/livechat-service/internal/api/http"
	"github.com/spec-kit/livechat-service/internal/api/http/handlers"
	"github.com/spec-kit/livechat-service/internal/auth"
	"github.com/spec-kit/livechat-service/internal/config"
	"github.com/spec-kit/livechat-service/internal/events"
	"github.com/spec-kit/livechat-service/internal/observability"
	"github.com/spec-kit/livechat-service/internal/persistence"
	"github.com/spec-kit/livechat-service/internal/presence"
	"github.com/spec-kit/livechat-service/internal/queue"
	"github.com/spec-kit/livechat-service/internal/repository"
	"github.com/spec-kit/livechat-service/internal/service"
	"github.com/spec-kit/livechat-service/internal/worker"
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

	var (
		redis       *persistence.Redis
		waitQueue   queue.WaitQueue
		presenceTracker presence.Tracker
	)
	if cfg.Redis.Addr == "memory" {
		logger.Info("using in-memory queue and presence")
		waitQueue = queue.NewMemoryQueue()
		presenceTracker = presence.NewMemoryTracker(cfg.Dispatch.PresenceTTL())
	} else {
		redis = persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		waitQueue = queue.NewRedisQueue(redis.Client)
		presenceTracker = presence.NewRedisTracker(redis.Client, cfg.Dispatch.PresenceTTL())
	}

	var publisher events.Publisher
	if cfg.AMQP.URL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
		if err != nil {
			logger.Fatal("failed to connect amqp", zap.Error(err))
		}
		defer amqpPublisher.Close() //nolint:errcheck
		publisher = amqpPublisher
	} else {
		publisher = events.NewFallbackPublisher(logger)
	}

	pool := pg.PoolHandle()
	orgRepo := repository.NewOrganizationRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)
	chatRepo := repository.NewChatRepository(pool)
	noteRepo := repository.NewCustomerNoteRepository(pool)

	bus := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:     userRepo,
		CustomerRepo: customerRepo,
		OrgRepo:      orgRepo,
	})
	chatService := service.NewChatService(service.ChatDependencies{
		ChatRepo:     chatRepo,
		CategoryRepo: categoryRepo,
		CustomerRepo: customerRepo,
		NoteRepo:     noteRepo,
		WaitQueue:    waitQueue,
		Bus:          bus,
		Logger:       logger,
	})
	dispatchService := service.NewDispatchService(service.DispatchDependencies{
		ChatRepo:  chatRepo,
		TeamRepo:  teamRepo,
		WaitQueue: waitQueue,
		Bus:       bus,
		Logger:    logger,
	})
	notificationService := service.NewNotificationService(bus, publisher, logger)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, customerRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Widget:         handlers.NewWidgetHandler(authService, chatService, categoryRepo),
		AgentChats:     handlers.NewAgentChatsHandler(chatService, dispatchService, metrics),
		Presence:       handlers.NewPresenceHandler(presenceTracker),
		Admin:          handlers.NewAdminHandler(categoryRepo, teamRepo, userRepo, customerRepo, orgRepo),
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
