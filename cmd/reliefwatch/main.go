// Package main is the entry point for the ReliefWatch crisis monitoring
// service. It initializes all components and starts the HTTP server, the
// processing pipeline and the job scheduler.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"reliefwatch/internal/api"
	"reliefwatch/internal/classify"
	"reliefwatch/internal/config"
	"reliefwatch/internal/correlate"
	"reliefwatch/internal/dispatch"
	"reliefwatch/internal/gateway"
	"reliefwatch/internal/notify"
	"reliefwatch/internal/pipeline"
	"reliefwatch/internal/queue"
	kafkaqueue "reliefwatch/internal/queue/kafka"
	memoryqueue "reliefwatch/internal/queue/memory"
	"reliefwatch/internal/scheduler"
	"reliefwatch/internal/store"
	memorystor "reliefwatch/internal/store/memory"
	postgresstor "reliefwatch/internal/store/postgres"
	redisstor "reliefwatch/internal/store/redis"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	// Load configuration; fall back to defaults when no file exists so
	// memory mode runs out of the box.
	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Error("failed to load configuration", "error", err, "path", *configPath)
			os.Exit(1)
		}
		cfg = config.Default()
	}

	// Initialize logger
	logger := initLogger(&cfg.Logger)

	logger.Info("configuration loaded",
		"path", *configPath,
		"storage_mode", cfg.Storage.Mode,
	)

	// Initialize dependencies based on storage mode
	deps, cleanup, err := initDependencies(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dependencies", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Create context that listens for shutdown signals
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Start pipeline consumer in background
	go func() {
		if err := deps.pipeline.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error("pipeline error", "error", err)
			cancel()
		}
	}()

	// Start job scheduler in background
	go deps.orchestrator.Start(ctx)

	// Start HTTP server
	go func() {
		if err := deps.server.Start(); err != nil {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	logger.Info("ReliefWatch started",
		"address", cfg.Server.Address(),
		"storage_mode", cfg.Storage.Mode,
	)

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := deps.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := deps.pipeline.Stop(); err != nil {
		logger.Error("pipeline shutdown error", "error", err)
	}

	logger.Info("ReliefWatch stopped")
}

// dependencies holds all initialized service dependencies.
type dependencies struct {
	server       *api.Server
	pipeline     *pipeline.Service
	orchestrator *scheduler.Orchestrator
}

// initDependencies creates and wires all service dependencies based on config.
// Returns the dependencies and a cleanup function.
func initDependencies(cfg *config.Config, logger *slog.Logger) (*dependencies, func(), error) {
	var (
		stateStore       store.StateStore
		endpointRepo     store.EndpointRepository
		webhookEventRepo store.WebhookEventRepository
		eventRepo        store.EventRepository
		crisisRepo       store.CrisisRepository
		subscriptionRepo store.SubscriptionRepository
		notificationRepo store.NotificationRepository
		producer         queue.Producer
		consumer         queue.Consumer
		cleanupFuncs     []func()
	)

	if cfg.Storage.UseMemory() {
		// Initialize in-memory implementations
		logger.Info("initializing in-memory storage")

		memStateStore := memorystor.NewStateStore()
		stateStore = memStateStore
		cleanupFuncs = append(cleanupFuncs, func() { _ = memStateStore.Close() })

		endpointRepo = memorystor.NewEndpointRepository()
		webhookEventRepo = memorystor.NewWebhookEventRepository()
		eventRepo = memorystor.NewEventRepository()
		crisisRepo = memorystor.NewCrisisRepository()
		subscriptionRepo = memorystor.NewSubscriptionRepository()
		notificationRepo = memorystor.NewNotificationRepository()

		memQueue := memoryqueue.NewQueue(10000)
		producer = memQueue
		consumer = memQueue
		cleanupFuncs = append(cleanupFuncs, func() { _ = memQueue.Close() })
	} else {
		// Initialize real storage implementations
		logger.Info("initializing production storage (Kafka, Redis, PostgreSQL)")

		// Initialize PostgreSQL
		ctx := context.Background()
		db, err := postgresstor.NewDB(ctx, &cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		cleanupFuncs = append(cleanupFuncs, db.Close)

		// Run migrations
		if err := db.RunMigrations(ctx); err != nil {
			return nil, nil, err
		}
		logger.Info("database migrations completed")

		endpointRepo = postgresstor.NewEndpointRepository(db)
		webhookEventRepo = postgresstor.NewWebhookEventRepository(db)
		eventRepo = postgresstor.NewEventRepository(db)
		crisisRepo = postgresstor.NewCrisisRepository(db)
		subscriptionRepo = postgresstor.NewSubscriptionRepository(db)
		notificationRepo = postgresstor.NewNotificationRepository(db)

		// Initialize Redis
		redisStore, err := redisstor.NewStateStore(&cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		stateStore = redisStore
		cleanupFuncs = append(cleanupFuncs, func() { _ = redisStore.Close() })

		// Initialize Kafka
		kafkaProducer := kafkaqueue.NewProducer(&cfg.Kafka)
		producer = kafkaProducer
		cleanupFuncs = append(cleanupFuncs, func() { _ = kafkaProducer.Close() })

		kafkaConsumer := kafkaqueue.NewConsumer(&cfg.Kafka, logger)
		consumer = kafkaConsumer
		cleanupFuncs = append(cleanupFuncs, func() { _ = kafkaConsumer.Close() })
	}

	// Initialize classifier
	var classifier classify.Classifier
	switch cfg.Classifier.Provider {
	case "http":
		classifier = classify.NewHTTPClassifier(&cfg.Classifier)
	default:
		classifier = classify.NewKeywordClassifier()
	}
	classifier = classify.Instrument(cfg.Classifier.Provider, classifier)

	// Initialize mailer
	mailer := notify.NewMailer(&cfg.Mailer, logger)

	// Initialize core services
	gw := gateway.NewGateway(endpointRepo, webhookEventRepo, producer, logger)
	registry := gateway.NewRegistry(endpointRepo, logger)

	engine := correlate.NewEngine(
		classifier,
		eventRepo,
		crisisRepo,
		stateStore,
		cfg.Correlation.StalenessWindow,
		cfg.Correlation.CacheTTL,
		logger,
	)

	pipelineService := pipeline.NewService(
		consumer,
		endpointRepo,
		webhookEventRepo,
		eventRepo,
		engine,
		cfg.Scheduler.ItemDelay,
		cfg.Scheduler.BatchSize,
		logger,
	)

	dispatcher := dispatch.NewDispatcher(
		crisisRepo,
		subscriptionRepo,
		notificationRepo,
		mailer,
		logger,
	)

	orchestrator := scheduler.NewOrchestrator(scheduler.Jobs{
		Backlog:   func(ctx context.Context) (any, error) { return pipelineService.SweepBacklog(ctx) },
		Classify:  func(ctx context.Context) (any, error) { return pipelineService.ClassifyUnanalyzed(ctx) },
		Immediate: func(ctx context.Context) (any, error) { return dispatcher.RunImmediate(ctx) },
		Daily:     func(ctx context.Context) (any, error) { return dispatcher.RunDaily(ctx) },
		Weekly:    func(ctx context.Context) (any, error) { return dispatcher.RunWeekly(ctx) },
	}, &cfg.Scheduler, logger)

	// Initialize API handlers
	hookHandler := api.NewHookHandler(gw, webhookEventRepo, logger)
	endpointHandler := api.NewEndpointHandler(registry, logger)
	crisisHandler := api.NewCrisisHandler(crisisRepo, eventRepo, logger)
	jobHandler := api.NewJobHandler(orchestrator, logger)
	subscriptionHandler := api.NewSubscriptionHandler(subscriptionRepo, logger)

	// Initialize HTTP server
	server := api.NewServer(api.ServerDeps{
		Config:              &cfg.Server,
		Logger:              logger,
		HookHandler:         hookHandler,
		EndpointHandler:     endpointHandler,
		CrisisHandler:       crisisHandler,
		JobHandler:          jobHandler,
		SubscriptionHandler: subscriptionHandler,
	})

	// Build cleanup function
	cleanup := func() {
		for i := len(cleanupFuncs) - 1; i >= 0; i-- {
			cleanupFuncs[i]()
		}
	}

	return &dependencies{
		server:       server,
		pipeline:     pipelineService,
		orchestrator: orchestrator,
	}, cleanup, nil
}

// initLogger creates and configures the application logger.
func initLogger(cfg *config.LoggerConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}
