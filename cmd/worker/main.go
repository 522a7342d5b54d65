package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/bivex/subscription-metrics/internal/application/command"
	"github.com/bivex/subscription-metrics/internal/application/query"
	"github.com/bivex/subscription-metrics/internal/domain/service"
	"github.com/bivex/subscription-metrics/internal/infrastructure/cache"
	"github.com/bivex/subscription-metrics/internal/infrastructure/config"
	"github.com/bivex/subscription-metrics/internal/infrastructure/logging"
	"github.com/bivex/subscription-metrics/internal/infrastructure/metrics"
	"github.com/bivex/subscription-metrics/internal/infrastructure/persistence/pool"
	"github.com/bivex/subscription-metrics/internal/infrastructure/persistence/repository"
	worker_tasks "github.com/bivex/subscription-metrics/internal/worker/tasks"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logging.Init(&cfg.Sentry); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logging.Sync()

	logging.Logger.Info("Starting subscription metrics worker")

	// Initialize database for worker tasks
	ctx := context.Background()
	dbPool, err := pool.NewPool(ctx, cfg.Database)
	if err != nil {
		logging.Logger.Fatal("Failed to create database pool", zap.Error(err))
	}
	defer pool.Close(dbPool)

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		logging.Logger.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logging.Logger.Fatal("Failed to ping Redis", zap.Error(err))
	}

	statsMetrics := metrics.NewStatsMetrics()
	statsLogger := logging.WithComponent("stats")

	// Stats engine
	statsCache := cache.NewStatsCache(redisClient, cfg.Stats.CacheTTL, statsLogger)
	rateService := service.NewExchangeRateService(
		repository.NewExchangeRateRepository(dbPool),
		cache.NewExchangeRateCache(redisClient),
		logging.WithComponent("exchange_rate"),
	)
	calculator := service.NewMetricsCalculator(statsLogger)
	statsService := service.NewSubscriptionStatsService(
		repository.NewSubscriptionRepository(dbPool),
		repository.NewPaymentRepository(dbPool),
		repository.NewSubscriptionEventRepository(dbPool),
		rateService,
		calculator,
		service.NewTimeseriesAggregator(calculator, cfg.Stats.TimeseriesConcurrency, statsLogger),
		statsLogger,
	)
	statsService.SetMaxEvents(cfg.Stats.MaxEvents)
	if rate, _, err := cfg.Stats.FallbackRate(); err == nil {
		rateService.SetFallbackRate(rate)
	}

	dailyCmd := command.NewComputeDailySnapshotCommand(statsService, repository.NewDailyStatsRepository(dbPool), statsLogger)
	warmQuery := query.NewGetSubscriptionStatsQuery(statsService, statsCache, statsMetrics, statsLogger)

	taskHandlers := worker_tasks.NewTaskHandlers(
		dailyCmd,
		warmQuery,
		rateService,
		statsMetrics,
		logging.WithComponent("worker"),
	).WithInvalidator(statsCache)

	// Initialize Asynq server
	server := asynq.NewServerFromRedisClient(redisClient, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
		RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
			// Exponential backoff: 2^n seconds
			return time.Duration(1<<uint(n)) * time.Second
		},
	})

	// Register task handlers
	mux := asynq.NewServeMux()
	worker_tasks.RegisterHandlers(mux, taskHandlers)

	// Start server in background
	if err := server.Start(mux); err != nil {
		logging.Logger.Fatal("Failed to start worker", zap.Error(err))
	}

	// Register scheduled tasks (cron specs are evaluated in UTC)
	scheduler := asynq.NewSchedulerFromRedisClient(redisClient, &asynq.SchedulerOpts{Location: time.UTC})
	if err := worker_tasks.RegisterScheduledTasks(scheduler, cfg.Worker, logging.Logger); err != nil {
		logging.Logger.Fatal("Failed to register scheduled tasks", zap.Error(err))
	}

	// Start scheduler
	if err := scheduler.Start(); err != nil {
		logging.Logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	logging.Logger.Info("Worker started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Logger.Info("Shutting down worker...")

	scheduler.Shutdown()
	server.Shutdown()

	logging.Logger.Info("Worker exited")
}
