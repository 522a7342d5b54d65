package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bivex/subscription-metrics/internal/application/middleware"
	"github.com/bivex/subscription-metrics/internal/application/query"
	"github.com/bivex/subscription-metrics/internal/domain/service"
	"github.com/bivex/subscription-metrics/internal/infrastructure/cache"
	"github.com/bivex/subscription-metrics/internal/infrastructure/config"
	"github.com/bivex/subscription-metrics/internal/infrastructure/logging"
	"github.com/bivex/subscription-metrics/internal/infrastructure/metrics"
	"github.com/bivex/subscription-metrics/internal/infrastructure/persistence/pool"
	"github.com/bivex/subscription-metrics/internal/infrastructure/persistence/repository"
	app_handler "github.com/bivex/subscription-metrics/internal/interfaces/http/handlers"
	"github.com/bivex/subscription-metrics/internal/interfaces/http/router"
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

	logging.Logger.Info("Starting subscription metrics API",
		zap.Int("port", cfg.Server.Port),
		zap.String("environment", cfg.Sentry.Environment),
	)

	// Initialize database connection
	ctx := context.Background()
	dbPool, err := pool.NewPool(ctx, cfg.Database)
	if err != nil {
		logging.Logger.Fatal("Failed to create database pool", zap.Error(err))
	}
	defer pool.Close(dbPool)

	if err := pool.Ping(ctx, dbPool); err != nil {
		logging.Logger.Fatal("Failed to ping database", zap.Error(err))
	}

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

	// Initialize repositories
	subscriptionRepo := repository.NewSubscriptionRepository(dbPool)
	paymentRepo := repository.NewPaymentRepository(dbPool)
	eventRepo := repository.NewSubscriptionEventRepository(dbPool)
	exchangeRateRepo := repository.NewExchangeRateRepository(dbPool)
	dailyStatsRepo := repository.NewDailyStatsRepository(dbPool)

	// Initialize caches
	statsCache := cache.NewStatsCache(redisClient, cfg.Stats.CacheTTL, statsLogger)
	rateCache := cache.NewExchangeRateCache(redisClient)

	// Initialize services
	rateService := service.NewExchangeRateService(exchangeRateRepo, rateCache, logging.WithComponent("exchange_rate"))
	calculator := service.NewMetricsCalculator(statsLogger)
	aggregator := service.NewTimeseriesAggregator(calculator, cfg.Stats.TimeseriesConcurrency, statsLogger)
	statsService := service.NewSubscriptionStatsService(
		subscriptionRepo,
		paymentRepo,
		eventRepo,
		rateService,
		calculator,
		aggregator,
		statsLogger,
	)

	applyStats := func(s config.StatsConfig) {
		statsService.SetMaxEvents(s.MaxEvents)
		statsCache.SetTTL(s.CacheTTL)
		// an unset fallback parses as zero, which disables it
		if rate, _, err := s.FallbackRate(); err == nil {
			rateService.SetFallbackRate(rate)
		}
	}
	applyStats(cfg.Stats)

	statsHolder := config.NewStatsHolder(cfg.Stats)
	if config.WatchStats(statsHolder, logging.Logger, applyStats) {
		logging.Logger.Info("Watching config file for stats changes")
	}

	// Initialize middleware
	jwtMiddleware := middleware.NewJWTMiddleware(
		cfg.JWT.Secret,
		redisClient,
		cfg.JWT.AccessTTL,
		cfg.JWT.Issuer,
		logging.WithComponent("auth"),
	)
	rateLimiter := middleware.NewRateLimiter(redisClient, true, logging.WithComponent("rate_limiter")) // fail open

	// Initialize queries
	getStatsQuery := query.NewGetSubscriptionStatsQuery(statsService, statsCache, statsMetrics, statsLogger)
	timeseriesQuery := query.NewGetSubscriptionTimeseriesQuery(statsService, statsCache, statsMetrics, statsLogger)
	compareQuery := query.NewCompareSubscriptionStatsQuery(statsService, statsCache, statsMetrics, statsLogger)
	dailyQuery := query.NewListDailySnapshotsQuery(dailyStatsRepo)

	// Initialize handlers
	statsHandler := app_handler.NewSubscriptionStatsHandler(getStatsQuery, timeseriesQuery, compareQuery, dailyQuery)
	rateHandler := app_handler.NewExchangeRateHandler(rateService, statsCache)
	healthHandler := app_handler.NewHealthHandler(map[string]app_handler.HealthCheck{
		"database": func(ctx context.Context) error { return pool.Ping(ctx, dbPool) },
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	})

	// Setup Gin router
	if cfg.Sentry.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine, err := router.New(router.Deps{
		Logger:      logging.Logger,
		Metrics:     statsMetrics,
		JWT:         jwtMiddleware,
		RateLimiter: rateLimiter,
		RateLimit: middleware.RateLimitConfig{
			Rate:  cfg.Server.RateLimitRPS,
			Burst: cfg.Server.RateLimitBurst,
		},
		StatsHandler:  statsHandler,
		RateHandler:   rateHandler,
		HealthHandler: healthHandler,
	})
	if err != nil {
		logging.Logger.Fatal("Failed to build router", zap.Error(err))
	}

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Graceful shutdown
	go func() {
		logging.Logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logging.Logger.Info("Server exited")
}
