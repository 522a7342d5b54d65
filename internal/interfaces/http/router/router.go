package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bivex/subscription-metrics/internal/application/middleware"
	"github.com/bivex/subscription-metrics/internal/infrastructure/logging"
	"github.com/bivex/subscription-metrics/internal/infrastructure/metrics"
	"github.com/bivex/subscription-metrics/internal/interfaces/http/handlers"
)

// Deps holds everything the router mounts
type Deps struct {
	Logger        *zap.Logger
	Metrics       *metrics.StatsMetrics
	JWT           *middleware.JWTMiddleware
	RateLimiter   *middleware.RateLimiter
	RateLimit     middleware.RateLimitConfig
	StatsHandler  *handlers.SubscriptionStatsHandler
	RateHandler   *handlers.ExchangeRateHandler
	HealthHandler *handlers.HealthHandler
}

// New builds the API router
func New(d Deps) (*gin.Engine, error) {
	if err := handlers.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		logging.RequestMiddleware(d.Logger),
		metrics.GinMiddleware(d.Metrics),
	)

	// Health and metrics (no auth required)
	r.GET("/health", d.HealthHandler.GetHealth)
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	v1 := r.Group("/v1")
	{
		admin := v1.Group("/admin")
		admin.Use(
			d.JWT.Authenticate(),
			middleware.RequireRole(middleware.RoleAdmin),
		)
		if d.RateLimiter != nil {
			admin.Use(d.RateLimiter.Middleware(middleware.ByUserID, d.RateLimit))
		}
		d.StatsHandler.RegisterRoutes(admin)
		if d.RateHandler != nil {
			d.RateHandler.RegisterRoutes(admin)
		}
	}

	return r, nil
}
