package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bivex/subscription-metrics/internal/application/dto"
	"github.com/bivex/subscription-metrics/internal/domain/entity"
	"github.com/bivex/subscription-metrics/internal/infrastructure/logging"
	"github.com/bivex/subscription-metrics/internal/interfaces/http/response"
)

// defaultRateSource labels rates entered through the admin API
const defaultRateSource = "manual"

// ExchangeRates reads and records the GTQ/USD rate
type ExchangeRates interface {
	CurrentRate(ctx context.Context) (*entity.ExchangeRate, error)
	Record(ctx context.Context, gtqPerUSD decimal.Decimal, source string) (*entity.ExchangeRate, error)
}

// CacheInvalidator drops cached stats results
type CacheInvalidator interface {
	Invalidate(ctx context.Context) (int, error)
}

// ExchangeRateHandler serves the admin exchange rate endpoints
type ExchangeRateHandler struct {
	rates      ExchangeRates
	statsCache CacheInvalidator
}

// NewExchangeRateHandler creates a new exchange rate handler
func NewExchangeRateHandler(rates ExchangeRates, statsCache CacheInvalidator) *ExchangeRateHandler {
	return &ExchangeRateHandler{rates: rates, statsCache: statsCache}
}

// RegisterRoutes mounts the exchange rate endpoints on an admin group
func (h *ExchangeRateHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/exchange-rate", h.GetCurrent)
	rg.POST("/exchange-rate", h.Record)
}

// GetCurrent returns the rate stats are normalized with
// @Summary Current GTQ/USD rate
// @Tags admin-stats
// @Produce json
// @Security Bearer
// @Success 200 {object} response.SuccessResponse{data=dto.ExchangeRateResponse}
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/exchange-rate [get]
func (h *ExchangeRateHandler) GetCurrent(c *gin.Context) {
	rate, err := h.rates.CurrentRate(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if rate == nil {
		response.NotFound(c, "No exchange rate recorded")
		return
	}

	response.OK(c, dto.NewExchangeRateResponse(rate))
}

// Record stores a new rate. Cached stats were normalized with the old one, so
// they are dropped.
// @Summary Record a GTQ/USD rate
// @Tags admin-stats
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body dto.RecordExchangeRateRequest true "Quetzales per dollar"
// @Success 201 {object} response.SuccessResponse{data=dto.ExchangeRateResponse}
// @Failure 400 {object} response.ErrorResponse
// @Router /admin/exchange-rate [post]
func (h *ExchangeRateHandler) Record(c *gin.Context) {
	var req dto.RecordExchangeRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	gtqPerUSD, err := decimal.NewFromString(req.GTQPerUSD)
	if err != nil {
		response.ValidationFailed(c, "gtqPerUSD", "gtqPerUSD must be a decimal number")
		return
	}
	source := req.Source
	if source == "" {
		source = defaultRateSource
	}

	ctx := c.Request.Context()
	rate, err := h.rates.Record(ctx, gtqPerUSD, source)
	if err != nil {
		respondError(c, err)
		return
	}

	logger := logging.GetLogger(c)
	if removed, err := h.statsCache.Invalidate(ctx); err != nil {
		logger.Warn("Failed to invalidate stats cache", zap.Error(err))
	} else {
		logger.Info("Exchange rate recorded",
			zap.String("gtq_per_usd", rate.GTQPerUSD.String()),
			zap.String("source", rate.Source),
			zap.Int("invalidated_keys", removed),
		)
	}

	response.Send(c, http.StatusCreated, dto.NewExchangeRateResponse(rate))
}
