package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bivex/subscription-metrics/internal/application/dto"
	"github.com/bivex/subscription-metrics/internal/domain/service"
	"github.com/bivex/subscription-metrics/internal/infrastructure/logging"
	"github.com/bivex/subscription-metrics/internal/interfaces/http/response"

	domainErrors "github.com/bivex/subscription-metrics/internal/domain/errors"
)

// StatsQuery computes or loads the snapshot of one window
type StatsQuery interface {
	Execute(ctx context.Context, start, end time.Time) (*dto.StatsResponse, error)
}

// TimeseriesQuery computes or loads a bucketed series
type TimeseriesQuery interface {
	Execute(ctx context.Context, start, end time.Time, unit string) (*dto.TimeseriesResponse, error)
}

// CompareQuery compares two windows
type CompareQuery interface {
	Execute(ctx context.Context, current, previous service.Period) (*dto.CompareResponse, error)
}

// DailySnapshotsQuery lists persisted daily snapshots
type DailySnapshotsQuery interface {
	Execute(ctx context.Context, start, end time.Time) (*dto.DailySnapshotsResponse, error)
}

// SubscriptionStatsHandler serves the admin subscription stats endpoints
type SubscriptionStatsHandler struct {
	statsQuery      StatsQuery
	timeseriesQuery TimeseriesQuery
	compareQuery    CompareQuery
	dailyQuery      DailySnapshotsQuery
}

// NewSubscriptionStatsHandler creates a new subscription stats handler
func NewSubscriptionStatsHandler(
	statsQuery StatsQuery,
	timeseriesQuery TimeseriesQuery,
	compareQuery CompareQuery,
	dailyQuery DailySnapshotsQuery,
) *SubscriptionStatsHandler {
	return &SubscriptionStatsHandler{
		statsQuery:      statsQuery,
		timeseriesQuery: timeseriesQuery,
		compareQuery:    compareQuery,
		dailyQuery:      dailyQuery,
	}
}

// RegisterRoutes mounts the stats endpoints on an admin group
func (h *SubscriptionStatsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stats := rg.Group("/subscriptions/stats")
	stats.GET("", h.GetStats)
	stats.GET("/timeseries", h.GetTimeseries)
	stats.GET("/compare", h.Compare)
	stats.GET("/daily", h.ListDaily)
}

// GetStats returns the metrics snapshot for a window
// @Summary Subscription metrics for a window
// @Tags admin-stats
// @Produce json
// @Security Bearer
// @Param startDate query string true "RFC 3339 or YYYY-MM-DD"
// @Param endDate query string true "RFC 3339 or YYYY-MM-DD"
// @Success 200 {object} response.SuccessResponse{data=dto.StatsResponse}
// @Failure 400 {object} response.ErrorResponse
// @Router /admin/subscriptions/stats [get]
func (h *SubscriptionStatsHandler) GetStats(c *gin.Context) {
	var req dto.StatsWindowRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	start, end, err := req.Window()
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.statsQuery.Execute(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, resp)
}

// GetTimeseries returns the window bucketed by groupBy
// @Summary Subscription metrics timeseries
// @Tags admin-stats
// @Produce json
// @Security Bearer
// @Param groupBy query string false "day, week, month (default) or quarter"
// @Success 200 {object} response.SuccessResponse{data=dto.TimeseriesResponse}
// @Failure 400 {object} response.ErrorResponse
// @Router /admin/subscriptions/stats/timeseries [get]
func (h *SubscriptionStatsHandler) GetTimeseries(c *gin.Context) {
	var req dto.TimeseriesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	start, end, err := req.Window()
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.timeseriesQuery.Execute(c.Request.Context(), start, end, req.GroupBy)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, resp)
}

// Compare returns both snapshots and their deltas
// @Summary Compare two reporting windows
// @Tags admin-stats
// @Produce json
// @Security Bearer
// @Success 200 {object} response.SuccessResponse{data=dto.CompareResponse}
// @Failure 400 {object} response.ErrorResponse
// @Router /admin/subscriptions/stats/compare [get]
func (h *SubscriptionStatsHandler) Compare(c *gin.Context) {
	var req dto.CompareRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	currentStart, currentEnd, err := req.Current()
	if err != nil {
		respondError(c, err)
		return
	}
	previousStart, previousEnd, err := req.Previous()
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.compareQuery.Execute(c.Request.Context(),
		service.Period{Start: currentStart, End: currentEnd},
		service.Period{Start: previousStart, End: previousEnd},
	)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, resp)
}

// ListDaily returns the snapshots persisted by the daily worker job
// @Summary Persisted daily snapshots
// @Tags admin-stats
// @Produce json
// @Security Bearer
// @Success 200 {object} response.SuccessResponse{data=dto.DailySnapshotsResponse}
// @Router /admin/subscriptions/stats/daily [get]
func (h *SubscriptionStatsHandler) ListDaily(c *gin.Context) {
	var req dto.StatsWindowRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	start, end, err := req.Window()
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.dailyQuery.Execute(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, resp)
}

func respondBindingError(c *gin.Context, err error) {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		response.ValidationFailed(c, fe.Field(), fe.Field()+" "+bindingMessage(fe))
		return
	}
	response.BadRequest(c, err.Error())
}

func respondError(c *gin.Context, err error) {
	var ve *domainErrors.ValidationError
	switch {
	case errors.As(err, &ve):
		response.ValidationFailed(c, ve.Field, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		response.GatewayTimeout(c, "Stats computation timed out")
	case errors.Is(err, context.Canceled):
		// client went away; nothing useful to send
		c.Abort()
	case errors.Is(err, domainErrors.ErrExternalServiceUnavailable):
		response.ServiceUnavailable(c, "Stats backend unavailable")
	default:
		logging.GetLogger(c).Error("stats request failed", zap.Error(err))
		_ = c.Error(err)
		response.InternalError(c, "Failed to compute subscription stats")
	}
}
