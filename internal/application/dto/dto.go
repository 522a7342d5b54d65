package dto

import (
	"time"

	"github.com/bivex/subscription-metrics/internal/domain/entity"
	"github.com/bivex/subscription-metrics/internal/domain/service"
)

// ========== REQUEST DTOs ==========

// StatsWindowRequest is a reporting window given as query parameters
type StatsWindowRequest struct {
	StartDate string `form:"startDate" binding:"required,statsdate"`
	EndDate   string `form:"endDate" binding:"required,statsdate"`
}

// TimeseriesRequest is a reporting window plus its grouping unit
type TimeseriesRequest struct {
	StartDate string `form:"startDate" binding:"required,statsdate"`
	EndDate   string `form:"endDate" binding:"required,statsdate"`
	GroupBy   string `form:"groupBy" binding:"omitempty,groupby"`
}

// CompareRequest holds the two windows of a comparison
type CompareRequest struct {
	CurrentStartDate  string `form:"currentStartDate" binding:"required,statsdate"`
	CurrentEndDate    string `form:"currentEndDate" binding:"required,statsdate"`
	PreviousStartDate string `form:"previousStartDate" binding:"required,statsdate"`
	PreviousEndDate   string `form:"previousEndDate" binding:"required,statsdate"`
}

// RecordExchangeRateRequest stores a new GTQ/USD rate
type RecordExchangeRateRequest struct {
	GTQPerUSD string `json:"gtqPerUSD" binding:"required"`
	Source    string `json:"source" binding:"omitempty,max=50"`
}

// ========== STATS DTOs ==========

// PeriodResponse describes a reporting window
type PeriodResponse struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Label     string    `json:"label"`
}

// NewPeriodResponse converts a period
func NewPeriodResponse(p service.Period) PeriodResponse {
	return PeriodResponse{StartDate: p.Start, EndDate: p.End, Label: p.Label()}
}

// StatsResponse is the snapshot of one window
type StatsResponse struct {
	Period PeriodResponse       `json:"period"`
	Stats  entity.StatsSnapshot `json:"stats"`
	Cached bool                 `json:"cached"`
}

// TimeseriesResponse is a bucketed series over one window
type TimeseriesResponse struct {
	Period  PeriodResponse `json:"period"`
	GroupBy string         `json:"groupBy"`
	Cached  bool           `json:"cached"`
	*service.Timeseries
}

// CompareResponse compares two windows
type CompareResponse struct {
	CurrentPeriod  PeriodResponse `json:"currentPeriod"`
	PreviousPeriod PeriodResponse `json:"previousPeriod"`
	Cached         bool           `json:"cached"`
	*service.ComparisonResult
}

// DailySnapshotResponse is one persisted daily snapshot
type DailySnapshotResponse struct {
	Date       string               `json:"date"`
	ComputedAt time.Time            `json:"computedAt"`
	Stats      entity.StatsSnapshot `json:"stats"`
}

// DailySnapshotsResponse lists the persisted snapshots of a window
type DailySnapshotsResponse struct {
	Period    PeriodResponse          `json:"period"`
	Snapshots []DailySnapshotResponse `json:"snapshots"`
	Count     int                     `json:"count"`
}

// ========== EXCHANGE RATE DTOs ==========

// ExchangeRateResponse is the rate used to normalize GTQ amounts
type ExchangeRateResponse struct {
	GTQPerUSD   string    `json:"gtqPerUSD"`
	Source      string    `json:"source"`
	EffectiveAt time.Time `json:"effectiveAt"`
}

// NewExchangeRateResponse converts a rate
func NewExchangeRateResponse(rate *entity.ExchangeRate) ExchangeRateResponse {
	return ExchangeRateResponse{
		GTQPerUSD:   rate.GTQPerUSD.String(),
		Source:      rate.Source,
		EffectiveAt: rate.EffectiveAt,
	}
}
