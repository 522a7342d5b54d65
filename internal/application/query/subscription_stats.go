package query

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bivex/subscription-metrics/internal/application/dto"
	"github.com/bivex/subscription-metrics/internal/domain/service"
)

// GetSubscriptionStatsQuery handles the snapshot of one reporting window
type GetSubscriptionStatsQuery struct {
	statsBase
}

// NewGetSubscriptionStatsQuery creates a new get subscription stats query
func NewGetSubscriptionStatsQuery(stats StatsComputer, cache StatsCache, metrics MetricsRecorder, logger *zap.Logger) *GetSubscriptionStatsQuery {
	return &GetSubscriptionStatsQuery{statsBase: newStatsBase(stats, cache, metrics, logger)}
}

// Execute executes the get subscription stats query
func (q *GetSubscriptionStatsQuery) Execute(ctx context.Context, start, end time.Time) (*dto.StatsResponse, error) {
	if err := ValidateWindow(start, end); err != nil {
		return nil, err
	}

	period := dto.NewPeriodResponse(service.Period{Start: start, End: end})

	cached, err := q.cache.GetSnapshot(ctx, start, end)
	if q.lookup(KindSnapshot, err) {
		return &dto.StatsResponse{Period: period, Stats: *cached, Cached: true}, nil
	}

	resp, err := q.compute(ctx, start, end)
	if err != nil {
		return nil, err
	}
	resp.Period = period
	return resp, nil
}

// Refresh recomputes the window and overwrites the cached snapshot
func (q *GetSubscriptionStatsQuery) Refresh(ctx context.Context, start, end time.Time) (*dto.StatsResponse, error) {
	if err := ValidateWindow(start, end); err != nil {
		return nil, err
	}

	resp, err := q.compute(ctx, start, end)
	if err != nil {
		return nil, err
	}
	resp.Period = dto.NewPeriodResponse(service.Period{Start: start, End: end})
	return resp, nil
}

func (q *GetSubscriptionStatsQuery) compute(ctx context.Context, start, end time.Time) (*dto.StatsResponse, error) {
	started := time.Now()
	snapshot, err := q.stats.Snapshot(ctx, start, end)
	q.observe(KindSnapshot, started, &snapshot, err)
	if err != nil {
		return nil, fmt.Errorf("failed to compute subscription stats: %w", err)
	}

	q.store(KindSnapshot, q.cache.SetSnapshot(ctx, start, end, snapshot))
	return &dto.StatsResponse{Stats: snapshot}, nil
}

// GetSubscriptionTimeseriesQuery handles a bucketed series over one window
type GetSubscriptionTimeseriesQuery struct {
	statsBase
}

// NewGetSubscriptionTimeseriesQuery creates a new timeseries query
func NewGetSubscriptionTimeseriesQuery(stats StatsComputer, cache StatsCache, metrics MetricsRecorder, logger *zap.Logger) *GetSubscriptionTimeseriesQuery {
	return &GetSubscriptionTimeseriesQuery{statsBase: newStatsBase(stats, cache, metrics, logger)}
}

// Execute executes the timeseries query. An empty unit means DefaultGroupBy.
func (q *GetSubscriptionTimeseriesQuery) Execute(ctx context.Context, start, end time.Time, unit string) (*dto.TimeseriesResponse, error) {
	if err := ValidateWindow(start, end); err != nil {
		return nil, err
	}
	groupBy, err := ParseGroupBy(start, end, unit)
	if err != nil {
		return nil, err
	}

	resp := &dto.TimeseriesResponse{
		Period:  dto.NewPeriodResponse(service.Period{Start: start, End: end}),
		GroupBy: groupBy.String(),
	}

	cached, err := q.cache.GetTimeseries(ctx, start, end, groupBy)
	if q.lookup(KindTimeseries, err) {
		resp.Timeseries = cached
		resp.Cached = true
		return resp, nil
	}

	started := time.Now()
	series, err := q.stats.Timeseries(ctx, start, end, groupBy)
	if err != nil {
		q.observe(KindTimeseries, started, nil, err)
		return nil, fmt.Errorf("failed to compute subscription timeseries: %w", err)
	}
	q.observe(KindTimeseries, started, &series.Summary, nil)

	q.store(KindTimeseries, q.cache.SetTimeseries(ctx, start, end, groupBy, series))
	resp.Timeseries = series
	return resp, nil
}

// CompareSubscriptionStatsQuery handles a comparison of two windows
type CompareSubscriptionStatsQuery struct {
	statsBase
}

// NewCompareSubscriptionStatsQuery creates a new compare query
func NewCompareSubscriptionStatsQuery(stats StatsComputer, cache StatsCache, metrics MetricsRecorder, logger *zap.Logger) *CompareSubscriptionStatsQuery {
	return &CompareSubscriptionStatsQuery{statsBase: newStatsBase(stats, cache, metrics, logger)}
}

// Execute validates both windows independently, then compares them
func (q *CompareSubscriptionStatsQuery) Execute(ctx context.Context, current, previous service.Period) (*dto.CompareResponse, error) {
	if err := ValidateWindow(current.Start, current.End); err != nil {
		return nil, fmt.Errorf("current period: %w", err)
	}
	if err := ValidateWindow(previous.Start, previous.End); err != nil {
		return nil, fmt.Errorf("previous period: %w", err)
	}

	resp := &dto.CompareResponse{
		CurrentPeriod:  dto.NewPeriodResponse(current),
		PreviousPeriod: dto.NewPeriodResponse(previous),
	}

	cached, err := q.cache.GetComparison(ctx, current, previous)
	if q.lookup(KindCompare, err) {
		resp.ComparisonResult = cached
		resp.Cached = true
		return resp, nil
	}

	started := time.Now()
	result, err := q.stats.Compare(ctx, current, previous)
	if err != nil {
		q.observe(KindCompare, started, nil, err)
		return nil, fmt.Errorf("failed to compare subscription stats: %w", err)
	}
	q.observe(KindCompare, started, &result.Current, nil)

	q.store(KindCompare, q.cache.SetComparison(ctx, current, previous, result))
	resp.ComparisonResult = result
	return resp, nil
}
