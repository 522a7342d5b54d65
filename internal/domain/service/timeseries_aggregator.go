package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bivex/subscription-metrics/internal/domain/entity"
	"github.com/bivex/subscription-metrics/internal/domain/valueobject"
)

// DefaultTimeseriesConcurrency bounds how many periods are computed at once
const DefaultTimeseriesConcurrency = 8

// TimeseriesPoint is the snapshot of one period in a series
type TimeseriesPoint struct {
	Label     string    `json:"period"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	entity.StatsSnapshot
}

// Timeseries is an ordered series plus a summary over the whole window
type Timeseries struct {
	Series       []TimeseriesPoint    `json:"series"`
	Summary      entity.StatsSnapshot `json:"summary"`
	TotalPeriods int                  `json:"totalPeriods"`
}

// TimeseriesInput is the record set for a whole reporting window
type TimeseriesInput struct {
	Subscriptions []entity.Subscription
	Payments      []entity.Payment
	Events        []entity.SubscriptionEvent
	Start         time.Time
	End           time.Time
	GroupBy       valueobject.GroupBy
	Rate          *entity.ExchangeRate
}

// TimeseriesAggregator buckets a window into calendar periods and computes a
// snapshot for each one
type TimeseriesAggregator struct {
	calculator  *MetricsCalculator
	concurrency int
	logger      *zap.Logger
}

// NewTimeseriesAggregator creates a new aggregator. A concurrency below 1
// falls back to DefaultTimeseriesConcurrency.
func NewTimeseriesAggregator(calculator *MetricsCalculator, concurrency int, logger *zap.Logger) *TimeseriesAggregator {
	if concurrency < 1 {
		concurrency = DefaultTimeseriesConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeseriesAggregator{
		calculator:  calculator,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Aggregate computes the series for a fully materialized input
func (a *TimeseriesAggregator) Aggregate(ctx context.Context, in TimeseriesInput) (*Timeseries, error) {
	window := Period{Start: in.Start, End: in.End}
	tally := NewSeriesTally(window, GeneratePeriods(in.Start, in.End, in.GroupBy))
	for _, event := range in.Events {
		_ = tally.Observe(event)
	}
	return a.AggregateWithTally(ctx, in.Subscriptions, in.Payments, tally, window, in.Rate)
}

// AggregateWithTally computes the series using events already routed into
// tally. Only cancellation of ctx can make it fail.
func (a *TimeseriesAggregator) AggregateWithTally(
	ctx context.Context,
	subscriptions []entity.Subscription,
	payments []entity.Payment,
	tally *SeriesTally,
	window Period,
	rate *entity.ExchangeRate,
) (*Timeseries, error) {
	periods := tally.Periods()
	series := make([]TimeseriesPoint, len(periods))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, period := range periods {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			snapshot := a.calculator.CalculateWithTally(
				subscriptionsInPeriod(subscriptions, period),
				paymentsInPeriod(payments, period),
				tally.tallies[i],
				period,
				rate,
			)
			series[i] = TimeseriesPoint{
				Label:         period.Label(),
				StartDate:     period.Start,
				EndDate:       period.End,
				StatsSnapshot: snapshot,
			}
			return nil
		})
	}

	// Rates are not additive across periods, so the summary is computed
	// over the unfiltered records.
	summary := a.calculator.CalculateWithTally(subscriptions, payments, tally.Summary(), window, rate)

	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.logger.Debug("Timeseries aggregated",
		zap.String("window", window.Label()),
		zap.Int("periods", len(periods)),
		zap.Int("events", tally.Observed()),
	)

	return &Timeseries{
		Series:       series,
		Summary:      summary,
		TotalPeriods: len(series),
	}, nil
}

// subscriptionsInPeriod keeps subscriptions that existed at some point of p
func subscriptionsInPeriod(subscriptions []entity.Subscription, p Period) []entity.Subscription {
	out := make([]entity.Subscription, 0, len(subscriptions))
	for i := range subscriptions {
		sub := &subscriptions[i]
		overlaps := !sub.CreatedAt.After(p.End) && sub.RenewsOnOrAfter(p.Start)
		if overlaps || p.Contains(sub.CreatedAt) {
			out = append(out, *sub)
		}
	}
	return out
}

func paymentsInPeriod(payments []entity.Payment, p Period) []entity.Payment {
	out := make([]entity.Payment, 0)
	for i := range payments {
		if p.Contains(payments[i].PaymentDate) {
			out = append(out, payments[i])
		}
	}
	return out
}
