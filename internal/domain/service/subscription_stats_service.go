package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bivex/subscription-metrics/internal/domain/entity"
	domainErrors "github.com/bivex/subscription-metrics/internal/domain/errors"
	"github.com/bivex/subscription-metrics/internal/domain/repository"
	"github.com/bivex/subscription-metrics/internal/domain/valueobject"
)

// DefaultMaxEvents caps how many lifecycle events one request folds
const DefaultMaxEvents = 10000

// RateProvider returns the exchange rate snapshot to normalize with
type RateProvider interface {
	CurrentRate(ctx context.Context) (*entity.ExchangeRate, error)
}

// SubscriptionStatsService loads the record sets for a window and runs the
// metrics engine over them
type SubscriptionStatsService struct {
	subscriptionRepo repository.SubscriptionRepository
	paymentRepo      repository.PaymentRepository
	eventRepo        repository.SubscriptionEventRepository
	rates            RateProvider
	calculator       *MetricsCalculator
	aggregator       *TimeseriesAggregator
	maxEvents        atomic.Int64
	logger           *zap.Logger
}

// NewSubscriptionStatsService creates a new subscription stats service
func NewSubscriptionStatsService(
	subscriptionRepo repository.SubscriptionRepository,
	paymentRepo repository.PaymentRepository,
	eventRepo repository.SubscriptionEventRepository,
	rates RateProvider,
	calculator *MetricsCalculator,
	aggregator *TimeseriesAggregator,
	logger *zap.Logger,
) *SubscriptionStatsService {
	s := &SubscriptionStatsService{
		subscriptionRepo: subscriptionRepo,
		paymentRepo:      paymentRepo,
		eventRepo:        eventRepo,
		rates:            rates,
		calculator:       calculator,
		aggregator:       aggregator,
		logger:           logger,
	}
	s.maxEvents.Store(DefaultMaxEvents)
	return s
}

// SetMaxEvents changes the per-request event limit. Values below 1 disable it.
func (s *SubscriptionStatsService) SetMaxEvents(limit int) {
	s.maxEvents.Store(int64(limit))
}

// records is the materialized part of a window's input
type records struct {
	subscriptions []entity.Subscription
	payments      []entity.Payment
	rate          *entity.ExchangeRate
}

// load fetches subscriptions, payments and the rate concurrently
func (s *SubscriptionStatsService) load(ctx context.Context, window Period) (*records, error) {
	var r records
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		subs, err := s.subscriptionRepo.FindExistingBetween(gctx, window.Start, window.End)
		if err != nil {
			return fmt.Errorf("failed to load subscriptions: %w", err)
		}
		r.subscriptions = subs
		return nil
	})
	g.Go(func() error {
		payments, err := s.paymentRepo.FindByPaymentDateBetween(gctx, window.Start, window.End)
		if err != nil {
			return fmt.Errorf("failed to load payments: %w", err)
		}
		r.payments = payments
		return nil
	})
	g.Go(func() error {
		rate, err := s.rates.CurrentRate(gctx)
		if err != nil {
			return fmt.Errorf("failed to load exchange rate: %w", err)
		}
		r.rate = rate
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &r, nil
}

// streamEvents folds the window's events into fn and reports whether the
// event limit cut the stream short
func (s *SubscriptionStatsService) streamEvents(ctx context.Context, window Period, fn repository.EventHandler) (bool, error) {
	limit := int(s.maxEvents.Load())
	n, err := s.eventRepo.StreamBetween(ctx, window.Start, window.End, limit, fn)
	if errors.Is(err, domainErrors.ErrEventLimitExceeded) {
		s.logger.Warn("Event limit reached, event based metrics are partial",
			zap.String("window", window.Label()),
			zap.Int("limit", limit),
		)
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stream events: %w", err)
	}

	s.logger.Debug("Events streamed", zap.String("window", window.Label()), zap.Int("count", n))
	return false, nil
}

// Snapshot computes the metrics of [start, end]
func (s *SubscriptionStatsService) Snapshot(ctx context.Context, start, end time.Time) (entity.StatsSnapshot, error) {
	window := Period{Start: start, End: end}

	r, err := s.load(ctx, window)
	if err != nil {
		return entity.StatsSnapshot{}, err
	}

	tally := NewEventTally(window)
	truncated, err := s.streamEvents(ctx, window, tally.Observe)
	if err != nil {
		return entity.StatsSnapshot{}, err
	}

	snapshot := s.calculator.CalculateWithTally(r.subscriptions, r.payments, tally, window, r.rate)
	snapshot.EventsTruncated = truncated
	return snapshot, nil
}

// Timeseries computes the metrics of [start, end] bucketed by groupBy
func (s *SubscriptionStatsService) Timeseries(ctx context.Context, start, end time.Time, groupBy valueobject.GroupBy) (*Timeseries, error) {
	window := Period{Start: start, End: end}

	r, err := s.load(ctx, window)
	if err != nil {
		return nil, err
	}

	tally := NewSeriesTally(window, GeneratePeriods(start, end, groupBy))
	truncated, err := s.streamEvents(ctx, window, tally.Observe)
	if err != nil {
		return nil, err
	}

	series, err := s.aggregator.AggregateWithTally(ctx, r.subscriptions, r.payments, tally, window, r.rate)
	if err != nil {
		return nil, err
	}
	series.Summary.EventsTruncated = truncated
	return series, nil
}

// Compare computes both windows independently and diffs them
func (s *SubscriptionStatsService) Compare(ctx context.Context, current, previous Period) (*ComparisonResult, error) {
	var cur, prev entity.StatsSnapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		cur, err = s.Snapshot(gctx, current.Start, current.End)
		return err
	})
	g.Go(func() error {
		var err error
		prev, err = s.Snapshot(gctx, previous.Start, previous.End)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := NewComparisonResult(cur, prev)
	return &result, nil
}
