//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bivex/subscription-metrics/internal/application/command"
	"github.com/bivex/subscription-metrics/internal/application/query"
	"github.com/bivex/subscription-metrics/internal/domain/entity"
	"github.com/bivex/subscription-metrics/internal/domain/service"
	"github.com/bivex/subscription-metrics/internal/domain/valueobject"
	"github.com/bivex/subscription-metrics/internal/infrastructure/cache"
	"github.com/bivex/subscription-metrics/internal/infrastructure/metrics"
	"github.com/bivex/subscription-metrics/internal/infrastructure/persistence/repository"
	"github.com/bivex/subscription-metrics/tests/testutil"
)

type statsEngine struct {
	service *service.SubscriptionStatsService
	cache   *cache.StatsCache
	metrics *metrics.StatsMetrics
}

func newStatsEngine(t *testing.T, db *testutil.TestDBContainer) *statsEngine {
	t.Helper()
	logger := zap.NewNop()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	rates := service.NewExchangeRateService(
		repository.NewExchangeRateRepository(db.Pool),
		cache.NewExchangeRateCache(client),
		logger,
	)
	calculator := service.NewMetricsCalculator(logger)

	return &statsEngine{
		service: service.NewSubscriptionStatsService(
			repository.NewSubscriptionRepository(db.Pool),
			repository.NewPaymentRepository(db.Pool),
			repository.NewSubscriptionEventRepository(db.Pool),
			rates,
			calculator,
			service.NewTimeseriesAggregator(calculator, 4, logger),
			logger,
		),
		cache:   cache.NewStatsCache(client, time.Minute, logger),
		metrics: metrics.NewStatsMetrics(),
	}
}

// seedJanuary stores four subscriptions, their January payments and events
// and a rate of 8 GTQ per USD.
func seedJanuary(ctx context.Context, t *testing.T, db *testutil.TestDBContainer) {
	t.Helper()
	require.NoError(t, db.TruncateAll(ctx))

	subRepo := repository.NewSubscriptionRepository(db.Pool)
	payRepo := repository.NewPaymentRepository(db.Pool)
	eventRepo := repository.NewSubscriptionEventRepository(db.Pool)
	rateRepo := repository.NewExchangeRateRepository(db.Pool)

	subs := testutil.NewSubscriptionFactory()
	payments := testutil.NewPaymentFactory()
	events := testutil.NewEventFactory()

	require.NoError(t, rateRepo.Create(ctx, entity.NewExchangeRate(decimal.NewFromInt(8), "test", testutil.Date(2023, time.December, 1))))

	// 80 GTQ/month = 10 USD, active since December
	gtq := subs.Monthly("80", valueobject.GTQ, testutil.Date(2023, time.December, 1))
	// 20 USD/month, created inside the window
	usd := subs.Monthly("20", valueobject.USD, testutil.Date(2024, time.January, 10))
	// 300 USD/quarter = 100 USD/month, active since November
	quarterly := subs.Create(valueobject.PlanInspira, valueobject.BillingQuarterly, "300", valueobject.USD, testutil.Date(2023, time.November, 1))
	// cancelled mid-January
	cancelled := subs.Monthly("50", valueobject.USD, testutil.Date(2023, time.December, 1))
	cancelled.Status = valueobject.StatusCancelled

	for _, s := range []*entity.Subscription{gtq, usd, quarterly, cancelled} {
		require.NoError(t, subRepo.Create(ctx, s))
	}

	require.NoError(t, payRepo.Create(ctx, payments.Create(gtq, valueobject.PaymentPaid, testutil.Date(2024, time.January, 1))))
	require.NoError(t, payRepo.Create(ctx, payments.Create(usd, valueobject.PaymentPaid, testutil.Date(2024, time.January, 10))))
	require.NoError(t, payRepo.Create(ctx, payments.Create(cancelled, valueobject.PaymentFailed, testutil.Date(2024, time.January, 5))))

	require.NoError(t, eventRepo.Create(ctx, events.Create(gtq, valueobject.EventRenewed, testutil.Date(2024, time.January, 1))))
	require.NoError(t, eventRepo.Create(ctx, events.Create(usd, valueobject.EventCreated, testutil.Date(2024, time.January, 10))))
	require.NoError(t, eventRepo.Create(ctx, events.Create(cancelled, valueobject.EventCancelled, testutil.Date(2024, time.January, 15))))
}

func TestStatsEngine_January(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDBContainer(ctx, t)
	seedJanuary(ctx, t, db)

	engine := newStatsEngine(t, db)
	start := testutil.Date(2024, time.January, 1)
	end := time.Date(2024, time.January, 31, 23, 59, 59, 999999999, time.UTC)

	t.Run("snapshot", func(t *testing.T) {
		q := query.NewGetSubscriptionStatsQuery(engine.service, engine.cache, engine.metrics, zap.NewNop())

		resp, err := q.Execute(ctx, start, end)
		require.NoError(t, err)
		s := resp.Stats

		assert.InDelta(t, 130.0, s.MRR, 0.001)
		assert.InDelta(t, 1560.0, s.ARR, 0.001)
		assert.Equal(t, 3, s.ActiveSubscriptions)
		assert.Equal(t, 4, s.TotalSubscriptions)
		assert.InDelta(t, 50.0, s.ChurnRate, 0.001)
		assert.InDelta(t, 50.0, s.RetentionRate, 0.001)
		assert.InDelta(t, 100.0, s.RenewalRate, 0.001)
		assert.InDelta(t, 200.0/3, s.PaymentSuccessRate, 0.001)
		assert.InDelta(t, 30.0, s.TotalRevenue, 0.001)
		assert.Equal(t, 1, s.NewSubscriptions)
		assert.Equal(t, 1, s.CancelledSubscriptions)
		assert.Equal(t, 0, s.Unconverted.Count)
		assert.Equal(t, "2024-01-01 to 2024-01-31", resp.Period.Label)

		again, err := q.Execute(ctx, start, end)
		require.NoError(t, err)
		assert.True(t, again.Cached)
	})

	t.Run("weekly timeseries", func(t *testing.T) {
		q := query.NewGetSubscriptionTimeseriesQuery(engine.service, engine.cache, engine.metrics, zap.NewNop())

		resp, err := q.Execute(ctx, start, end, "week")
		require.NoError(t, err)

		require.Equal(t, 5, resp.TotalPeriods)
		// adjacent periods share their boundary instant
		assert.Equal(t, "2024-01-01 to 2024-01-08", resp.Series[0].Label)
		assert.Equal(t, "2024-01-29 to 2024-01-31", resp.Series[4].Label)
		assert.InDelta(t, 130.0, resp.Summary.MRR, 0.001)
	})

	t.Run("compare with December", func(t *testing.T) {
		q := query.NewCompareSubscriptionStatsQuery(engine.service, engine.cache, engine.metrics, zap.NewNop())

		resp, err := q.Execute(ctx,
			service.Period{Start: start, End: end},
			service.Period{Start: testutil.Date(2023, time.December, 1), End: time.Date(2023, time.December, 31, 23, 59, 59, 0, time.UTC)},
		)
		require.NoError(t, err)

		assert.Equal(t, 1, resp.Current.NewSubscriptions)
		assert.Equal(t, 0, resp.Previous.NewSubscriptions)
	})

	t.Run("daily snapshot is persisted and listed", func(t *testing.T) {
		dailyRepo := repository.NewDailyStatsRepository(db.Pool)
		cmd := command.NewComputeDailySnapshotCommand(engine.service, dailyRepo, zap.NewNop())

		_, err := cmd.Execute(ctx, testutil.Date(2024, time.January, 10))
		require.NoError(t, err)

		list, err := query.NewListDailySnapshotsQuery(dailyRepo).Execute(ctx, start, end)
		require.NoError(t, err)
		require.Equal(t, 1, list.Count)
		assert.Equal(t, "2024-01-10", list.Snapshots[0].Date)
		assert.Equal(t, 1, list.Snapshots[0].Stats.NewSubscriptions)
	})
}
