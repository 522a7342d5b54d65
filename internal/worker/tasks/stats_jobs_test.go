package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bivex/subscription-metrics/internal/application/dto"
	"github.com/bivex/subscription-metrics/internal/domain/entity"
	"github.com/bivex/subscription-metrics/internal/infrastructure/config"
	"github.com/bivex/subscription-metrics/internal/infrastructure/metrics"
)

type mockDailySnapshotter struct{ mock.Mock }

func (m *mockDailySnapshotter) Execute(ctx context.Context, day time.Time) (*entity.DailyStatsSnapshot, error) {
	args := m.Called(ctx, day)
	s, _ := args.Get(0).(*entity.DailyStatsSnapshot)
	return s, args.Error(1)
}

type mockCacheWarmer struct{ mock.Mock }

func (m *mockCacheWarmer) Refresh(ctx context.Context, start, end time.Time) (*dto.StatsResponse, error) {
	args := m.Called(ctx, start, end)
	r, _ := args.Get(0).(*dto.StatsResponse)
	return r, args.Error(1)
}

type mockRateRefresher struct{ mock.Mock }

func (m *mockRateRefresher) Refresh(ctx context.Context) (*entity.ExchangeRate, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).(*entity.ExchangeRate)
	return r, args.Error(1)
}

type jobFixture struct {
	daily   *mockDailySnapshotter
	warmer  *mockCacheWarmer
	rates   *mockRateRefresher
	metrics *metrics.StatsMetrics
	mux     *asynq.ServeMux
}

var fixedNow = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

func newJobFixture() *jobFixture {
	f := &jobFixture{
		daily:   &mockDailySnapshotter{},
		warmer:  &mockCacheWarmer{},
		rates:   &mockRateRefresher{},
		metrics: metrics.NewStatsMetrics(),
		mux:     asynq.NewServeMux(),
	}
	h := NewTaskHandlers(f.daily, f.warmer, f.rates, f.metrics, zap.NewNop())
	h.now = func() time.Time { return fixedNow }
	RegisterHandlers(f.mux, h)
	return f
}

func (f *jobFixture) runs(task, result string) float64 {
	return testutil.ToFloat64(f.metrics.JobRuns.WithLabelValues(task, result))
}

func TestHandleComputeDailyStats(t *testing.T) {
	t.Run("defaults to yesterday", func(t *testing.T) {
		f := newJobFixture()
		yesterday := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
		f.daily.On("Execute", mock.Anything, yesterday).
			Return(&entity.DailyStatsSnapshot{Date: yesterday}, nil).Once()

		err := f.mux.ProcessTask(context.Background(), asynq.NewTask(TypeComputeDailyStats, nil))

		require.NoError(t, err)
		f.daily.AssertExpectations(t)
		assert.Equal(t, 1.0, f.runs(TypeComputeDailyStats, metrics.ResultSuccess))
	})

	t.Run("explicit date", func(t *testing.T) {
		f := newJobFixture()
		day := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
		f.daily.On("Execute", mock.Anything, day).
			Return(&entity.DailyStatsSnapshot{Date: day}, nil).Once()

		task, err := NewComputeDailyStatsTask(day)
		require.NoError(t, err)

		require.NoError(t, f.mux.ProcessTask(context.Background(), task))
		f.daily.AssertExpectations(t)
	})

	t.Run("malformed date is not retried", func(t *testing.T) {
		f := newJobFixture()
		payload, _ := json.Marshal(ComputeDailyStatsPayload{Date: "15/03/2024"})

		err := f.mux.ProcessTask(context.Background(), asynq.NewTask(TypeComputeDailyStats, payload))

		assert.ErrorIs(t, err, asynq.SkipRetry)
		f.daily.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
		assert.Equal(t, 1.0, f.runs(TypeComputeDailyStats, metrics.ResultError))
	})

	t.Run("command failure is returned for retry", func(t *testing.T) {
		f := newJobFixture()
		f.daily.On("Execute", mock.Anything, mock.Anything).Return(nil, errors.New("db down")).Once()

		err := f.mux.ProcessTask(context.Background(), asynq.NewTask(TypeComputeDailyStats, nil))

		require.Error(t, err)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})
}

func TestHandleWarmStatsCache(t *testing.T) {
	t.Run("default window is the last 30 days", func(t *testing.T) {
		f := newJobFixture()
		// same bounds as startDate=2024-02-14&endDate=2024-03-15
		start := time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)
		end := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
		f.warmer.On("Refresh", mock.Anything, start, end).Return(&dto.StatsResponse{}, nil).Once()

		require.NoError(t, f.mux.ProcessTask(context.Background(), asynq.NewTask(TypeWarmStatsCache, nil)))
		f.warmer.AssertExpectations(t)
	})

	t.Run("custom window", func(t *testing.T) {
		f := newJobFixture()
		start := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
		f.warmer.On("Refresh", mock.Anything, start, mock.Anything).Return(&dto.StatsResponse{}, nil).Once()

		task, err := NewWarmStatsCacheTask(7)
		require.NoError(t, err)

		require.NoError(t, f.mux.ProcessTask(context.Background(), task))
		f.warmer.AssertExpectations(t)
	})
}

func TestHandleRefreshCurrency(t *testing.T) {
	f := newJobFixture()
	f.rates.On("Refresh", mock.Anything).
		Return(entity.NewExchangeRate(decimal.NewFromInt(8), "seed", fixedNow), nil).Once()
	f.rates.On("Refresh", mock.Anything).Return(nil, errors.New("exchange rate not found")).Once()

	require.NoError(t, f.mux.ProcessTask(context.Background(), asynq.NewTask(TypeRefreshCurrency, nil)))
	require.Error(t, f.mux.ProcessTask(context.Background(), asynq.NewTask(TypeRefreshCurrency, nil)))

	assert.Equal(t, 1.0, f.runs(TypeRefreshCurrency, metrics.ResultSuccess))
	assert.Equal(t, 1.0, f.runs(TypeRefreshCurrency, metrics.ResultError))
}

type mockInvalidator struct{ mock.Mock }

func (m *mockInvalidator) Invalidate(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestHandleRefreshCurrency_InvalidatesOnRateChange(t *testing.T) {
	rates := &mockRateRefresher{}
	inv := &mockInvalidator{}
	h := NewTaskHandlers(nil, nil, rates, nil, zap.NewNop()).WithInvalidator(inv)

	rates.On("Refresh", mock.Anything).
		Return(entity.NewExchangeRate(decimal.NewFromInt(8), "seed", fixedNow), nil).Twice()
	rates.On("Refresh", mock.Anything).
		Return(entity.NewExchangeRate(decimal.RequireFromString("7.75"), "manual", fixedNow), nil).Once()
	inv.On("Invalidate", mock.Anything).Return(3, nil).Once()

	task := asynq.NewTask(TypeRefreshCurrency, nil)
	for i := 0; i < 3; i++ {
		require.NoError(t, h.HandleRefreshCurrency(context.Background(), task))
	}

	inv.AssertNumberOfCalls(t, "Invalidate", 1)
	rates.AssertExpectations(t)
}

func TestRegisterScheduledTasks(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	scheduler := asynq.NewSchedulerFromRedisClient(client, nil)

	cfg := config.WorkerConfig{
		DailySnapshotCron:   "10 0 * * *",
		WarmCacheCron:       "*/15 * * * *",
		CurrencyRefreshCron: "*/30 * * * *",
	}
	require.NoError(t, RegisterScheduledTasks(scheduler, cfg, zap.NewNop()))

	cfg.WarmCacheCron = "every now and then"
	assert.Error(t, RegisterScheduledTasks(asynq.NewSchedulerFromRedisClient(client, nil), cfg, zap.NewNop()))
}
