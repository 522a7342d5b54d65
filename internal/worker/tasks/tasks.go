package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/bivex/subscription-metrics/internal/application/dto"
	"github.com/bivex/subscription-metrics/internal/domain/entity"
	"github.com/bivex/subscription-metrics/internal/infrastructure/config"
)

// Task names
const (
	TypeComputeDailyStats = "stats:compute_daily"
	TypeWarmStatsCache    = "stats:warm_cache"
	TypeRefreshCurrency   = "currency:refresh"
)

// DailySnapshotter persists the snapshot of one calendar day
type DailySnapshotter interface {
	Execute(ctx context.Context, day time.Time) (*entity.DailyStatsSnapshot, error)
}

// CacheWarmer recomputes a window and overwrites its cached snapshot
type CacheWarmer interface {
	Refresh(ctx context.Context, start, end time.Time) (*dto.StatsResponse, error)
}

// RateRefresher reloads the current exchange rate into the cache
type RateRefresher interface {
	Refresh(ctx context.Context) (*entity.ExchangeRate, error)
}

// StatsInvalidator drops cached stats results
type StatsInvalidator interface {
	Invalidate(ctx context.Context) (int, error)
}

// JobRecorder counts job executions
type JobRecorder interface {
	RecordJob(task string, err error)
}

// TaskHandlers holds dependencies for all task handlers.
type TaskHandlers struct {
	daily    DailySnapshotter
	warmer   CacheWarmer
	rates    RateRefresher
	recorder JobRecorder
	logger   *zap.Logger
	now      func() time.Time

	invalidator StatsInvalidator
	mu          sync.Mutex
	lastRate    string
}

// NewTaskHandlers creates task handlers.
func NewTaskHandlers(daily DailySnapshotter, warmer CacheWarmer, rates RateRefresher, recorder JobRecorder, logger *zap.Logger) *TaskHandlers {
	return &TaskHandlers{
		daily:    daily,
		warmer:   warmer,
		rates:    rates,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// WithInvalidator drops cached stats whenever a refresh observes a new exchange rate
func (h *TaskHandlers) WithInvalidator(inv StatsInvalidator) *TaskHandlers {
	h.invalidator = inv
	return h
}

// RegisterHandlers registers all task handlers with the server mux.
func RegisterHandlers(mux *asynq.ServeMux, h *TaskHandlers) {
	mux.HandleFunc(TypeComputeDailyStats, h.recorded(TypeComputeDailyStats, h.HandleComputeDailyStats))
	mux.HandleFunc(TypeWarmStatsCache, h.recorded(TypeWarmStatsCache, h.HandleWarmStatsCache))
	mux.HandleFunc(TypeRefreshCurrency, h.recorded(TypeRefreshCurrency, h.HandleRefreshCurrency))
}

// RegisterScheduledTasks registers all scheduled (cron) tasks
func RegisterScheduledTasks(scheduler *asynq.Scheduler, cfg config.WorkerConfig, logger *zap.Logger) error {
	entries := []struct {
		cron string
		task *asynq.Task
		opts []asynq.Option
	}{
		{cfg.DailySnapshotCron, asynq.NewTask(TypeComputeDailyStats, nil), []asynq.Option{asynq.Queue("critical"), asynq.MaxRetry(5)}},
		{cfg.WarmCacheCron, asynq.NewTask(TypeWarmStatsCache, nil), []asynq.Option{asynq.Queue("low"), asynq.MaxRetry(1), asynq.Timeout(5 * time.Minute)}},
		{cfg.CurrencyRefreshCron, asynq.NewTask(TypeRefreshCurrency, nil), []asynq.Option{asynq.MaxRetry(3)}},
	}

	for _, e := range entries {
		id, err := scheduler.Register(e.cron, e.task, e.opts...)
		if err != nil {
			return err
		}
		logger.Info("Scheduled task registered",
			zap.String("task", e.task.Type()),
			zap.String("cron", e.cron),
			zap.String("entry_id", id),
		)
	}
	return nil
}

func (h *TaskHandlers) recorded(task string, fn asynq.HandlerFunc) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		err := fn(ctx, t)
		if h.recorder != nil {
			h.recorder.RecordJob(task, err)
		}
		return err
	}
}
