package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	dayLayout = "2006-01-02"

	// DefaultWarmWindowDays is the dashboard window kept warm in the cache
	DefaultWarmWindowDays = 30
)

// ComputeDailyStatsPayload selects the day to persist. Empty means yesterday (UTC).
type ComputeDailyStatsPayload struct {
	Date string `json:"date,omitempty"`
}

// WarmStatsCachePayload sets how many days, today included, the warmed window spans
type WarmStatsCachePayload struct {
	Days int `json:"days,omitempty"`
}

// NewComputeDailyStatsTask creates a task persisting the snapshot of day
func NewComputeDailyStatsTask(day time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(ComputeDailyStatsPayload{Date: day.UTC().Format(dayLayout)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeComputeDailyStats, payload), nil
}

// NewWarmStatsCacheTask creates a cache warming task over the last days
func NewWarmStatsCacheTask(days int) (*asynq.Task, error) {
	payload, err := json.Marshal(WarmStatsCachePayload{Days: days})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeWarmStatsCache, payload), nil
}

// HandleComputeDailyStats persists the snapshot of one day
func (h *TaskHandlers) HandleComputeDailyStats(ctx context.Context, t *asynq.Task) error {
	var payload ComputeDailyStatsPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	day := startOfDay(h.now()).AddDate(0, 0, -1)
	if payload.Date != "" {
		parsed, err := time.Parse(dayLayout, payload.Date)
		if err != nil {
			return fmt.Errorf("invalid date %q: %v: %w", payload.Date, err, asynq.SkipRetry)
		}
		day = parsed
	}

	snapshot, err := h.daily.Execute(ctx, day)
	if err != nil {
		h.logger.Error("Failed to compute daily stats", zap.String("date", day.Format(dayLayout)), zap.Error(err))
		return err
	}

	h.logger.Info("Daily stats persisted",
		zap.String("date", day.Format(dayLayout)),
		zap.Int("active_subscriptions", snapshot.Snapshot.ActiveSubscriptions),
		zap.Bool("events_truncated", snapshot.Snapshot.EventsTruncated),
	)
	return nil
}

// HandleWarmStatsCache recomputes the dashboard window so readers hit the cache.
// The window matches a request with date-only bounds.
func (h *TaskHandlers) HandleWarmStatsCache(ctx context.Context, t *asynq.Task) error {
	payload := WarmStatsCachePayload{Days: DefaultWarmWindowDays}
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	if payload.Days <= 0 {
		payload.Days = DefaultWarmWindowDays
	}

	end := startOfDay(h.now())
	start := end.AddDate(0, 0, -payload.Days)

	resp, err := h.warmer.Refresh(ctx, start, end)
	if err != nil {
		h.logger.Error("Failed to warm stats cache", zap.Int("days", payload.Days), zap.Error(err))
		return err
	}

	h.logger.Info("Stats cache warmed",
		zap.String("period", resp.Period.Label),
		zap.Int("active_subscriptions", resp.Stats.ActiveSubscriptions),
	)
	return nil
}

// HandleRefreshCurrency reloads the current GTQ rate into the cache
func (h *TaskHandlers) HandleRefreshCurrency(ctx context.Context, t *asynq.Task) error {
	rate, err := h.rates.Refresh(ctx)
	if err != nil {
		h.logger.Error("Failed to refresh exchange rate", zap.Error(err))
		return err
	}
	if !h.rateChanged(rate.GTQPerUSD.String()) || h.invalidator == nil {
		return nil
	}

	// Cached results were normalized with the previous rate
	removed, err := h.invalidator.Invalidate(ctx)
	if err != nil {
		h.logger.Warn("Failed to invalidate stats cache", zap.Error(err))
		return nil
	}
	h.logger.Info("Stats cache invalidated after rate change",
		zap.String("gtq_per_usd", rate.GTQPerUSD.String()),
		zap.Int("keys", removed),
	)
	return nil
}

// rateChanged records rate and reports whether it differs from a previously seen one
func (h *TaskHandlers) rateChanged(rate string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	changed := h.lastRate != "" && h.lastRate != rate
	h.lastRate = rate
	return changed
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
