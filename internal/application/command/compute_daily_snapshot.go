package command

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bivex/subscription-metrics/internal/domain/entity"
	"github.com/bivex/subscription-metrics/internal/domain/repository"
)

// SnapshotComputer computes the metrics of one window
type SnapshotComputer interface {
	Snapshot(ctx context.Context, start, end time.Time) (entity.StatsSnapshot, error)
}

// ComputeDailySnapshotCommand computes and persists the snapshot of one calendar day
type ComputeDailySnapshotCommand struct {
	stats     SnapshotComputer
	dailyRepo repository.DailyStatsRepository
	logger    *zap.Logger
}

// NewComputeDailySnapshotCommand creates a new compute daily snapshot command
func NewComputeDailySnapshotCommand(stats SnapshotComputer, dailyRepo repository.DailyStatsRepository, logger *zap.Logger) *ComputeDailySnapshotCommand {
	return &ComputeDailySnapshotCommand{
		stats:     stats,
		dailyRepo: dailyRepo,
		logger:    logger,
	}
}

// Execute computes the UTC day containing day and upserts it
func (c *ComputeDailySnapshotCommand) Execute(ctx context.Context, day time.Time) (*entity.DailyStatsSnapshot, error) {
	y, m, d := day.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)

	snapshot, err := c.stats.Snapshot(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to compute snapshot for %s: %w", start.Format("2006-01-02"), err)
	}

	daily := &entity.DailyStatsSnapshot{
		Date:       start,
		Snapshot:   snapshot,
		ComputedAt: time.Now().UTC(),
	}
	if err := c.dailyRepo.Upsert(ctx, daily); err != nil {
		return nil, fmt.Errorf("failed to store snapshot for %s: %w", start.Format("2006-01-02"), err)
	}

	c.logger.Info("Daily snapshot stored",
		zap.String("date", start.Format("2006-01-02")),
		zap.Float64("mrr", snapshot.MRR),
		zap.Int("active_subscriptions", snapshot.ActiveSubscriptions),
		zap.Bool("events_truncated", snapshot.EventsTruncated),
	)
	return daily, nil
}
