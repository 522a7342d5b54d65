package repository

import (
	"context"
	"time"

	"github.com/bivex/subscription-metrics/internal/domain/entity"
)

// DailyStatsRepository stores snapshots computed by the worker
type DailyStatsRepository interface {
	// Upsert stores the snapshot for its day, replacing any previous one
	Upsert(ctx context.Context, snapshot *entity.DailyStatsSnapshot) error

	// ListBetween returns snapshots whose day falls within [start, end], oldest first
	ListBetween(ctx context.Context, start, end time.Time) ([]entity.DailyStatsSnapshot, error)
}
