package query

import (
	"context"
	"fmt"
	"time"

	"github.com/bivex/subscription-metrics/internal/application/dto"
	"github.com/bivex/subscription-metrics/internal/domain/repository"
	"github.com/bivex/subscription-metrics/internal/domain/service"
)

// ListDailySnapshotsQuery returns snapshots persisted by the daily job
type ListDailySnapshotsQuery struct {
	dailyRepo repository.DailyStatsRepository
}

// NewListDailySnapshotsQuery creates a new list daily snapshots query
func NewListDailySnapshotsQuery(dailyRepo repository.DailyStatsRepository) *ListDailySnapshotsQuery {
	return &ListDailySnapshotsQuery{dailyRepo: dailyRepo}
}

// Execute executes the list daily snapshots query
func (q *ListDailySnapshotsQuery) Execute(ctx context.Context, start, end time.Time) (*dto.DailySnapshotsResponse, error) {
	if err := ValidateWindow(start, end); err != nil {
		return nil, err
	}

	snapshots, err := q.dailyRepo.ListBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily snapshots: %w", err)
	}

	resp := &dto.DailySnapshotsResponse{
		Period:    dto.NewPeriodResponse(service.Period{Start: start, End: end}),
		Snapshots: make([]dto.DailySnapshotResponse, 0, len(snapshots)),
		Count:     len(snapshots),
	}
	for _, s := range snapshots {
		resp.Snapshots = append(resp.Snapshots, dto.DailySnapshotResponse{
			Date:       s.Date.Format("2006-01-02"),
			ComputedAt: s.ComputedAt,
			Stats:      s.Snapshot,
		})
	}
	return resp, nil
}
