package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bivex/subscription-metrics/internal/domain/entity"
	"github.com/bivex/subscription-metrics/internal/domain/repository"
)

type dailyStatsRepositoryImpl struct {
	pool *pgxpool.Pool
}

// NewDailyStatsRepository creates a new daily stats repository implementation
func NewDailyStatsRepository(pool *pgxpool.Pool) repository.DailyStatsRepository {
	return &dailyStatsRepositoryImpl{pool: pool}
}

func (r *dailyStatsRepositoryImpl) Upsert(ctx context.Context, daily *entity.DailyStatsSnapshot) error {
	payload, err := json.Marshal(daily.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	query := `
		INSERT INTO daily_stats_snapshots (stats_date, snapshot, computed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (stats_date) DO UPDATE
		SET snapshot = EXCLUDED.snapshot, computed_at = EXCLUDED.computed_at
	`
	if _, err := r.pool.Exec(ctx, query, daily.Date, payload, daily.ComputedAt); err != nil {
		return fmt.Errorf("failed to upsert daily stats: %w", err)
	}
	return nil
}

func (r *dailyStatsRepositoryImpl) ListBetween(ctx context.Context, start, end time.Time) ([]entity.DailyStatsSnapshot, error) {
	query := `
		SELECT stats_date, snapshot, computed_at
		FROM daily_stats_snapshots
		WHERE stats_date >= $1::date AND stats_date <= $2::date
		ORDER BY stats_date
	`
	rows, err := r.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily stats: %w", err)
	}
	defer rows.Close()

	var results []entity.DailyStatsSnapshot
	for rows.Next() {
		var (
			d       entity.DailyStatsSnapshot
			payload []byte
		)
		if err := rows.Scan(&d.Date, &payload, &d.ComputedAt); err != nil {
			return nil, fmt.Errorf("failed to scan daily stats: %w", err)
		}
		if err := json.Unmarshal(payload, &d.Snapshot); err != nil {
			return nil, fmt.Errorf("failed to unmarshal daily stats for %s: %w", d.Date.Format("2006-01-02"), err)
		}
		results = append(results, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily stats: %w", err)
	}
	return results, nil
}
