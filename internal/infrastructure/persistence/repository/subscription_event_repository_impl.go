package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bivex/subscription-metrics/internal/domain/entity"
	domainErrors "github.com/bivex/subscription-metrics/internal/domain/errors"
	"github.com/bivex/subscription-metrics/internal/domain/repository"
	"github.com/bivex/subscription-metrics/internal/domain/valueobject"
)

type subscriptionEventRepositoryImpl struct {
	pool *pgxpool.Pool
}

// NewSubscriptionEventRepository creates a new lifecycle event repository implementation
func NewSubscriptionEventRepository(pool *pgxpool.Pool) repository.SubscriptionEventRepository {
	return &subscriptionEventRepositoryImpl{pool: pool}
}

func (r *subscriptionEventRepositoryImpl) Create(ctx context.Context, event *entity.SubscriptionEvent) error {
	query := `
		INSERT INTO subscription_events (id, subscription_id, partner_id, event_type, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		event.ID, event.SubscriptionID, event.PartnerID, string(event.Type), event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create subscription event: %w", err)
	}
	return nil
}

// StreamBetween reads one row past the limit so that a truncated stream can
// be told apart from one that ended exactly at the limit.
func (r *subscriptionEventRepositoryImpl) StreamBetween(
	ctx context.Context,
	start, end time.Time,
	limit int,
	fn repository.EventHandler,
) (int, error) {
	query := `
		SELECT id, subscription_id, partner_id, event_type, occurred_at
		FROM subscription_events
		WHERE occurred_at >= $1 AND occurred_at <= $2
		ORDER BY occurred_at, id
	`
	args := []any{start, end}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit+1)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to query subscription events: %w", err)
	}
	defer rows.Close()

	delivered := 0
	for rows.Next() {
		if limit > 0 && delivered == limit {
			return delivered, domainErrors.ErrEventLimitExceeded
		}

		var (
			e         entity.SubscriptionEvent
			eventType string
		)
		if err := rows.Scan(&e.ID, &e.SubscriptionID, &e.PartnerID, &eventType, &e.OccurredAt); err != nil {
			return delivered, fmt.Errorf("failed to scan subscription event: %w", err)
		}
		e.Type = valueobject.EventType(eventType)

		if err := fn(e); err != nil {
			return delivered, err
		}
		delivered++
	}
	if err := rows.Err(); err != nil {
		return delivered, fmt.Errorf("failed to iterate subscription events: %w", err)
	}
	return delivered, nil
}
