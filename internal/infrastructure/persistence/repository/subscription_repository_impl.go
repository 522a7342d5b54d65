package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bivex/subscription-metrics/internal/domain/entity"
	"github.com/bivex/subscription-metrics/internal/domain/repository"
	"github.com/bivex/subscription-metrics/internal/domain/valueobject"
)

const subscriptionColumns = `
	id, partner_id, status, plan_type, billing_frequency, billing_amount, currency,
	start_date, renewal_date, created_at, updated_at`

type subscriptionRepositoryImpl struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepository creates a new subscription repository implementation
func NewSubscriptionRepository(pool *pgxpool.Pool) repository.SubscriptionRepository {
	return &subscriptionRepositoryImpl{pool: pool}
}

func (r *subscriptionRepositoryImpl) Create(ctx context.Context, sub *entity.Subscription) error {
	query := `
		INSERT INTO partner_subscriptions (
			id, partner_id, status, plan_type, billing_frequency, billing_amount, currency,
			start_date, renewal_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.pool.Exec(ctx, query,
		sub.ID, sub.PartnerID, string(sub.Status), string(sub.PlanType), string(sub.BillingFrequency),
		sub.BillingAmount.Amount, string(sub.BillingAmount.Currency),
		sub.StartDate, sub.RenewalDate, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

func (r *subscriptionRepositoryImpl) FindExistingBetween(ctx context.Context, start, end time.Time) ([]entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM partner_subscriptions
		WHERE (start_date <= $2 AND created_at <= $2 AND (renewal_date IS NULL OR renewal_date >= $1))
		   OR (created_at >= $1 AND created_at <= $2)
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	var results []entity.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		results = append(results, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscriptions: %w", err)
	}
	return results, nil
}

func scanSubscription(row pgx.Row) (entity.Subscription, error) {
	var (
		s                                     entity.Subscription
		status, planType, frequency, currency string
		amount                                decimal.Decimal
	)
	err := row.Scan(
		&s.ID, &s.PartnerID, &status, &planType, &frequency, &amount, &currency,
		&s.StartDate, &s.RenewalDate, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return entity.Subscription{}, err
	}

	s.Status = valueobject.SubscriptionStatus(status)
	s.PlanType = valueobject.PlanType(planType)
	s.BillingFrequency = valueobject.BillingFrequency(frequency)
	s.BillingAmount = valueobject.Money{Amount: amount, Currency: valueobject.Currency(currency)}
	return s, nil
}
