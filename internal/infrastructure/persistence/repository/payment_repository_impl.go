package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bivex/subscription-metrics/internal/domain/entity"
	"github.com/bivex/subscription-metrics/internal/domain/repository"
	"github.com/bivex/subscription-metrics/internal/domain/valueobject"
)

type paymentRepositoryImpl struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new payment repository implementation
func NewPaymentRepository(pool *pgxpool.Pool) repository.PaymentRepository {
	return &paymentRepositoryImpl{pool: pool}
}

func (r *paymentRepositoryImpl) Create(ctx context.Context, payment *entity.Payment) error {
	query := `
		INSERT INTO payments (id, subscription_id, amount, currency, status, payment_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		payment.ID, payment.SubscriptionID, payment.Amount.Amount, string(payment.Amount.Currency),
		string(payment.Status), payment.PaymentDate, payment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *paymentRepositoryImpl) FindByPaymentDateBetween(ctx context.Context, start, end time.Time) ([]entity.Payment, error) {
	query := `
		SELECT id, subscription_id, amount, currency, status, payment_date, created_at
		FROM payments
		WHERE payment_date >= $1 AND payment_date <= $2
		ORDER BY payment_date
	`
	rows, err := r.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var results []entity.Payment
	for rows.Next() {
		var (
			p                entity.Payment
			amount           decimal.Decimal
			currency, status string
		)
		if err := rows.Scan(&p.ID, &p.SubscriptionID, &amount, &currency, &status, &p.PaymentDate, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.Amount = valueobject.Money{Amount: amount, Currency: valueobject.Currency(currency)}
		p.Status = valueobject.PaymentStatus(status)
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return results, nil
}
