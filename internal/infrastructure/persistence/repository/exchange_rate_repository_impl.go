package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bivex/subscription-metrics/internal/domain/entity"
	domainErrors "github.com/bivex/subscription-metrics/internal/domain/errors"
	"github.com/bivex/subscription-metrics/internal/domain/repository"
)

type exchangeRateRepositoryImpl struct {
	pool *pgxpool.Pool
}

// NewExchangeRateRepository creates a new exchange rate repository implementation
func NewExchangeRateRepository(pool *pgxpool.Pool) repository.ExchangeRateRepository {
	return &exchangeRateRepositoryImpl{pool: pool}
}

func (r *exchangeRateRepositoryImpl) Create(ctx context.Context, rate *entity.ExchangeRate) error {
	query := `
		INSERT INTO rate_exchanges (id, gtq_per_usd, source, effective_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, rate.ID, rate.GTQPerUSD, rate.Source, rate.EffectiveAt, rate.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create exchange rate: %w", err)
	}
	return nil
}

func (r *exchangeRateRepositoryImpl) GetCurrent(ctx context.Context) (*entity.ExchangeRate, error) {
	query := `
		SELECT id, gtq_per_usd, source, effective_at, created_at
		FROM rate_exchanges
		ORDER BY effective_at DESC, created_at DESC
		LIMIT 1
	`
	rate := &entity.ExchangeRate{}
	err := r.pool.QueryRow(ctx, query).Scan(
		&rate.ID, &rate.GTQPerUSD, &rate.Source, &rate.EffectiveAt, &rate.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domainErrors.ErrExchangeRateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange rate: %w", err)
	}
	return rate, nil
}
