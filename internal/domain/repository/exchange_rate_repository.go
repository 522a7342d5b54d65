package repository

import (
	"context"

	"github.com/bivex/subscription-metrics/internal/domain/entity"
)

// ExchangeRateRepository defines the interface for exchange rate data access
type ExchangeRateRepository interface {
	// Create stores a new rate snapshot
	Create(ctx context.Context, rate *entity.ExchangeRate) error

	// GetCurrent returns the most recent rate, or domain ErrExchangeRateNotFound
	GetCurrent(ctx context.Context) (*entity.ExchangeRate, error)
}
