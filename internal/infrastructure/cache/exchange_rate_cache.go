package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/bivex/subscription-metrics/internal/domain/entity"
	domainErrors "github.com/bivex/subscription-metrics/internal/domain/errors"
)

const (
	KeyExchangeRate = "fx:gtq_usd:current"
	TTLExchangeRate = 1 * time.Hour
)

// cachedRate is the wire form of an exchange rate
type cachedRate struct {
	ID          uuid.UUID       `json:"id"`
	GTQPerUSD   decimal.Decimal `json:"gtq_per_usd"`
	Source      string          `json:"source"`
	EffectiveAt time.Time       `json:"effective_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ExchangeRateCache keeps the current GTQ/USD rate in Redis
type ExchangeRateCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewExchangeRateCache creates a new exchange rate cache
func NewExchangeRateCache(client *redis.Client) *ExchangeRateCache {
	return &ExchangeRateCache{client: client, ttl: TTLExchangeRate}
}

// GetExchangeRate returns the cached rate or ErrExchangeRateNotFound
func (c *ExchangeRateCache) GetExchangeRate(ctx context.Context) (*entity.ExchangeRate, error) {
	data, err := c.client.Get(ctx, KeyExchangeRate).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domainErrors.ErrExchangeRateNotFound
		}
		return nil, fmt.Errorf("failed to get exchange rate: %w", err)
	}

	var cached cachedRate
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("failed to unmarshal exchange rate: %w", err)
	}

	return &entity.ExchangeRate{
		ID:          cached.ID,
		GTQPerUSD:   cached.GTQPerUSD,
		Source:      cached.Source,
		EffectiveAt: cached.EffectiveAt,
		CreatedAt:   cached.CreatedAt,
	}, nil
}

// SetExchangeRate stores the current rate
func (c *ExchangeRateCache) SetExchangeRate(ctx context.Context, rate *entity.ExchangeRate) error {
	data, err := json.Marshal(cachedRate{
		ID:          rate.ID,
		GTQPerUSD:   rate.GTQPerUSD,
		Source:      rate.Source,
		EffectiveAt: rate.EffectiveAt,
		CreatedAt:   rate.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal exchange rate: %w", err)
	}

	if err := c.client.Set(ctx, KeyExchangeRate, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set exchange rate: %w", err)
	}
	return nil
}
