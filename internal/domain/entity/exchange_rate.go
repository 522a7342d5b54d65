package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bivex/subscription-metrics/internal/domain/valueobject"
)

// ExchangeRate is a point-in-time GTQ/USD rate, stored as quetzales per dollar
type ExchangeRate struct {
	ID          uuid.UUID
	GTQPerUSD   decimal.Decimal
	Source      string
	EffectiveAt time.Time
	CreatedAt   time.Time
}

// NewExchangeRate creates a new exchange rate snapshot
func NewExchangeRate(gtqPerUSD decimal.Decimal, source string, effectiveAt time.Time) *ExchangeRate {
	return &ExchangeRate{
		ID:          uuid.New(),
		GTQPerUSD:   gtqPerUSD,
		Source:      source,
		EffectiveAt: effectiveAt,
		CreatedAt:   time.Now(),
	}
}

// IsUsable returns false for missing or non-positive rates
func (r *ExchangeRate) IsUsable() bool {
	return r != nil && r.GTQPerUSD.IsPositive()
}

// GTQToUSD converts a quetzal amount to dollars
func (r *ExchangeRate) GTQToUSD(amount decimal.Decimal) valueobject.Money {
	return valueobject.Money{Amount: amount.Div(r.GTQPerUSD), Currency: valueobject.USD}
}
