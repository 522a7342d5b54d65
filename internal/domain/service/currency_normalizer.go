package service

import (
	"github.com/bivex/subscription-metrics/internal/domain/entity"
	"github.com/bivex/subscription-metrics/internal/domain/valueobject"
)

// Conversion is the outcome of normalizing an amount to USD. When Converted
// is false, Amount still carries the original value in OriginalCurrency.
type Conversion struct {
	Amount           valueobject.Money
	OriginalCurrency valueobject.Currency
	Converted        bool
}

// USD returns the amount as a float, whether or not it was converted
func (c Conversion) USD() float64 {
	return c.Amount.Float64()
}

// NormalizeToUSD converts money to USD using the given rate. USD passes through
// unchanged, GTQ is converted when a usable rate exists, and anything else is
// returned unconverted.
func NormalizeToUSD(amount valueobject.Money, rate *entity.ExchangeRate) Conversion {
	switch {
	case amount.Currency == valueobject.USD:
		return Conversion{Amount: amount, OriginalCurrency: valueobject.USD, Converted: true}
	case amount.Currency == valueobject.GTQ && rate.IsUsable():
		return Conversion{Amount: rate.GTQToUSD(amount.Amount), OriginalCurrency: valueobject.GTQ, Converted: true}
	default:
		return Conversion{Amount: amount, OriginalCurrency: amount.Currency}
	}
}
