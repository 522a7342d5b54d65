package valueobject

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount    = errors.New("amount must be non-negative")
	ErrCurrencyMismatch = errors.New("currency mismatch")
)

// Money represents a monetary value in a single currency
type Money struct {
	Amount   decimal.Decimal
	Currency Currency
}

// NewMoney creates a new Money value object
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if amount.IsNegative() {
		return Money{}, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if len(currency) != 3 {
		return Money{}, fmt.Errorf("%w: %s", ErrInvalidCurrency, currency)
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// MustMoney parses a decimal string and panics on malformed input.
// Intended for fixtures and constants.
func MustMoney(amount string, currency Currency) Money {
	d := decimal.RequireFromString(amount)
	m, err := NewMoney(d, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// ZeroMoney returns a zero amount in the given currency
func ZeroMoney(currency Currency) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

// String returns a string representation of the money
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(2), m.Currency)
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// Add adds another Money value to this one
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// DivInt splits the amount into n equal parts, keeping the currency
func (m Money) DivInt(n int64) Money {
	return Money{Amount: m.Amount.Div(decimal.NewFromInt(n)), Currency: m.Currency}
}

// Float64 returns the amount as a float for reporting
func (m Money) Float64() float64 {
	return m.Amount.InexactFloat64()
}
