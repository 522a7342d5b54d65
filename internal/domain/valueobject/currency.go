package valueobject

import (
	"errors"
	"strings"
)

var (
	ErrInvalidCurrency = errors.New("invalid currency code")
)

// Currency is an ISO 4217 currency code
type Currency string

const (
	USD Currency = "USD"
	GTQ Currency = "GTQ"
)

// ReportingCurrency is the currency every USD-denominated metric is expressed in
const ReportingCurrency = USD

// Currencies lists the currencies subscriptions can be billed in
var Currencies = []Currency{USD, GTQ}

// NewCurrency parses a three letter currency code. Unknown codes are accepted
// so that records billed in other currencies still surface in reports.
func NewCurrency(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", ErrInvalidCurrency
	}
	return Currency(code), nil
}

// String returns the currency code
func (c Currency) String() string {
	return string(c)
}

// IsSupported returns true for currencies the service can convert to USD
func (c Currency) IsSupported() bool {
	return c == USD || c == GTQ
}
