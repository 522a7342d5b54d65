package valueobject

import (
	"errors"
)

var (
	ErrInvalidBillingFrequency = errors.New("invalid billing frequency")
)

// BillingFrequency is the cadence a subscription is invoiced at
type BillingFrequency string

const (
	BillingMonthly    BillingFrequency = "monthly"
	BillingQuarterly  BillingFrequency = "quarterly"
	BillingSemiannual BillingFrequency = "semiannual"
	BillingAnnual     BillingFrequency = "annual"
)

// NewBillingFrequency creates a new BillingFrequency value object
func NewBillingFrequency(frequency string) (BillingFrequency, error) {
	f := BillingFrequency(frequency)
	if !f.IsValid() {
		return "", ErrInvalidBillingFrequency
	}
	return f, nil
}

// String returns the string representation of the frequency
func (f BillingFrequency) String() string {
	return string(f)
}

// IsValid returns true if the frequency is known
func (f BillingFrequency) IsValid() bool {
	return f.MonthlyDivisor() != 0
}

// MonthlyDivisor returns how many months one billing cycle covers.
// Unknown frequencies return 0 and contribute nothing to MRR.
func (f BillingFrequency) MonthlyDivisor() int64 {
	switch f {
	case BillingMonthly:
		return 1
	case BillingQuarterly:
		return 3
	case BillingSemiannual:
		return 6
	case BillingAnnual:
		return 12
	default:
		return 0
	}
}
