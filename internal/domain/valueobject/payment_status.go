package valueobject

import (
	"errors"
)

var (
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
)

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
	PaymentFailed  PaymentStatus = "failed"
)

// NewPaymentStatus creates a new PaymentStatus value object
func NewPaymentStatus(status string) (PaymentStatus, error) {
	s := PaymentStatus(status)
	switch s {
	case PaymentPaid, PaymentPending, PaymentFailed:
		return s, nil
	default:
		return "", ErrInvalidPaymentStatus
	}
}

// String returns the string representation of the status
func (s PaymentStatus) String() string {
	return string(s)
}

// IsPaid returns true if the payment settled
func (s PaymentStatus) IsPaid() bool {
	return s == PaymentPaid
}
