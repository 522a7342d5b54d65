package errors

import (
	"errors"
	"fmt"
)

var (
	// Exchange rate errors
	ErrExchangeRateNotFound = errors.New("exchange rate not found")

	// Stats errors
	ErrStatsNotCached     = errors.New("stats not cached")
	ErrEventLimitExceeded = errors.New("event limit exceeded")

	// External service errors
	ErrExternalServiceUnavailable = errors.New("external service unavailable")
)

// NotFoundError wraps an error with not found context
type NotFoundError struct {
	Entity string
	ID     string
	Err    error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id '%s' not found: %v", e.Entity, e.ID, e.Err)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}
