package dto

import (
	"fmt"
	"time"

	domainErrors "github.com/bivex/subscription-metrics/internal/domain/errors"
)

const dateOnly = "2006-01-02"

// ParseDate accepts RFC 3339 timestamps or YYYY-MM-DD dates. A date-only value
// is midnight UTC of that day, for start and end bounds alike.
func ParseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), nil
	}

	t, err := time.Parse(dateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is neither RFC 3339 nor YYYY-MM-DD", domainErrors.ErrInvalidFormat, value)
	}
	return t, nil
}

// IsDate reports whether value parses as a request date
func IsDate(value string) bool {
	_, err := ParseDate(value)
	return err == nil
}

// Window parses a start/end pair
func (r StatsWindowRequest) Window() (start, end time.Time, err error) {
	return parseWindow("startDate", r.StartDate, "endDate", r.EndDate)
}

// Window parses a start/end pair
func (r TimeseriesRequest) Window() (start, end time.Time, err error) {
	return parseWindow("startDate", r.StartDate, "endDate", r.EndDate)
}

// Current parses the current window
func (r CompareRequest) Current() (start, end time.Time, err error) {
	return parseWindow("currentStartDate", r.CurrentStartDate, "currentEndDate", r.CurrentEndDate)
}

// Previous parses the previous window
func (r CompareRequest) Previous() (start, end time.Time, err error) {
	return parseWindow("previousStartDate", r.PreviousStartDate, "previousEndDate", r.PreviousEndDate)
}

func parseWindow(startField, startValue, endField, endValue string) (time.Time, time.Time, error) {
	start, err := ParseDate(startValue)
	if err != nil {
		return time.Time{}, time.Time{}, domainErrors.WrapValidationError(startField, err.Error(), domainErrors.ErrInvalidFormat)
	}
	end, err := ParseDate(endValue)
	if err != nil {
		return time.Time{}, time.Time{}, domainErrors.WrapValidationError(endField, err.Error(), domainErrors.ErrInvalidFormat)
	}
	return start, end, nil
}
