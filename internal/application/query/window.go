package query

import (
	"fmt"
	"math"
	"time"

	domainErrors "github.com/bivex/subscription-metrics/internal/domain/errors"
	"github.com/bivex/subscription-metrics/internal/domain/valueobject"
)

// Reporting window limits, in days
const (
	MaxWindowDays       = 2 * 365
	MaxDayGroupingDays  = 365
	MaxWeekGroupingDays = 730
)

// DefaultGroupBy is used when a timeseries request names no unit
const DefaultGroupBy = valueobject.GroupByMonth

// WindowDays returns the window length in days, rounded up
func WindowDays(start, end time.Time) int {
	return int(math.Ceil(end.Sub(start).Hours() / 24))
}

// ValidateWindow checks that start precedes end and the window is not too long
func ValidateWindow(start, end time.Time) error {
	if !start.Before(end) {
		return domainErrors.WrapValidationError("startDate", "must be before endDate", domainErrors.ErrInvalidDateRange)
	}
	if days := WindowDays(start, end); days > MaxWindowDays {
		return domainErrors.WrapValidationError("endDate",
			fmt.Sprintf("window of %d days exceeds the maximum of %d", days, MaxWindowDays),
			domainErrors.ErrWindowTooLong,
		)
	}
	return nil
}

// ParseGroupBy parses a grouping unit and checks it is coarse enough for the window
func ParseGroupBy(start, end time.Time, unit string) (valueobject.GroupBy, error) {
	if unit == "" {
		return DefaultGroupBy, nil
	}

	groupBy, err := valueobject.NewGroupBy(unit)
	if err != nil {
		return "", domainErrors.WrapValidationError("groupBy", "must be one of day, week, month, quarter", err)
	}

	days := WindowDays(start, end)
	switch {
	case groupBy == valueobject.GroupByDay && days > MaxDayGroupingDays:
		return "", domainErrors.WrapValidationError("groupBy",
			fmt.Sprintf("day grouping allows at most %d days, window has %d", MaxDayGroupingDays, days),
			domainErrors.ErrGroupByTooFine,
		)
	case groupBy == valueobject.GroupByWeek && days > MaxWeekGroupingDays:
		return "", domainErrors.WrapValidationError("groupBy",
			fmt.Sprintf("week grouping allows at most %d days, window has %d", MaxWeekGroupingDays, days),
			domainErrors.ErrGroupByTooFine,
		)
	}
	return groupBy, nil
}
