package service

import (
	"time"

	"github.com/bivex/subscription-metrics/internal/domain/valueobject"
)

const periodDateLayout = "2006-01-02"

// Period is a reporting window. Start is always before End.
type Period struct {
	Start time.Time `json:"startDate"`
	End   time.Time `json:"endDate"`
}

// Label renders the period as "YYYY-MM-DD to YYYY-MM-DD"
func (p Period) Label() string {
	return p.Start.Format(periodDateLayout) + " to " + p.End.Format(periodDateLayout)
}

// Contains reports whether t falls within the period, bounds included
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// Duration returns the length of the period
func (p Period) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

// advance moves t forward by one calendar unit
func advance(t time.Time, unit valueobject.GroupBy) time.Time {
	switch unit {
	case valueobject.GroupByWeek:
		return t.AddDate(0, 0, 7)
	case valueobject.GroupByMonth:
		return t.AddDate(0, 1, 0)
	case valueobject.GroupByQuarter:
		return t.AddDate(0, 3, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// GeneratePeriods splits [start, end] into contiguous periods of one calendar
// unit each. The last period is clamped to end, and a window shorter than one
// unit still yields a single period.
func GeneratePeriods(start, end time.Time, unit valueobject.GroupBy) []Period {
	var periods []Period

	cursor := start
	for cursor.Before(end) {
		next := advance(cursor, unit)
		periodEnd := next
		if periodEnd.After(end) {
			periodEnd = end
		}

		periods = append(periods, Period{Start: cursor, End: periodEnd})

		if !periodEnd.Before(end) {
			break
		}
		cursor = next
	}

	return periods
}
