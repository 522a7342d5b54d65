package valueobject

import (
	"errors"
)

var (
	ErrInvalidGroupBy = errors.New("invalid group by unit")
)

// GroupBy is the calendar unit a reporting window is bucketed by
type GroupBy string

const (
	GroupByDay     GroupBy = "day"
	GroupByWeek    GroupBy = "week"
	GroupByMonth   GroupBy = "month"
	GroupByQuarter GroupBy = "quarter"
)

// NewGroupBy creates a new GroupBy value object
func NewGroupBy(unit string) (GroupBy, error) {
	g := GroupBy(unit)
	if !g.IsValid() {
		return "", ErrInvalidGroupBy
	}
	return g, nil
}

// String returns the string representation of the unit
func (g GroupBy) String() string {
	return string(g)
}

// IsValid returns true if the unit is known
func (g GroupBy) IsValid() bool {
	switch g {
	case GroupByDay, GroupByWeek, GroupByMonth, GroupByQuarter:
		return true
	default:
		return false
	}
}
