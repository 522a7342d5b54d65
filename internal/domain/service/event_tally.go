package service

import (
	"sort"

	"github.com/bivex/subscription-metrics/internal/domain/entity"
	"github.com/bivex/subscription-metrics/internal/domain/valueobject"
)

// EventTally folds lifecycle events into the counters a StatsSnapshot needs,
// so events can be consumed from a cursor instead of being held in memory.
// Events outside the period are ignored.
type EventTally struct {
	period      Period
	created     int
	cancelled   int
	renewed     int
	planChanged int
	observed    int
}

// NewEventTally creates an empty tally for a period
func NewEventTally(period Period) *EventTally {
	return &EventTally{period: period}
}

// Observe adds one event to the tally. The error return lets the tally be
// passed directly as a repository stream callback.
func (t *EventTally) Observe(event entity.SubscriptionEvent) error {
	if !t.period.Contains(event.OccurredAt) {
		return nil
	}

	t.observed++
	switch event.Type {
	case valueobject.EventCreated:
		t.created++
	case valueobject.EventCancelled:
		t.cancelled++
	case valueobject.EventRenewed:
		t.renewed++
	case valueobject.EventPlanChanged:
		t.planChanged++
	}
	return nil
}

// Observed returns the number of in-period events seen so far
func (t *EventTally) Observed() int {
	return t.observed
}

// successfulRenewals counts every renewal event as successful. Renewal
// outcomes are not recorded on the event, so the rate is either 0 or 100.
func (t *EventTally) successfulRenewals() int {
	return t.renewed
}

// upgrades counts plan changes. Direction of a plan change is not recorded,
// so every change is reported as an upgrade.
func (t *EventTally) upgrades() int {
	return t.planChanged
}

// downgrades is always zero until plan change direction is tracked
func (t *EventTally) downgrades() int {
	return 0
}

// SeriesTally routes each event into the tally of every period containing it
// plus a whole-window tally used for the summary.
type SeriesTally struct {
	periods []Period
	summary *EventTally
	tallies []*EventTally
}

// NewSeriesTally creates tallies for a window and its ordered periods
func NewSeriesTally(window Period, periods []Period) *SeriesTally {
	tallies := make([]*EventTally, len(periods))
	for i, p := range periods {
		tallies[i] = NewEventTally(p)
	}
	return &SeriesTally{
		periods: periods,
		summary: NewEventTally(window),
		tallies: tallies,
	}
}

// Observe adds one event to the summary and to each matching period. Period
// bounds are inclusive, so an event on a boundary counts in both neighbours.
func (s *SeriesTally) Observe(event entity.SubscriptionEvent) error {
	_ = s.summary.Observe(event)

	first := sort.Search(len(s.periods), func(i int) bool {
		return !s.periods[i].End.Before(event.OccurredAt)
	})
	for i := first; i < len(s.periods) && !s.periods[i].Start.After(event.OccurredAt); i++ {
		_ = s.tallies[i].Observe(event)
	}
	return nil
}

// Periods returns the periods the tally was built for
func (s *SeriesTally) Periods() []Period {
	return s.periods
}

// Summary returns the whole-window tally
func (s *SeriesTally) Summary() *EventTally {
	return s.summary
}

// Observed returns the number of events seen inside the window
func (s *SeriesTally) Observed() int {
	return s.summary.Observed()
}
