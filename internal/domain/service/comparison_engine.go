package service

import (
	"github.com/bivex/subscription-metrics/internal/domain/entity"
)

// MetricDelta is the change of one metric between two periods
type MetricDelta struct {
	Absolute   float64 `json:"absolute"`
	Percentage float64 `json:"percentage"`
}

// StatsComparison holds a delta for every numeric metric of a StatsSnapshot
type StatsComparison struct {
	MRR                           MetricDelta `json:"mrr"`
	ARR                           MetricDelta `json:"arr"`
	ActiveSubscriptions           MetricDelta `json:"activeSubscriptions"`
	TotalSubscriptions            MetricDelta `json:"totalSubscriptions"`
	ChurnRate                     MetricDelta `json:"churnRate"`
	RetentionRate                 MetricDelta `json:"retentionRate"`
	RenewalRate                   MetricDelta `json:"renewalRate"`
	PaymentSuccessRate            MetricDelta `json:"paymentSuccessRate"`
	AverageRevenuePerSubscription MetricDelta `json:"averageRevenuePerSubscription"`
	TotalRevenue                  MetricDelta `json:"totalRevenue"`
	NewSubscriptions              MetricDelta `json:"newSubscriptions"`
	CancelledSubscriptions        MetricDelta `json:"cancelledSubscriptions"`
	Upgrades                      MetricDelta `json:"upgrades"`
	Downgrades                    MetricDelta `json:"downgrades"`
}

// ComparisonResult pairs two snapshots with their deltas
type ComparisonResult struct {
	Current    entity.StatsSnapshot `json:"current"`
	Previous   entity.StatsSnapshot `json:"previous"`
	Comparison StatsComparison      `json:"comparison"`
}

// Compare computes current minus previous for every metric
func Compare(current, previous entity.StatsSnapshot) StatsComparison {
	return StatsComparison{
		MRR:                           delta(current.MRR, previous.MRR),
		ARR:                           delta(current.ARR, previous.ARR),
		ActiveSubscriptions:           deltaInt(current.ActiveSubscriptions, previous.ActiveSubscriptions),
		TotalSubscriptions:            deltaInt(current.TotalSubscriptions, previous.TotalSubscriptions),
		ChurnRate:                     delta(current.ChurnRate, previous.ChurnRate),
		RetentionRate:                 delta(current.RetentionRate, previous.RetentionRate),
		RenewalRate:                   delta(current.RenewalRate, previous.RenewalRate),
		PaymentSuccessRate:            delta(current.PaymentSuccessRate, previous.PaymentSuccessRate),
		AverageRevenuePerSubscription: delta(current.AverageRevenuePerSubscription, previous.AverageRevenuePerSubscription),
		TotalRevenue:                  delta(current.TotalRevenue, previous.TotalRevenue),
		NewSubscriptions:              deltaInt(current.NewSubscriptions, previous.NewSubscriptions),
		CancelledSubscriptions:        deltaInt(current.CancelledSubscriptions, previous.CancelledSubscriptions),
		Upgrades:                      deltaInt(current.Upgrades, previous.Upgrades),
		Downgrades:                    deltaInt(current.Downgrades, previous.Downgrades),
	}
}

// NewComparisonResult compares two snapshots and keeps both
func NewComparisonResult(current, previous entity.StatsSnapshot) ComparisonResult {
	return ComparisonResult{
		Current:    current,
		Previous:   previous,
		Comparison: Compare(current, previous),
	}
}

// delta returns the change from previous to current. Growth from zero is
// reported as 0 percent.
func delta(current, previous float64) MetricDelta {
	absolute := current - previous
	if previous == 0 {
		return MetricDelta{Absolute: absolute}
	}
	return MetricDelta{Absolute: absolute, Percentage: absolute / previous * 100}
}

func deltaInt(current, previous int) MetricDelta {
	return delta(float64(current), float64(previous))
}
