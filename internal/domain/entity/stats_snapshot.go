package entity

import (
	"time"

	"github.com/bivex/subscription-metrics/internal/domain/valueobject"
)

// BucketStats is the count and MRR contributed by one breakdown key
type BucketStats struct {
	Count int     `json:"count"`
	MRR   float64 `json:"mrr"`
}

// UnconvertedSummary reports amounts that entered USD totals without a rate
type UnconvertedSummary struct {
	Count      int                    `json:"count"`
	Currencies []valueobject.Currency `json:"currencies,omitempty"`
}

// StatsSnapshot holds the recurring revenue and retention metrics of one period
type StatsSnapshot struct {
	MRR                           float64 `json:"mrr"`
	ARR                           float64 `json:"arr"`
	ActiveSubscriptions           int     `json:"activeSubscriptions"`
	TotalSubscriptions            int     `json:"totalSubscriptions"`
	ChurnRate                     float64 `json:"churnRate"`
	RetentionRate                 float64 `json:"retentionRate"`
	RenewalRate                   float64 `json:"renewalRate"`
	PaymentSuccessRate            float64 `json:"paymentSuccessRate"`
	AverageRevenuePerSubscription float64 `json:"averageRevenuePerSubscription"`
	TotalRevenue                  float64 `json:"totalRevenue"`
	NewSubscriptions              int     `json:"newSubscriptions"`
	CancelledSubscriptions        int     `json:"cancelledSubscriptions"`
	Upgrades                      int     `json:"upgrades"`
	Downgrades                    int     `json:"downgrades"`

	ByPlanType map[valueobject.PlanType]BucketStats `json:"byPlanType"`
	ByCurrency map[valueobject.Currency]BucketStats `json:"byCurrency"`

	Unconverted UnconvertedSummary `json:"unconverted"`

	// EventsTruncated is set when the event stream hit its safety limit
	EventsTruncated bool `json:"eventsTruncated,omitempty"`
}

// DailyStatsSnapshot is a snapshot persisted for one calendar day
type DailyStatsSnapshot struct {
	Date       time.Time
	Snapshot   StatsSnapshot
	ComputedAt time.Time
}
