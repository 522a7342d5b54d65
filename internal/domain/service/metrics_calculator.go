package service

import (
	"slices"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bivex/subscription-metrics/internal/domain/entity"
	"github.com/bivex/subscription-metrics/internal/domain/valueobject"
)

// StatsInput is the already materialized record set for one period
type StatsInput struct {
	Subscriptions []entity.Subscription
	Payments      []entity.Payment
	Events        []entity.SubscriptionEvent
	Period        Period
	Rate          *entity.ExchangeRate
}

// MetricsCalculator derives a StatsSnapshot from subscriptions, payments and
// lifecycle events. It holds no state between calls and is safe for
// concurrent use.
type MetricsCalculator struct {
	logger *zap.Logger
}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator(logger *zap.Logger) *MetricsCalculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetricsCalculator{logger: logger}
}

// Calculate computes the snapshot for a fully materialized input
func (c *MetricsCalculator) Calculate(in StatsInput) entity.StatsSnapshot {
	tally := NewEventTally(in.Period)
	for _, event := range in.Events {
		_ = tally.Observe(event)
	}
	return c.CalculateWithTally(in.Subscriptions, in.Payments, tally, in.Period, in.Rate)
}

// CalculateWithTally computes the snapshot using events already folded into tally
func (c *MetricsCalculator) CalculateWithTally(
	subscriptions []entity.Subscription,
	payments []entity.Payment,
	tally *EventTally,
	period Period,
	rate *entity.ExchangeRate,
) entity.StatsSnapshot {
	unconverted := newUnconvertedTracker()
	byPlan := newBreakdown(valueobject.PlanTypes, func(s *entity.Subscription) valueobject.PlanType {
		return s.PlanType
	})
	byCurrency := newBreakdown(valueobject.Currencies, func(s *entity.Subscription) valueobject.Currency {
		return s.BillingAmount.Currency
	})

	mrr := decimal.Zero
	active, activeAtStart := 0, 0
	for i := range subscriptions {
		sub := &subscriptions[i]
		if !sub.IsActive() {
			continue
		}
		active++
		if sub.WasActiveAt(period.Start) {
			activeAtStart++
		}

		monthly := sub.MonthlyAmount()
		usd := NormalizeToUSD(monthly, rate)
		unconverted.track(usd)
		mrr = mrr.Add(usd.Amount.Amount)

		byPlan.add(sub, usd.Amount.Amount)
		// Currency buckets stay in the billing currency.
		byCurrency.add(sub, monthly.Amount)
	}

	revenue := decimal.Zero
	paymentsInPeriod, paid := 0, 0
	for i := range payments {
		payment := &payments[i]
		if !period.Contains(payment.PaymentDate) {
			continue
		}
		paymentsInPeriod++
		if !payment.IsPaid() {
			continue
		}
		paid++
		usd := NormalizeToUSD(payment.Amount, rate)
		unconverted.track(usd)
		revenue = revenue.Add(usd.Amount.Amount)
	}

	mrrValue := mrr.InexactFloat64()
	churn := percentOf(tally.cancelled, activeAtStart)

	arps := 0.0
	if active > 0 {
		arps = mrr.Div(decimal.NewFromInt(int64(active))).InexactFloat64()
	}

	snapshot := entity.StatsSnapshot{
		MRR:                           mrrValue,
		ARR:                           mrrValue * 12,
		ActiveSubscriptions:           active,
		TotalSubscriptions:            len(subscriptions),
		ChurnRate:                     churn,
		RetentionRate:                 max(0, 100-churn),
		RenewalRate:                   percentOf(tally.successfulRenewals(), tally.renewed),
		PaymentSuccessRate:            percentOf(paid, paymentsInPeriod),
		AverageRevenuePerSubscription: arps,
		TotalRevenue:                  revenue.InexactFloat64(),
		NewSubscriptions:              tally.created,
		CancelledSubscriptions:        tally.cancelled,
		Upgrades:                      tally.upgrades(),
		Downgrades:                    tally.downgrades(),
		ByPlanType:                    byPlan.stats(),
		ByCurrency:                    byCurrency.stats(),
		Unconverted:                   unconverted.summary(),
	}

	if snapshot.Unconverted.Count > 0 {
		c.logger.Debug("Amounts summed without USD conversion",
			zap.String("period", period.Label()),
			zap.Int("count", snapshot.Unconverted.Count),
			zap.Any("currencies", snapshot.Unconverted.Currencies),
		)
	}

	return snapshot
}

// percentOf returns part/whole as a percentage, or 0 when whole is 0
func percentOf(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

type bucket struct {
	count int
	mrr   decimal.Decimal
}

// breakdown accumulates count and MRR per key. Only the keys it was seeded
// with are tracked.
type breakdown[K comparable] struct {
	key     func(*entity.Subscription) K
	order   []K
	buckets map[K]*bucket
}

func newBreakdown[K comparable](keys []K, key func(*entity.Subscription) K) *breakdown[K] {
	buckets := make(map[K]*bucket, len(keys))
	for _, k := range keys {
		buckets[k] = &bucket{mrr: decimal.Zero}
	}
	return &breakdown[K]{key: key, order: keys, buckets: buckets}
}

func (b *breakdown[K]) add(sub *entity.Subscription, mrr decimal.Decimal) {
	bk, ok := b.buckets[b.key(sub)]
	if !ok {
		return
	}
	bk.count++
	bk.mrr = bk.mrr.Add(mrr)
}

func (b *breakdown[K]) stats() map[K]entity.BucketStats {
	out := make(map[K]entity.BucketStats, len(b.order))
	for _, k := range b.order {
		bk := b.buckets[k]
		out[k] = entity.BucketStats{Count: bk.count, MRR: bk.mrr.InexactFloat64()}
	}
	return out
}

type unconvertedTracker struct {
	count      int
	currencies map[valueobject.Currency]struct{}
}

func newUnconvertedTracker() *unconvertedTracker {
	return &unconvertedTracker{currencies: make(map[valueobject.Currency]struct{})}
}

func (u *unconvertedTracker) track(c Conversion) {
	if c.Converted {
		return
	}
	u.count++
	u.currencies[c.OriginalCurrency] = struct{}{}
}

func (u *unconvertedTracker) summary() entity.UnconvertedSummary {
	if u.count == 0 {
		return entity.UnconvertedSummary{}
	}
	currencies := make([]valueobject.Currency, 0, len(u.currencies))
	for c := range u.currencies {
		currencies = append(currencies, c)
	}
	slices.Sort(currencies)
	return entity.UnconvertedSummary{Count: u.count, Currencies: currencies}
}
