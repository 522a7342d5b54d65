package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bivex/subscription-metrics/internal/domain/entity"
	"github.com/bivex/subscription-metrics/internal/domain/valueobject"
)

func TestMetricsCalculator(t *testing.T) {
	calc := NewMetricsCalculator(nil)
	period := Period{Start: day(2024, 2, 1), End: day(2024, 3, 1)}
	before := day(2024, 1, 1)
	during := day(2024, 2, 10)

	t.Run("MRR normalizes each billing frequency to one month", func(t *testing.T) {
		cases := []struct {
			frequency valueobject.BillingFrequency
			amount    string
		}{
			{valueobject.BillingMonthly, "100"},
			{valueobject.BillingQuarterly, "300"},
			{valueobject.BillingSemiannual, "600"},
			{valueobject.BillingAnnual, "1200"},
		}
		for _, tc := range cases {
			t.Run(tc.frequency.String(), func(t *testing.T) {
				snapshot := calc.Calculate(StatsInput{
					Subscriptions: []entity.Subscription{activeSub(tc.amount, valueobject.USD, tc.frequency, before)},
					Period:        period,
				})
				assert.InDelta(t, 100.0, snapshot.MRR, 1e-9)
				assert.Equal(t, snapshot.MRR*12, snapshot.ARR)
			})
		}
	})

	t.Run("unknown frequency contributes nothing", func(t *testing.T) {
		snapshot := calc.Calculate(StatsInput{
			Subscriptions: []entity.Subscription{activeSub("100", valueobject.USD, "weekly", before)},
			Period:        period,
		})
		assert.Equal(t, 0.0, snapshot.MRR)
		assert.Equal(t, 1, snapshot.ActiveSubscriptions)
	})

	t.Run("two monthly subscriptions", func(t *testing.T) {
		snapshot := calc.Calculate(StatsInput{
			Subscriptions: []entity.Subscription{
				activeSub("50", valueobject.USD, valueobject.BillingMonthly, before),
				activeSub("100", valueobject.USD, valueobject.BillingMonthly, before),
			},
			Period: period,
		})
		assert.Equal(t, 150.0, snapshot.MRR)
		assert.Equal(t, 1800.0, snapshot.ARR)
		assert.Equal(t, 75.0, snapshot.AverageRevenuePerSubscription)
		assert.Equal(t, 2, snapshot.ActiveSubscriptions)
	})

	t.Run("inactive subscriptions count toward the total only", func(t *testing.T) {
		cancelled := activeSub("100", valueobject.USD, valueobject.BillingMonthly, before)
		cancelled.Status = valueobject.StatusCancelled

		snapshot := calc.Calculate(StatsInput{
			Subscriptions: []entity.Subscription{
				cancelled,
				activeSub("20", valueobject.USD, valueobject.BillingMonthly, before),
			},
			Period: period,
		})
		assert.Equal(t, 20.0, snapshot.MRR)
		assert.Equal(t, 1, snapshot.ActiveSubscriptions)
		assert.Equal(t, 2, snapshot.TotalSubscriptions)
	})

	t.Run("churn over subscriptions active at period start", func(t *testing.T) {
		snapshot := calc.Calculate(StatsInput{
			Subscriptions: []entity.Subscription{
				activeSub("10", valueobject.USD, valueobject.BillingMonthly, before),
				activeSub("10", valueobject.USD, valueobject.BillingMonthly, before),
				activeSub("10", valueobject.USD, valueobject.BillingMonthly, before),
				// started mid period, not part of the denominator
				activeSub("10", valueobject.USD, valueobject.BillingMonthly, during),
			},
			Events: []entity.SubscriptionEvent{event(valueobject.EventCancelled, during)},
			Period: period,
		})
		assert.InDelta(t, 33.33, snapshot.ChurnRate, 0.01)
		assert.InDelta(t, 66.67, snapshot.RetentionRate, 0.01)
		assert.Equal(t, 1, snapshot.CancelledSubscriptions)
	})

	t.Run("no active subscriptions at start means zero churn", func(t *testing.T) {
		snapshot := calc.Calculate(StatsInput{
			Subscriptions: []entity.Subscription{activeSub("10", valueobject.USD, valueobject.BillingMonthly, during)},
			Events: []entity.SubscriptionEvent{
				event(valueobject.EventCancelled, during),
				event(valueobject.EventCancelled, during),
			},
			Period: period,
		})
		assert.Equal(t, 0.0, snapshot.ChurnRate)
		assert.Equal(t, 100.0, snapshot.RetentionRate)
	})

	t.Run("retention floors at zero when churn exceeds 100", func(t *testing.T) {
		snapshot := calc.Calculate(StatsInput{
			Subscriptions: []entity.Subscription{activeSub("10", valueobject.USD, valueobject.BillingMonthly, before)},
			Events: []entity.SubscriptionEvent{
				event(valueobject.EventCancelled, during),
				event(valueobject.EventCancelled, during),
				event(valueobject.EventCancelled, during),
			},
			Period: period,
		})
		assert.Equal(t, 300.0, snapshot.ChurnRate)
		assert.Equal(t, 0.0, snapshot.RetentionRate)
	})

	t.Run("payments", func(t *testing.T) {
		snapshot := calc.Calculate(StatsInput{
			Payments: []entity.Payment{
				payment("100", valueobject.USD, valueobject.PaymentPaid, during),
				payment("80", valueobject.GTQ, valueobject.PaymentPaid, during),
				payment("30", valueobject.USD, valueobject.PaymentFailed, during),
				payment("30", valueobject.USD, valueobject.PaymentPending, during),
				payment("999", valueobject.USD, valueobject.PaymentPaid, day(2024, 3, 5)),
			},
			Period: period,
			Rate:   gtqRate("8"),
		})
		assert.Equal(t, 50.0, snapshot.PaymentSuccessRate)
		assert.Equal(t, 110.0, snapshot.TotalRevenue)
		assert.Zero(t, snapshot.Unconverted.Count)
	})

	t.Run("no payments means zero success rate", func(t *testing.T) {
		snapshot := calc.Calculate(StatsInput{Period: period})
		assert.Equal(t, 0.0, snapshot.PaymentSuccessRate)
		assert.Equal(t, 0.0, snapshot.TotalRevenue)
		assert.Equal(t, 0.0, snapshot.AverageRevenuePerSubscription)
	})

	t.Run("renewal rate is all or nothing", func(t *testing.T) {
		withRenewals := calc.Calculate(StatsInput{
			Events: []entity.SubscriptionEvent{
				event(valueobject.EventRenewed, during),
				event(valueobject.EventRenewed, during),
			},
			Period: period,
		})
		assert.Equal(t, 100.0, withRenewals.RenewalRate)

		without := calc.Calculate(StatsInput{Period: period})
		assert.Equal(t, 0.0, without.RenewalRate)
	})

	t.Run("lifecycle counts ignore events outside the period", func(t *testing.T) {
		snapshot := calc.Calculate(StatsInput{
			Events: []entity.SubscriptionEvent{
				event(valueobject.EventCreated, during),
				event(valueobject.EventCreated, during),
				event(valueobject.EventCreated, day(2024, 3, 2)),
				event(valueobject.EventPlanChanged, during),
				event(valueobject.EventCancelled, day(2024, 1, 31)),
				event(valueobject.EventActivated, during),
			},
			Period: period,
		})
		assert.Equal(t, 2, snapshot.NewSubscriptions)
		assert.Equal(t, 0, snapshot.CancelledSubscriptions)
		assert.Equal(t, 1, snapshot.Upgrades)
		assert.Equal(t, 0, snapshot.Downgrades)
	})

	t.Run("breakdowns by plan in USD and by currency in native amounts", func(t *testing.T) {
		conecta := activeSub("800", valueobject.GTQ, valueobject.BillingMonthly, before)
		conecta.PlanType = valueobject.PlanConecta
		inspira := activeSub("1200", valueobject.USD, valueobject.BillingAnnual, before)
		inspira.PlanType = valueobject.PlanInspira

		snapshot := calc.Calculate(StatsInput{
			Subscriptions: []entity.Subscription{
				conecta,
				inspira,
				activeSub("50", valueobject.USD, valueobject.BillingMonthly, before),
			},
			Period: period,
			Rate:   gtqRate("8"),
		})

		assert.Equal(t, 250.0, snapshot.MRR)
		assert.Equal(t, entity.BucketStats{Count: 1, MRR: 50}, snapshot.ByPlanType[valueobject.PlanEsencia])
		assert.Equal(t, entity.BucketStats{Count: 1, MRR: 100}, snapshot.ByPlanType[valueobject.PlanConecta])
		assert.Equal(t, entity.BucketStats{Count: 1, MRR: 100}, snapshot.ByPlanType[valueobject.PlanInspira])
		assert.Equal(t, entity.BucketStats{Count: 2, MRR: 150}, snapshot.ByCurrency[valueobject.USD])
		assert.Equal(t, entity.BucketStats{Count: 1, MRR: 800}, snapshot.ByCurrency[valueobject.GTQ])
	})

	t.Run("breakdowns always carry every known key", func(t *testing.T) {
		snapshot := calc.Calculate(StatsInput{Period: period})

		assert.Len(t, snapshot.ByPlanType, 3)
		assert.Len(t, snapshot.ByCurrency, 2)
		assert.Equal(t, entity.BucketStats{}, snapshot.ByPlanType[valueobject.PlanInspira])
	})

	t.Run("missing rate leaves GTQ unconverted and reports it", func(t *testing.T) {
		snapshot := calc.Calculate(StatsInput{
			Subscriptions: []entity.Subscription{
				activeSub("800", valueobject.GTQ, valueobject.BillingMonthly, before),
				activeSub("50", valueobject.USD, valueobject.BillingMonthly, before),
			},
			Payments: []entity.Payment{payment("80", valueobject.GTQ, valueobject.PaymentPaid, during)},
			Period:   period,
		})

		assert.Equal(t, 850.0, snapshot.MRR)
		assert.Equal(t, 80.0, snapshot.TotalRevenue)
		assert.Equal(t, 2, snapshot.Unconverted.Count)
		assert.Equal(t, []valueobject.Currency{valueobject.GTQ}, snapshot.Unconverted.Currencies)
	})

	t.Run("rates stay within bounds", func(t *testing.T) {
		snapshot := calc.Calculate(StatsInput{
			Subscriptions: []entity.Subscription{activeSub("10", valueobject.USD, valueobject.BillingMonthly, before)},
			Payments:      []entity.Payment{payment("10", valueobject.USD, valueobject.PaymentPaid, during)},
			Events:        []entity.SubscriptionEvent{event(valueobject.EventRenewed, during)},
			Period:        period,
		})

		for _, rate := range []float64{snapshot.RetentionRate, snapshot.RenewalRate, snapshot.PaymentSuccessRate} {
			assert.GreaterOrEqual(t, rate, 0.0)
			assert.LessOrEqual(t, rate, 100.0)
		}
	})
}

func TestEventTally(t *testing.T) {
	period := Period{Start: day(2024, 1, 1), End: day(2024, 1, 31)}
	tally := NewEventTally(period)

	for _, e := range []entity.SubscriptionEvent{
		event(valueobject.EventCreated, day(2024, 1, 1)),
		event(valueobject.EventRenewed, day(2024, 1, 31)),
		event(valueobject.EventCancelled, day(2024, 2, 1)),
	} {
		assert.NoError(t, tally.Observe(e))
	}

	assert.Equal(t, 2, tally.Observed())
	assert.Equal(t, 1, tally.created)
	assert.Equal(t, 1, tally.renewed)
	assert.Equal(t, 0, tally.cancelled)
}
