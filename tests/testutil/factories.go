package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/bivex/subscription-metrics/internal/domain/entity"
	"github.com/bivex/subscription-metrics/internal/domain/valueobject"
)

// Date returns midnight UTC of the given day
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SubscriptionFactory creates test subscription entities
type SubscriptionFactory struct {
	PartnerID uuid.UUID
}

func NewSubscriptionFactory() *SubscriptionFactory {
	return &SubscriptionFactory{PartnerID: uuid.New()}
}

// Monthly creates an active monthly subscription
func (f *SubscriptionFactory) Monthly(amount string, currency valueobject.Currency, start time.Time) *entity.Subscription {
	return f.Create(valueobject.PlanConecta, valueobject.BillingMonthly, amount, currency, start)
}

func (f *SubscriptionFactory) Create(
	plan valueobject.PlanType,
	frequency valueobject.BillingFrequency,
	amount string,
	currency valueobject.Currency,
	start time.Time,
) *entity.Subscription {
	sub := entity.NewSubscription(f.PartnerID, plan, frequency, valueobject.MustMoney(amount, currency), start)
	sub.CreatedAt = start
	sub.UpdatedAt = start
	return sub
}

// PaymentFactory creates test payment entities
type PaymentFactory struct{}

func NewPaymentFactory() *PaymentFactory {
	return &PaymentFactory{}
}

func (f *PaymentFactory) Create(sub *entity.Subscription, status valueobject.PaymentStatus, date time.Time) *entity.Payment {
	p := entity.NewPayment(sub.ID, sub.BillingAmount, date)
	p.Status = status
	return p
}

// EventFactory creates lifecycle events
type EventFactory struct{}

func NewEventFactory() *EventFactory {
	return &EventFactory{}
}

func (f *EventFactory) Create(sub *entity.Subscription, eventType valueobject.EventType, at time.Time) *entity.SubscriptionEvent {
	return entity.NewSubscriptionEvent(sub.ID, sub.PartnerID, eventType, at)
}
