package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/bivex/subscription-metrics/internal/domain/valueobject"
)

// Subscription is a partner's recurring plan as read from the store
type Subscription struct {
	ID               uuid.UUID
	PartnerID        uuid.UUID
	Status           valueobject.SubscriptionStatus
	PlanType         valueobject.PlanType
	BillingFrequency valueobject.BillingFrequency
	BillingAmount    valueobject.Money
	StartDate        time.Time
	RenewalDate      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewSubscription creates a new active subscription entity
func NewSubscription(
	partnerID uuid.UUID,
	planType valueobject.PlanType,
	frequency valueobject.BillingFrequency,
	amount valueobject.Money,
	startDate time.Time,
) *Subscription {
	now := time.Now()
	return &Subscription{
		ID:               uuid.New(),
		PartnerID:        partnerID,
		Status:           valueobject.StatusActive,
		PlanType:         planType,
		BillingFrequency: frequency,
		BillingAmount:    amount,
		StartDate:        startDate,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// IsActive checks if the subscription is currently active
func (s *Subscription) IsActive() bool {
	return s.Status.IsActive()
}

// WasActiveAt reports whether an active subscription had already started at t
func (s *Subscription) WasActiveAt(t time.Time) bool {
	return s.IsActive() && !s.StartDate.After(t)
}

// MonthlyAmount normalizes the billing amount to one month in the billing
// currency. Unknown frequencies yield zero.
func (s *Subscription) MonthlyAmount() valueobject.Money {
	divisor := s.BillingFrequency.MonthlyDivisor()
	if divisor == 0 {
		return valueobject.ZeroMoney(s.BillingAmount.Currency)
	}
	return s.BillingAmount.DivInt(divisor)
}

// RenewsOnOrAfter reports whether the subscription has no renewal date or
// renews on or after t
func (s *Subscription) RenewsOnOrAfter(t time.Time) bool {
	return s.RenewalDate == nil || !s.RenewalDate.Before(t)
}
