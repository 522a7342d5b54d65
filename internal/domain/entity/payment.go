package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/bivex/subscription-metrics/internal/domain/valueobject"
)

// Payment is a single charge attempt against a subscription
type Payment struct {
	ID             uuid.UUID
	SubscriptionID uuid.UUID
	Amount         valueobject.Money
	Status         valueobject.PaymentStatus
	PaymentDate    time.Time
	CreatedAt      time.Time
}

// NewPayment creates a new pending payment entity
func NewPayment(subscriptionID uuid.UUID, amount valueobject.Money, paymentDate time.Time) *Payment {
	return &Payment{
		ID:             uuid.New(),
		SubscriptionID: subscriptionID,
		Amount:         amount,
		Status:         valueobject.PaymentPending,
		PaymentDate:    paymentDate,
		CreatedAt:      time.Now(),
	}
}

// IsPaid returns true if the payment settled
func (p *Payment) IsPaid() bool {
	return p.Status.IsPaid()
}

// IsFailed returns true if the payment failed
func (p *Payment) IsFailed() bool {
	return p.Status == valueobject.PaymentFailed
}
