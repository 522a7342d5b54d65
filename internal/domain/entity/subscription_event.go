package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/bivex/subscription-metrics/internal/domain/valueobject"
)

// SubscriptionEvent records one lifecycle change of a subscription
type SubscriptionEvent struct {
	ID             uuid.UUID
	SubscriptionID uuid.UUID
	PartnerID      uuid.UUID
	Type           valueobject.EventType
	OccurredAt     time.Time
}

// NewSubscriptionEvent creates a new lifecycle event
func NewSubscriptionEvent(subscriptionID, partnerID uuid.UUID, eventType valueobject.EventType, occurredAt time.Time) *SubscriptionEvent {
	return &SubscriptionEvent{
		ID:             uuid.New(),
		SubscriptionID: subscriptionID,
		PartnerID:      partnerID,
		Type:           eventType,
		OccurredAt:     occurredAt,
	}
}
