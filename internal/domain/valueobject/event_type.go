package valueobject

import (
	"errors"
)

var (
	ErrInvalidEventType = errors.New("invalid subscription event type")
)

// EventType is the kind of lifecycle change recorded for a subscription
type EventType string

const (
	EventCreated     EventType = "created"
	EventActivated   EventType = "activated"
	EventSuspended   EventType = "suspended"
	EventCancelled   EventType = "cancelled"
	EventRenewed     EventType = "renewed"
	EventPlanChanged EventType = "plan_changed"
	EventPaymentFail EventType = "payment_failed"
)

// NewEventType creates a new EventType value object
func NewEventType(eventType string) (EventType, error) {
	e := EventType(eventType)
	switch e {
	case EventCreated, EventActivated, EventSuspended, EventCancelled, EventRenewed, EventPlanChanged, EventPaymentFail:
		return e, nil
	default:
		return "", ErrInvalidEventType
	}
}

// String returns the string representation of the event type
func (e EventType) String() string {
	return string(e)
}
