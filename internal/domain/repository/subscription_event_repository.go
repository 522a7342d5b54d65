package repository

import (
	"context"
	"time"

	"github.com/bivex/subscription-metrics/internal/domain/entity"
)

// EventHandler receives streamed lifecycle events. Returning an error stops the stream.
type EventHandler func(event entity.SubscriptionEvent) error

// SubscriptionEventRepository defines the interface for lifecycle event data access
type SubscriptionEventRepository interface {
	// Create records a lifecycle event
	Create(ctx context.Context, event *entity.SubscriptionEvent) error

	// StreamBetween passes events that occurred within [start, end] to fn in
	// occurrence order, stopping after limit events when limit > 0. It
	// returns the number of events delivered.
	StreamBetween(ctx context.Context, start, end time.Time, limit int, fn EventHandler) (int, error)
}
