package repository

import (
	"context"
	"time"

	"github.com/bivex/subscription-metrics/internal/domain/entity"
)

// SubscriptionRepository defines the interface for subscription data access
type SubscriptionRepository interface {
	// Create creates a new subscription
	Create(ctx context.Context, subscription *entity.Subscription) error

	// FindExistingBetween returns subscriptions that existed at some point in
	// [start, end]: started and created by end and not renewed before start,
	// or created inside the window
	FindExistingBetween(ctx context.Context, start, end time.Time) ([]entity.Subscription, error)
}
