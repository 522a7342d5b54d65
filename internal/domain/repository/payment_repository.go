package repository

import (
	"context"
	"time"

	"github.com/bivex/subscription-metrics/internal/domain/entity"
)

// PaymentRepository defines the interface for payment data access
type PaymentRepository interface {
	// Create records a payment
	Create(ctx context.Context, payment *entity.Payment) error

	// FindByPaymentDateBetween returns payments dated within [start, end]
	FindByPaymentDateBetween(ctx context.Context, start, end time.Time) ([]entity.Payment, error)
}
