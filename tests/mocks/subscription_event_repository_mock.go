package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/bivex/subscription-metrics/internal/domain/entity"
	domainErrors "github.com/bivex/subscription-metrics/internal/domain/errors"
	"github.com/bivex/subscription-metrics/internal/domain/repository"
)

// MockSubscriptionEventRepository is a mock implementation of
// SubscriptionEventRepository. StreamBetween replays the events given as the
// first return value through the handler, honouring limit.
type MockSubscriptionEventRepository struct {
	mock.Mock
}

func (m *MockSubscriptionEventRepository) Create(ctx context.Context, event *entity.SubscriptionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockSubscriptionEventRepository) StreamBetween(ctx context.Context, start, end time.Time, limit int, fn repository.EventHandler) (int, error) {
	args := m.Called(ctx, start, end, limit)
	events, _ := args.Get(0).([]entity.SubscriptionEvent)

	n := 0
	for _, event := range events {
		if limit > 0 && n >= limit {
			return n, domainErrors.ErrEventLimitExceeded
		}
		if err := fn(event); err != nil {
			return n, err
		}
		n++
	}
	return n, args.Error(1)
}
