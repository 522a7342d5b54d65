package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/bivex/subscription-metrics/internal/domain/entity"
)

// MockDailyStatsRepository is a mock implementation of DailyStatsRepository
type MockDailyStatsRepository struct {
	mock.Mock
}

func (m *MockDailyStatsRepository) Upsert(ctx context.Context, snapshot *entity.DailyStatsSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockDailyStatsRepository) ListBetween(ctx context.Context, start, end time.Time) ([]entity.DailyStatsSnapshot, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.DailyStatsSnapshot), args.Error(1)
}
