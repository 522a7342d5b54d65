package service

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bivex/subscription-metrics/internal/domain/entity"
)

func TestCompare(t *testing.T) {
	current := entity.StatsSnapshot{
		MRR:                 150,
		ARR:                 1800,
		ActiveSubscriptions: 3,
		ChurnRate:           10,
		NewSubscriptions:    4,
		TotalRevenue:        80,
	}
	previous := entity.StatsSnapshot{
		MRR:                 100,
		ARR:                 1200,
		ActiveSubscriptions: 4,
		ChurnRate:           0,
		NewSubscriptions:    2,
		TotalRevenue:        100,
	}

	t.Run("absolute and percentage deltas", func(t *testing.T) {
		c := Compare(current, previous)

		assert.Equal(t, MetricDelta{Absolute: 50, Percentage: 50}, c.MRR)
		assert.Equal(t, MetricDelta{Absolute: 600, Percentage: 50}, c.ARR)
		assert.Equal(t, MetricDelta{Absolute: -1, Percentage: -25}, c.ActiveSubscriptions)
		assert.Equal(t, MetricDelta{Absolute: 2, Percentage: 100}, c.NewSubscriptions)
		assert.Equal(t, MetricDelta{Absolute: -20, Percentage: -20}, c.TotalRevenue)
	})

	t.Run("zero previous value yields zero percentage", func(t *testing.T) {
		c := Compare(current, previous)

		assert.Equal(t, MetricDelta{Absolute: 10, Percentage: 0}, c.ChurnRate)
		assert.Equal(t, MetricDelta{}, c.Downgrades)
	})

	t.Run("identical snapshots yield all zero deltas", func(t *testing.T) {
		c := Compare(current, current)

		v := reflect.ValueOf(c)
		for i := 0; i < v.NumField(); i++ {
			assert.Equal(t, MetricDelta{}, v.Field(i).Interface(), v.Type().Field(i).Name)
		}
	})

	t.Run("result keeps both snapshots", func(t *testing.T) {
		result := NewComparisonResult(current, previous)

		assert.Equal(t, current, result.Current)
		assert.Equal(t, previous, result.Previous)
		assert.Equal(t, Compare(current, previous), result.Comparison)
	})
}
