package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bivex/subscription-metrics/internal/domain/entity"
	domainErrors "github.com/bivex/subscription-metrics/internal/domain/errors"
	"github.com/bivex/subscription-metrics/internal/domain/service"
	"github.com/bivex/subscription-metrics/internal/domain/valueobject"
)

// Cache key constants
const (
	KeySnapshot   = "stats:snapshot:%s:%s"
	KeyTimeseries = "stats:timeseries:%s:%s:%s"
	KeyCompare    = "stats:compare:%s:%s:%s:%s"
	KeyPattern    = "stats:*"
)

// DefaultStatsTTL is used when no TTL is configured
const DefaultStatsTTL = 5 * time.Minute

// StatsCache stores computed statistics keyed by their window
type StatsCache struct {
	client *redis.Client
	ttl    atomic.Int64
	logger *zap.Logger
}

// NewStatsCache creates a new stats cache
func NewStatsCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *StatsCache {
	c := &StatsCache{
		client: client,
		logger: logger,
	}
	c.SetTTL(ttl)
	return c
}

// SetTTL changes the expiry of entries written from now on
func (c *StatsCache) SetTTL(ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultStatsTTL
	}
	c.ttl.Store(int64(ttl))
}

func windowKey(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// SnapshotKey returns the cache key of a snapshot window
func SnapshotKey(start, end time.Time) string {
	return fmt.Sprintf(KeySnapshot, windowKey(start), windowKey(end))
}

// TimeseriesKey returns the cache key of a timeseries window
func TimeseriesKey(start, end time.Time, groupBy valueobject.GroupBy) string {
	return fmt.Sprintf(KeyTimeseries, windowKey(start), windowKey(end), groupBy)
}

// CompareKey returns the cache key of a comparison
func CompareKey(current, previous service.Period) string {
	return fmt.Sprintf(KeyCompare,
		windowKey(current.Start), windowKey(current.End),
		windowKey(previous.Start), windowKey(previous.End),
	)
}

// GetSnapshot retrieves a cached snapshot
func (c *StatsCache) GetSnapshot(ctx context.Context, start, end time.Time) (*entity.StatsSnapshot, error) {
	var snapshot entity.StatsSnapshot
	if err := c.get(ctx, SnapshotKey(start, end), &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// SetSnapshot stores a snapshot
func (c *StatsCache) SetSnapshot(ctx context.Context, start, end time.Time, snapshot entity.StatsSnapshot) error {
	return c.set(ctx, SnapshotKey(start, end), snapshot)
}

// GetTimeseries retrieves a cached timeseries
func (c *StatsCache) GetTimeseries(ctx context.Context, start, end time.Time, groupBy valueobject.GroupBy) (*service.Timeseries, error) {
	var series service.Timeseries
	if err := c.get(ctx, TimeseriesKey(start, end, groupBy), &series); err != nil {
		return nil, err
	}
	return &series, nil
}

// SetTimeseries stores a timeseries
func (c *StatsCache) SetTimeseries(ctx context.Context, start, end time.Time, groupBy valueobject.GroupBy, series *service.Timeseries) error {
	return c.set(ctx, TimeseriesKey(start, end, groupBy), series)
}

// GetComparison retrieves a cached comparison
func (c *StatsCache) GetComparison(ctx context.Context, current, previous service.Period) (*service.ComparisonResult, error) {
	var result service.ComparisonResult
	if err := c.get(ctx, CompareKey(current, previous), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SetComparison stores a comparison
func (c *StatsCache) SetComparison(ctx context.Context, current, previous service.Period, result *service.ComparisonResult) error {
	return c.set(ctx, CompareKey(current, previous), result)
}

// Invalidate removes every cached statistic
func (c *StatsCache) Invalidate(ctx context.Context) (int, error) {
	var deleted int
	iter := c.client.Scan(ctx, 0, KeyPattern, 100).Iterator()

	keys := make([]string, 0, 100)
	flush := func() error {
		if len(keys) == 0 {
			return nil
		}
		n, err := c.client.Del(ctx, keys...).Result()
		if err != nil {
			return fmt.Errorf("failed to delete stats keys: %w", err)
		}
		deleted += int(n)
		keys = keys[:0]
		return nil
	}

	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == cap(keys) {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("failed to scan stats keys: %w", err)
	}
	if err := flush(); err != nil {
		return deleted, err
	}

	c.logger.Info("Invalidated stats cache", zap.Int("keys", deleted))
	return deleted, nil
}

func (c *StatsCache) get(ctx context.Context, key string, dest any) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainErrors.ErrStatsNotCached
		}
		return fmt.Errorf("failed to get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

func (c *StatsCache) set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	ttl := time.Duration(c.ttl.Load())
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	c.logger.Debug("Cached stats", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}
