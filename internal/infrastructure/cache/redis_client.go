package cache

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/bivex/subscription-metrics/internal/infrastructure/config"
)

// NewRedisClient builds a client from a redis:// URL plus the pool settings.
// Zero durations keep the go-redis defaults.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout
	opts.PoolTimeout = cfg.PoolTimeout
	return redis.NewClient(opts), nil
}
