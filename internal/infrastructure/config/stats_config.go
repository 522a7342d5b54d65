package config

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// StatsConfig holds the tunables of the subscription statistics engine.
// These values can be hot-reloaded from the .env file.
type StatsConfig struct {
	CacheTTL              time.Duration
	MaxEvents             int
	TimeseriesConcurrency int
	// FallbackGTQPerUSD is used when no exchange rate is stored. Empty disables it.
	FallbackGTQPerUSD string
}

// FallbackRate parses FallbackGTQPerUSD. ok is false when no fallback is configured.
func (c StatsConfig) FallbackRate() (rate decimal.Decimal, ok bool, err error) {
	if c.FallbackGTQPerUSD == "" {
		return decimal.Zero, false, nil
	}
	rate, err = decimal.NewFromString(c.FallbackGTQPerUSD)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("invalid STATS_FALLBACK_GTQ_PER_USD %q: %w", c.FallbackGTQPerUSD, err)
	}
	return rate, true, nil
}

// StatsHolder publishes the current StatsConfig to concurrent readers.
type StatsHolder struct {
	current atomic.Value // holds StatsConfig
}

// NewStatsHolder creates a holder seeded with cfg
func NewStatsHolder(cfg StatsConfig) *StatsHolder {
	h := &StatsHolder{}
	h.current.Store(cfg)
	return h
}

// Get returns the current stats configuration
func (h *StatsHolder) Get() StatsConfig {
	return h.current.Load().(StatsConfig)
}

func setStatsDefaults(v *viper.Viper) {
	v.SetDefault("stats_cache_ttl", 5*time.Minute)
	v.SetDefault("stats_max_events", 10000)
	v.SetDefault("stats_timeseries_concurrency", 8)
	v.SetDefault("stats_fallback_gtq_per_usd", "")
}

func statsFromViper(v *viper.Viper) StatsConfig {
	return StatsConfig{
		CacheTTL:              v.GetDuration("stats_cache_ttl"),
		MaxEvents:             v.GetInt("stats_max_events"),
		TimeseriesConcurrency: v.GetInt("stats_timeseries_concurrency"),
		FallbackGTQPerUSD:     v.GetString("stats_fallback_gtq_per_usd"),
	}
}

func validateStats(cfg StatsConfig) error {
	if cfg.CacheTTL <= 0 {
		return fmt.Errorf("STATS_CACHE_TTL must be positive")
	}
	if cfg.MaxEvents <= 0 {
		return fmt.Errorf("STATS_MAX_EVENTS must be positive")
	}
	if cfg.TimeseriesConcurrency <= 0 {
		return fmt.Errorf("STATS_TIMESERIES_CONCURRENCY must be positive")
	}
	rate, ok, err := cfg.FallbackRate()
	if err != nil {
		return err
	}
	if ok && !rate.IsPositive() {
		return fmt.Errorf("STATS_FALLBACK_GTQ_PER_USD must be positive")
	}
	return nil
}

// WatchStats re-reads the stats section whenever the loaded config file changes,
// stores valid updates in holder and then calls onChange, which may be nil.
// Invalid updates are logged and ignored. It returns false when configuration
// came from the environment only.
func WatchStats(holder *StatsHolder, logger *zap.Logger, onChange func(StatsConfig)) bool {
	v := viper.GetViper()
	if v.ConfigFileUsed() == "" {
		return false
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		reloadStats(v, holder, logger, e, onChange)
	})
	v.WatchConfig()
	return true
}

func reloadStats(v *viper.Viper, holder *StatsHolder, logger *zap.Logger, e fsnotify.Event, onChange func(StatsConfig)) {
	if logger == nil {
		logger = zap.NewNop()
	}

	updated := statsFromViper(v)
	if err := validateStats(updated); err != nil {
		logger.Warn("invalid stats config ignored",
			zap.String("file", e.Name),
			zap.Error(err),
		)
		return
	}

	holder.current.Store(updated)
	if onChange != nil {
		onChange(updated)
	}
	logger.Info("stats config reloaded",
		zap.String("file", e.Name),
		zap.Int("max_events", updated.MaxEvents),
		zap.Duration("cache_ttl", updated.CacheTTL),
	)
}
