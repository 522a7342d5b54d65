package query

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/bivex/subscription-metrics/internal/domain/entity"
	domainErrors "github.com/bivex/subscription-metrics/internal/domain/errors"
	"github.com/bivex/subscription-metrics/internal/domain/service"
	"github.com/bivex/subscription-metrics/internal/domain/valueobject"
)

// Computation kinds used for metrics labels
const (
	KindSnapshot   = "snapshot"
	KindTimeseries = "timeseries"
	KindCompare    = "compare"
	KindDaily      = "daily"
)

// StatsComputer runs the metrics engine over stored records
type StatsComputer interface {
	Snapshot(ctx context.Context, start, end time.Time) (entity.StatsSnapshot, error)
	Timeseries(ctx context.Context, start, end time.Time, groupBy valueobject.GroupBy) (*service.Timeseries, error)
	Compare(ctx context.Context, current, previous service.Period) (*service.ComparisonResult, error)
}

// StatsCache stores computed results keyed by window.
// Misses are reported as ErrStatsNotCached.
type StatsCache interface {
	GetSnapshot(ctx context.Context, start, end time.Time) (*entity.StatsSnapshot, error)
	SetSnapshot(ctx context.Context, start, end time.Time, snapshot entity.StatsSnapshot) error
	GetTimeseries(ctx context.Context, start, end time.Time, groupBy valueobject.GroupBy) (*service.Timeseries, error)
	SetTimeseries(ctx context.Context, start, end time.Time, groupBy valueobject.GroupBy, series *service.Timeseries) error
	GetComparison(ctx context.Context, current, previous service.Period) (*service.ComparisonResult, error)
	SetComparison(ctx context.Context, current, previous service.Period, result *service.ComparisonResult) error
}

// MetricsRecorder receives instrumentation from the queries
type MetricsRecorder interface {
	ObserveComputation(kind string, duration time.Duration, err error)
	CacheHit(kind string)
	CacheMiss(kind string)
	RecordTruncation()
	RecordUnconverted(n int)
}

type noopRecorder struct{}

func (noopRecorder) ObserveComputation(string, time.Duration, error) {}
func (noopRecorder) CacheHit(string)                                 {}
func (noopRecorder) CacheMiss(string)                                {}
func (noopRecorder) RecordTruncation()                               {}
func (noopRecorder) RecordUnconverted(int)                           {}

// statsBase holds what every stats query shares
type statsBase struct {
	stats   StatsComputer
	cache   StatsCache
	metrics MetricsRecorder
	logger  *zap.Logger
}

func newStatsBase(stats StatsComputer, cache StatsCache, metrics MetricsRecorder, logger *zap.Logger) statsBase {
	if metrics == nil {
		metrics = noopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return statsBase{stats: stats, cache: cache, metrics: metrics, logger: logger}
}

// lookup reports a cache hit. Cache failures other than a miss are logged
// and treated as a miss.
func (b statsBase) lookup(kind string, err error) bool {
	if err == nil {
		b.metrics.CacheHit(kind)
		return true
	}
	if !errors.Is(err, domainErrors.ErrStatsNotCached) {
		b.logger.Warn("Stats cache lookup failed", zap.String("kind", kind), zap.Error(err))
	}
	b.metrics.CacheMiss(kind)
	return false
}

func (b statsBase) store(kind string, err error) {
	if err != nil {
		b.logger.Warn("Failed to cache stats", zap.String("kind", kind), zap.Error(err))
	}
}

func (b statsBase) observe(kind string, started time.Time, snapshot *entity.StatsSnapshot, err error) {
	b.metrics.ObserveComputation(kind, time.Since(started), err)
	if err != nil || snapshot == nil {
		return
	}
	if snapshot.EventsTruncated {
		b.metrics.RecordTruncation()
	}
	b.metrics.RecordUnconverted(snapshot.Unconverted.Count)
}
