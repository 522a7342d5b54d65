package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "subscription_metrics"

// Result labels
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// StatsMetrics exposes Prometheus instrumentation for the statistics engine,
// its cache, the HTTP surface and background jobs.
type StatsMetrics struct {
	registry *prometheus.Registry

	Computations        *prometheus.CounterVec
	ComputationDuration *prometheus.HistogramVec
	CacheLookups        *prometheus.CounterVec
	EventLimitHits      prometheus.Counter
	UnconvertedAmounts  prometheus.Counter
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	JobRuns             *prometheus.CounterVec
}

// NewStatsMetrics creates the collectors on their own registry.
func NewStatsMetrics() *StatsMetrics {
	reg := prometheus.NewRegistry()

	m := &StatsMetrics{
		registry: reg,
		Computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "computations_total",
			Help:      "Total number of statistics computations",
		}, []string{"kind", "result"}),
		ComputationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "computation_duration_seconds",
			Help:      "Duration of statistics computations in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Statistics cache lookups by outcome",
		}, []string{"kind", "outcome"}),
		EventLimitHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_limit_hits_total",
			Help:      "Computations whose event scan was truncated at the configured limit",
		}),
		UnconvertedAmounts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unconverted_amounts_total",
			Help:      "Amounts summed in their native currency because no exchange rate was available",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status_code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Background job executions",
		}, []string{"task", "result"}),
	}

	reg.MustRegister(
		m.Computations,
		m.ComputationDuration,
		m.CacheLookups,
		m.EventLimitHits,
		m.UnconvertedAmounts,
		m.HTTPRequests,
		m.HTTPRequestDuration,
		m.JobRuns,
	)

	return m
}

// Registry returns the underlying registry.
func (m *StatsMetrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns an HTTP handler that serves Prometheus metrics.
func (m *StatsMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveComputation records one computation of the given kind (snapshot, timeseries, compare, daily).
func (m *StatsMetrics) ObserveComputation(kind string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.Computations.WithLabelValues(kind, resultLabel(err)).Inc()
	m.ComputationDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// CacheHit records a cache hit.
func (m *StatsMetrics) CacheHit(kind string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(kind, "hit").Inc()
}

// CacheMiss records a cache miss.
func (m *StatsMetrics) CacheMiss(kind string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(kind, "miss").Inc()
}

// RecordTruncation counts a computation that hit the event limit.
func (m *StatsMetrics) RecordTruncation() {
	if m == nil {
		return
	}
	m.EventLimitHits.Inc()
}

// RecordUnconverted counts amounts that could not be normalized to USD.
func (m *StatsMetrics) RecordUnconverted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.UnconvertedAmounts.Add(float64(n))
}

// RecordHTTPRequest records an HTTP request metric.
func (m *StatsMetrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordJob records a background job execution.
func (m *StatsMetrics) RecordJob(task string, err error) {
	if m == nil {
		return
	}
	m.JobRuns.WithLabelValues(task, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}
