// Package metrics provides Prometheus metrics for the olrank pipeline.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Default metrics configuration constants.
const (
	defaultNamespace = "olrank"
	defaultSubsystem = "pipeline"
)

// fetchBuckets covers sub-second cache hits up to slow timing-source pages.
var fetchBuckets = []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 20000} //nolint:gochecknoglobals // bucket layout

// Manager manages all Prometheus metrics for the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Stage throughput
	unitsProcessed *prometheus.CounterVec
	unitsSkipped   *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	stageLastOK    *prometheus.GaugeVec

	// External sources
	fetchLatency *prometheus.HistogramVec
	fetchErrors  *prometheus.CounterVec

	// Matching and index sizes
	matchDecisions  *prometheus.CounterVec
	eventsLinked    prometheus.Counter
	athletesIndexed prometheus.Gauge
	clubsIndexed    prometheus.Gauge
	timingRecords   prometheus.Gauge

	// Read API
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        defaultNamespace,
		subsystem:        defaultSubsystem,
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.unitsProcessed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "units_processed_total",
		Help:        "Units (category files, events, classes) processed by stage",
		ConstLabels: m.constLabels,
	}, []string{"stage"})

	m.unitsSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "units_skipped_total",
		Help:        "Units skipped by stage and reason",
		ConstLabels: m.constLabels,
	}, []string{"stage", "reason"})

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stage_duration_milliseconds",
		Help:        "Wall time of a full stage run in milliseconds",
		Buckets:     prometheus.ExponentialBuckets(10, 4, 10),
		ConstLabels: m.constLabels,
	}, []string{"stage"})

	m.stageLastOK = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stage_last_success_unix",
		Help:        "Unix timestamp of the last successful stage run",
		ConstLabels: m.constLabels,
	}, []string{"stage"})

	m.fetchLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fetch_latency_milliseconds",
		Help:        "Latency of requests to external sources in milliseconds",
		Buckets:     fetchBuckets,
		ConstLabels: m.constLabels,
	}, []string{"source", "kind"})

	m.fetchErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fetch_errors_total",
		Help:        "Failed requests to external sources",
		ConstLabels: m.constLabels,
	}, []string{"source", "kind"})

	m.matchDecisions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "match_decisions_total",
		Help:        "Fuzzy match outcomes by deciding rule",
		ConstLabels: m.constLabels,
	}, []string{"rule"})

	m.eventsLinked = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "events_linked_total",
		Help:        "Primary events newly linked to a timing-source event",
		ConstLabels: m.constLabels,
	})

	m.athletesIndexed = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "athletes_indexed",
		Help:        "Athletes in the last written athlete index",
		ConstLabels: m.constLabels,
	})

	m.clubsIndexed = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "clubs_indexed",
		Help:        "Clubs in the last written club index",
		ConstLabels: m.constLabels,
	})

	m.timingRecords = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "timing_records",
		Help:        "Timing records held after the last scrape flush",
		ConstLabels: m.constLabels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_errors_total",
		Help:        "HTTP errors by endpoint, method and error type",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "error_type"})
}

// RecordUnitProcessed increments the processed counter for a stage.
func RecordUnitProcessed(stage string) {
	globalManager.unitsProcessed.WithLabelValues(stage).Inc()
}

// RecordUnitSkipped increments the skipped counter for a stage and reason.
func RecordUnitSkipped(stage, reason string) {
	globalManager.unitsSkipped.WithLabelValues(stage, reason).Inc()
}

// RecordStageDuration records a stage's wall time.
func RecordStageDuration(stage string, d time.Duration) {
	globalManager.stageDuration.WithLabelValues(stage).Observe(float64(d.Milliseconds()))
}

// MarkStageSuccess stamps the last-success gauge for a stage.
func MarkStageSuccess(stage string, at time.Time) {
	globalManager.stageLastOK.WithLabelValues(stage).Set(float64(at.Unix()))
}

// RecordFetch records the latency of an external request.
func RecordFetch(source, kind string, d time.Duration) {
	globalManager.fetchLatency.WithLabelValues(source, kind).Observe(float64(d.Milliseconds()))
}

// RecordFetchError increments the fetch error counter.
func RecordFetchError(source, kind string) {
	globalManager.fetchErrors.WithLabelValues(source, kind).Inc()
}

// RecordMatchDecision counts a fuzzy match outcome by rule.
func RecordMatchDecision(rule string) {
	globalManager.matchDecisions.WithLabelValues(rule).Inc()
}

// RecordEventsLinked adds newly linked events.
func RecordEventsLinked(n int) {
	globalManager.eventsLinked.Add(float64(n))
}

// UpdateAthletesIndexed sets the athlete index size.
func UpdateAthletesIndexed(n int) {
	globalManager.athletesIndexed.Set(float64(n))
}

// UpdateClubsIndexed sets the club index size.
func UpdateClubsIndexed(n int) {
	globalManager.clubsIndexed.Set(float64(n))
}

// UpdateTimingRecords sets the number of stored timing records.
func UpdateTimingRecords(n int) {
	globalManager.timingRecords.Set(float64(n))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Push sends the current registry to a Pushgateway under the given job name.
// Batch stages call this once at exit; an empty url is a no-op.
func Push(ctx context.Context, url, job string) error {
	if url == "" {
		return nil
	}
	err := push.New(url, job).Gatherer(customRegistry).PushContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPushFailed, err)
	}
	return nil
}
