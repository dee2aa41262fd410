// Package metrics provides Prometheus metrics for the round report service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Latency histograms observe milliseconds, so the second-scaled
// prometheus.DefBuckets do not fit.
var ( //nolint:gochecknoglobals // read-only defaults
	defaultLatencyBuckets = []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500}
	defaultLoadBuckets    = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000}
)

// Breaker states as exported by UpdatePriceFeedBreakerState.
const (
	BreakerClosed   = 0
	BreakerHalfOpen = 1
	BreakerOpen     = 2
)

// Manager manages all Prometheus metrics for the report service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	loadBuckets    []float64
	enabled        bool
	constLabels    map[string]string
	metricPrefix   string
	registry       prometheus.Registerer

	// Report Metrics
	reportsGenerated *prometheus.CounterVec
	reportLatency    *prometheus.HistogramVec
	reportRows       *prometheus.GaugeVec
	reportErrors     *prometheus.CounterVec
	exportsWritten   *prometheus.CounterVec

	// Lookup Metrics - price, date and range services
	lookupRequests        *prometheus.CounterVec
	lookupLatency         *prometheus.HistogramVec
	priceFeedBreakerState prometheus.Gauge

	// Ledger Metrics
	ledgerRecordsTotal  prometheus.Gauge
	ledgerUsersTotal    prometheus.Gauge
	ledgerLatestRound   prometheus.Gauge
	ledgerQueryLatency  prometheus.Histogram
	ledgerLoadDuration  *prometheus.HistogramVec
	ledgerSnapshotCount prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:      "roundreport",
		subsystem:      "reports",
		latencyBuckets: defaultLatencyBuckets,
		loadBuckets:    defaultLoadBuckets,
		enabled:        true,
		constLabels:    make(map[string]string),
		metricPrefix:   "",
		registry:       prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// A disabled manager still hands out collectors but registers them nowhere.
	if !m.enabled {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()

	return m
}

// Enabled reports whether the manager registers on the configured registry.
func (m *Manager) Enabled() bool { return m.enabled }


func (m *Manager) name(n string) string { return m.metricPrefix + n }

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	// Report Metrics
	m.reportsGenerated = auto.NewCounterVec(
		m.counterOpts("generated_total", "Total number of reports generated by report name"),
		[]string{"report"},
	)
	m.reportLatency = auto.NewHistogramVec(
		m.histogramOpts("latency_milliseconds", "Report generation latency in milliseconds", m.latencyBuckets),
		[]string{"report"},
	)
	m.reportRows = auto.NewGaugeVec(
		m.gaugeOpts("rows", "Rows returned by the most recent report"),
		[]string{"report"},
	)
	m.reportErrors = auto.NewCounterVec(
		m.counterOpts("errors_total", "Report failures by report name and error kind"),
		[]string{"report", "kind"},
	)
	m.exportsWritten = auto.NewCounterVec(
		m.counterOpts("exports_total", "Reports exported by output format"),
		[]string{"format"},
	)

	// Lookup Metrics
	m.lookupRequests = auto.NewCounterVec(
		m.counterOpts("lookup_requests_total", "Lookup calls by service and outcome"),
		[]string{"service", "outcome"},
	)
	m.lookupLatency = auto.NewHistogramVec(
		m.histogramOpts("lookup_latency_milliseconds", "Lookup latency in milliseconds", m.latencyBuckets),
		[]string{"service"},
	)
	m.priceFeedBreakerState = auto.NewGauge(
		m.gaugeOpts("price_feed_breaker_state", "Price feed circuit breaker state (0 closed, 1 half-open, 2 open)"),
	)

	// Ledger Metrics
	m.ledgerRecordsTotal = auto.NewGauge(m.gaugeOpts("ledger_records_total", "Records held in the ledger"))
	m.ledgerUsersTotal = auto.NewGauge(m.gaugeOpts("ledger_users_total", "Distinct users in the ledger"))
	m.ledgerLatestRound = auto.NewGauge(m.gaugeOpts("ledger_latest_round", "Latest round present in the ledger"))
	m.ledgerQueryLatency = auto.NewHistogram(
		m.histogramOpts("ledger_query_latency_milliseconds", "Ledger slice latency in milliseconds", m.latencyBuckets),
	)
	m.ledgerLoadDuration = auto.NewHistogramVec(
		m.histogramOpts("ledger_load_duration_milliseconds", "Ledger load duration by source format", m.loadBuckets),
		[]string{"format"},
	)
	m.ledgerSnapshotCount = auto.NewCounter(m.counterOpts("ledger_snapshots_total", "Ledger snapshots published"))

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.latencyBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	// Error Metrics
	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds",
		"GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
}

// Report Metrics Functions.

// RecordReportGenerated counts a successful report and its latency.
func RecordReportGenerated(report string, latencyMs float64, rows int) {
	globalManager.reportsGenerated.WithLabelValues(report).Inc()
	globalManager.reportLatency.WithLabelValues(report).Observe(latencyMs)
	globalManager.reportRows.WithLabelValues(report).Set(float64(rows))
}

// RecordReportError counts a failed report.
func RecordReportError(report, kind string) {
	globalManager.reportErrors.WithLabelValues(report, kind).Inc()
}

// RecordExport counts an exported report.
func RecordExport(format string) {
	globalManager.exportsWritten.WithLabelValues(format).Inc()
}

// Lookup Metrics Functions.

// RecordLookup records one lookup call.
func RecordLookup(service, outcome string, latencyMs float64) {
	globalManager.lookupRequests.WithLabelValues(service, outcome).Inc()
	globalManager.lookupLatency.WithLabelValues(service).Observe(latencyMs)
}

// UpdatePriceFeedBreakerState sets the breaker state gauge.
func UpdatePriceFeedBreakerState(state int) {
	globalManager.priceFeedBreakerState.Set(float64(state))
}

// Ledger Metrics Functions.

// UpdateLedgerRecordsTotal sets the number of ledger records.
func UpdateLedgerRecordsTotal(count int) {
	globalManager.ledgerRecordsTotal.Set(float64(count))
}

// UpdateLedgerUsersTotal sets the number of distinct users.
func UpdateLedgerUsersTotal(count int) {
	globalManager.ledgerUsersTotal.Set(float64(count))
}

// UpdateLedgerLatestRound sets the latest round.
func UpdateLedgerLatestRound(round int) {
	globalManager.ledgerLatestRound.Set(float64(round))
}

// RecordLedgerQueryLatency records slice latency.
func RecordLedgerQueryLatency(latencyMs float64) {
	globalManager.ledgerQueryLatency.Observe(latencyMs)
}

// RecordLedgerLoad records how long loading a ledger file took.
func RecordLedgerLoad(format string, latencyMs float64) {
	globalManager.ledgerLoadDuration.WithLabelValues(format).Observe(latencyMs)
}

// IncrementLedgerSnapshotCount counts a published snapshot.
func IncrementLedgerSnapshotCount() {
	globalManager.ledgerSnapshotCount.Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
