// Package metrics provides Prometheus metrics for the matchxai attribution service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Fixed bucket layouts for domain-scaled histograms.
var (
	percentBuckets   = prometheus.LinearBuckets(0, 10, 11)      // 0..100 acceptance percent
	agreementBuckets = prometheus.LinearBuckets(-1, 0.25, 9)    // -1..1 correlation
	trainingBuckets  = prometheus.ExponentialBuckets(50, 2, 10) // 50ms..~25s
)

// Manager manages all Prometheus metrics for the matchxai service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Attribution Metrics
	explanations       *prometheus.CounterVec
	explanationLatency *prometheus.HistogramVec
	predictions        prometheus.Counter
	predictionScore    prometheus.Histogram
	agreement          prometheus.Histogram

	// Model Lifecycle Metrics
	retrains         *prometheus.CounterVec
	trainingDuration prometheus.Histogram
	trainingLoss     prometheus.Gauge
	modelLoaded      prometheus.Gauge
	modelAge         prometheus.Gauge
	storeOperations  *prometheus.CounterVec

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
		namespace:        "matchxai",
		subsystem:        "attribution",
		histogramBuckets: prometheus.DefBuckets,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// RefreshInterval is how often process-level gauges should be sampled.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

func (m *Manager) name(n string) string { return m.metricPrefix + n }

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Attribution Metrics
	m.explanations = auto.NewCounterVec(
		m.counterOpts("explanations_total", "Total number of explanations by strategy and outcome"),
		[]string{"strategy", "outcome"},
	)
	m.explanationLatency = auto.NewHistogramVec(
		m.histogramOpts("explanation_latency_milliseconds", "Explanation latency in milliseconds by strategy", m.histogramBuckets),
		[]string{"strategy"},
	)
	m.predictions = auto.NewCounter(m.counterOpts("predictions_total", "Total number of predictions served"))
	m.predictionScore = auto.NewHistogram(
		m.histogramOpts("prediction_percent", "Distribution of predicted acceptance percentages", percentBuckets),
	)
	m.agreement = auto.NewHistogram(
		m.histogramOpts("agreement", "Pearson agreement between Shapley and LIME contributions", agreementBuckets),
	)

	// Model Lifecycle Metrics
	m.retrains = auto.NewCounterVec(
		m.counterOpts("retrains_total", "Total number of retrain attempts by outcome"),
		[]string{"outcome"},
	)
	m.trainingDuration = auto.NewHistogram(
		m.histogramOpts("training_duration_milliseconds", "Model training duration in milliseconds", trainingBuckets),
	)
	m.trainingLoss = auto.NewGauge(m.gaugeOpts("training_loss", "Final mean absolute training error of the active model"))
	m.modelLoaded = auto.NewGauge(m.gaugeOpts("model_loaded", "1 when a trained model is serving requests"))
	m.modelAge = auto.NewGauge(m.gaugeOpts("model_age_seconds", "Seconds since the active model was trained"))
	m.storeOperations = auto.NewCounterVec(
		m.counterOpts("store_operations_total", "Model store operations by operation and outcome"),
		[]string{"operation", "outcome"},
	)

	// HTTP Performance Metrics - User experience indicators
	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds (user experience)", m.histogramBuckets),
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
	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap memory in use in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of live goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_milliseconds", "Most recent GC pause in milliseconds", m.histogramBuckets),
	)
}

// Attribution Metrics Functions.

// RecordExplanation counts an explanation for strategy with outcome (success, error).
func RecordExplanation(strategy, outcome string) {
	globalManager.explanations.WithLabelValues(strategy, outcome).Inc()
}

// RecordExplanationLatency records explanation latency in milliseconds.
func RecordExplanationLatency(strategy string, latencyMs float64) {
	globalManager.explanationLatency.WithLabelValues(strategy).Observe(latencyMs)
}

// RecordPrediction counts a prediction and records its percentage.
func RecordPrediction(percent float64) {
	globalManager.predictions.Inc()
	globalManager.predictionScore.Observe(percent)
}

// RecordAgreement records a Shapley/LIME agreement value.
func RecordAgreement(v float64) {
	globalManager.agreement.Observe(v)
}

// Model Lifecycle Metrics Functions.

// RecordRetrain counts a retrain attempt with outcome.
func RecordRetrain(outcome string) {
	globalManager.retrains.WithLabelValues(outcome).Inc()
}

// RecordTrainingDuration records how long training took in milliseconds.
func RecordTrainingDuration(durationMs float64) {
	globalManager.trainingDuration.Observe(durationMs)
}

// UpdateTrainingLoss sets the active model's final training loss.
func UpdateTrainingLoss(loss float64) {
	globalManager.trainingLoss.Set(loss)
}

// UpdateModelLoaded flags whether a model is serving.
func UpdateModelLoaded(loaded bool) {
	if loaded {
		globalManager.modelLoaded.Set(1)
		return
	}
	globalManager.modelLoaded.Set(0)
}

// UpdateModelAge sets the active model's age in seconds.
func UpdateModelAge(seconds float64) {
	globalManager.modelAge.Set(seconds)
}

// RecordStoreOperation counts a model store operation with outcome.
func RecordStoreOperation(operation, outcome string) {
	globalManager.storeOperations.WithLabelValues(operation, outcome).Inc()
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

// RefreshInterval returns the sampling interval of the global manager.
func RefreshInterval() time.Duration {
	return globalManager.RefreshInterval()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
