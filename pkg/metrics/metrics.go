package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the process-wide collectors.
type Metrics struct {
	HTTPRequestTotal    *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	StorageOperationTotal    *prometheus.CounterVec
	StorageOperationDuration *prometheus.HistogramVec

	EventPublishTotal *prometheus.CounterVec

	// ScoringTotal counts produced scores by source (remote or local).
	ScoringTotal         *prometheus.CounterVec
	ScoringFallbackTotal prometheus.Counter
	ScoreValue           prometheus.Histogram
}

var (
	globalMetrics *Metrics
	metricsMutex  sync.Mutex
)

// NewMetrics returns the shared Metrics, creating and registering it on first use.
func NewMetrics() *Metrics {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()

	if globalMetrics != nil {
		return globalMetrics
	}

	m := &Metrics{
		HTTPRequestTotal: registerOrGet(prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engage_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"})).(*prometheus.CounterVec),

		HTTPRequestDuration: registerOrGet(prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "engage_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})).(*prometheus.HistogramVec),

		StorageOperationTotal: registerOrGet(prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engage_storage_operations_total",
			Help: "Total number of prediction store operations",
		}, []string{"operation", "status"})).(*prometheus.CounterVec),

		StorageOperationDuration: registerOrGet(prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "engage_storage_operation_duration_seconds",
			Help:    "Prediction store operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "status"})).(*prometheus.HistogramVec),

		EventPublishTotal: registerOrGet(prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engage_event_publish_total",
			Help: "Total number of event publish operations",
		}, []string{"event_type", "status"})).(*prometheus.CounterVec),

		ScoringTotal: registerOrGet(prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engage_scoring_total",
			Help: "Total number of engagement scorings by source",
		}, []string{"source"})).(*prometheus.CounterVec),

		ScoringFallbackTotal: registerOrGet(prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engage_scoring_fallback_total",
			Help: "Remote scoring failures answered by the local engine",
		})).(prometheus.Counter),

		ScoreValue: registerOrGet(prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "engage_score",
			Help:    "Distribution of produced engagement scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		})).(prometheus.Histogram),
	}

	globalMetrics = m
	return m
}

// ObserveStorage records one store operation.
func (m *Metrics) ObserveStorage(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := statusLabel(err)
	m.StorageOperationTotal.WithLabelValues(operation, status).Inc()
	m.StorageOperationDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}

// ObserveEvent records one publish attempt.
func (m *Metrics) ObserveEvent(eventType string, err error) {
	if m == nil {
		return
	}
	m.EventPublishTotal.WithLabelValues(eventType, statusLabel(err)).Inc()
}

// ObserveScore records a produced score and where it came from.
func (m *Metrics) ObserveScore(source string, score int) {
	if m == nil {
		return
	}
	m.ScoringTotal.WithLabelValues(source).Inc()
	m.ScoreValue.Observe(float64(score))
}

// ObserveFallback counts one remote failure answered locally.
func (m *Metrics) ObserveFallback() {
	if m == nil {
		return
	}
	m.ScoringFallbackTotal.Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// registerOrGet registers c with the default registry, returning the existing
// collector when an identical one is already registered.
func registerOrGet(c prometheus.Collector) prometheus.Collector {
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
	}
	return c
}
