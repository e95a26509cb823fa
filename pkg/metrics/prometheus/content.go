package prometheus

import (
	"time"

	"github.com/marmos91/dittoweb/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// contentMetrics is the Prometheus implementation of metrics.ContentMetrics.
type contentMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTransferred  *prometheus.CounterVec
}

// NewContentMetrics creates content store collectors on the global registry.
//
// Returns a no-op implementation if metrics are not enabled.
func NewContentMetrics() metrics.ContentMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopContentMetrics()
	}
	return NewContentMetricsWith(metrics.GetRegistry())
}

// NewContentMetricsWith creates content store collectors on reg.
func NewContentMetricsWith(reg prometheus.Registerer) metrics.ContentMetrics {
	return &contentMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittoweb_content_operations_total",
				Help: "Total number of content store operations by store, operation and status",
			},
			[]string{"store", "operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dittoweb_content_operation_duration_seconds",
				Help: "Duration of content store operations in seconds",
				Buckets: []float64{
					0.001, // 1ms
					0.01,  // 10ms
					0.05,  // 50ms
					0.1,   // 100ms
					0.5,   // 500ms
					1.0,   // 1s
					5.0,   // 5s
				},
			},
			[]string{"store", "operation"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittoweb_content_bytes_total",
				Help: "Total bytes transferred by content stores",
			},
			[]string{"store", "direction"},
		),
	}
}

func (m *contentMetrics) ObserveOperation(store, operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.operationsTotal.WithLabelValues(store, operation, status).Inc()
	m.operationDuration.WithLabelValues(store, operation).Observe(duration.Seconds())
}

func (m *contentMetrics) RecordBytes(store, direction string, bytes int64) {
	if bytes <= 0 {
		return
	}
	m.bytesTransferred.WithLabelValues(store, direction).Add(float64(bytes))
}

// cacheMetrics is the Prometheus implementation of metrics.CacheMetrics.
type cacheMetrics struct {
	requests  *prometheus.CounterVec
	evictions prometheus.Counter
	entries   prometheus.Gauge
	bytes     prometheus.Gauge
}

// NewCacheMetrics creates content cache collectors on the global registry.
//
// Returns a no-op implementation if metrics are not enabled.
func NewCacheMetrics() metrics.CacheMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopCacheMetrics()
	}
	return NewCacheMetricsWith(metrics.GetRegistry())
}

// NewCacheMetricsWith creates content cache collectors on reg.
func NewCacheMetricsWith(reg prometheus.Registerer) metrics.CacheMetrics {
	return &cacheMetrics{
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittoweb_content_cache_requests_total",
				Help: "Content cache lookups by result (hit or miss)",
			},
			[]string{"result"},
		),
		evictions: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "dittoweb_content_cache_evictions_total",
				Help: "Entries evicted from the content cache",
			},
		),
		entries: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "dittoweb_content_cache_entries",
				Help: "Current number of cached files",
			},
		),
		bytes: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "dittoweb_content_cache_bytes",
				Help: "Current size of cached file data in bytes",
			},
		),
	}
}

func (m *cacheMetrics) RecordHit()      { m.requests.WithLabelValues("hit").Inc() }
func (m *cacheMetrics) RecordMiss()     { m.requests.WithLabelValues("miss").Inc() }
func (m *cacheMetrics) RecordEviction() { m.evictions.Inc() }

func (m *cacheMetrics) SetSize(entries int, bytes int64) {
	m.entries.Set(float64(entries))
	m.bytes.Set(float64(bytes))
}
