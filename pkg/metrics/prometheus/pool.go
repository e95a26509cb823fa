package prometheus

import (
	"time"

	"github.com/marmos91/dittoweb/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// poolMetrics is the Prometheus implementation of metrics.PoolMetrics.
type poolMetrics struct {
	submitted   *prometheus.CounterVec
	rejected    prometheus.Counter
	completed   *prometheus.CounterVec
	runDuration prometheus.Histogram
	queueDepth  prometheus.Gauge
	busyWorkers prometheus.Gauge
}

// NewPoolMetrics creates worker pool collectors on the global registry.
//
// Returns a no-op implementation if metrics are not enabled.
func NewPoolMetrics() metrics.PoolMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopPoolMetrics()
	}
	return NewPoolMetricsWith(metrics.GetRegistry())
}

// NewPoolMetricsWith creates worker pool collectors on reg.
func NewPoolMetricsWith(reg prometheus.Registerer) metrics.PoolMetrics {
	return &poolMetrics{
		submitted: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittoweb_pool_submitted_total",
				Help: "Total number of work items accepted by the pool",
			},
			[]string{"overflow"},
		),
		rejected: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "dittoweb_pool_rejected_total",
				Help: "Total number of work items rejected by a full queue",
			},
		),
		completed: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittoweb_pool_completed_total",
				Help: "Total number of work items executed, by outcome",
			},
			[]string{"status"},
		),
		runDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dittoweb_pool_item_duration_seconds",
				Help:    "Execution time of work items in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		queueDepth: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "dittoweb_pool_queue_depth",
				Help: "Current number of work items waiting for a worker",
			},
		),
		busyWorkers: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "dittoweb_pool_busy_workers",
				Help: "Current number of workers executing an item",
			},
		),
	}
}

func (m *poolMetrics) RecordSubmitted(overflow bool) {
	label := "false"
	if overflow {
		label = "true"
	}
	m.submitted.WithLabelValues(label).Inc()
}

func (m *poolMetrics) RecordRejected() {
	m.rejected.Inc()
}

func (m *poolMetrics) RecordCompleted(duration time.Duration, panicked bool) {
	status := "success"
	if panicked {
		status = "panic"
	}
	m.completed.WithLabelValues(status).Inc()
	m.runDuration.Observe(duration.Seconds())
}

func (m *poolMetrics) SetQueueDepth(depth int) {
	m.queueDepth.Set(float64(depth))
}

func (m *poolMetrics) SetBusyWorkers(busy int) {
	m.busyWorkers.Set(float64(busy))
}
