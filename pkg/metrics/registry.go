// Package metrics provides Prometheus metrics collection for dittoweb components.
//
// Metrics are optional. Components receive an interface (HTTPMetrics,
// PoolMetrics) and fall back to no-op implementations when none is configured,
// so the server runs the same with or without a registry.
//
// Usage:
//
//	// Initialize the global registry (typically in the start command)
//	metrics.InitRegistry()
//
//	// Create Prometheus-backed collectors
//	httpMetrics := prometheus.NewHTTPMetrics()
//	poolMetrics := prometheus.NewPoolMetrics()
//
//	// Or pass nil for no-op behavior
//	pool := workerpool.New(10)
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// registry is the global Prometheus registry, written once by InitRegistry.
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry initializes the global Prometheus registry.
//
// Safe to call multiple times; only the first call has an effect. The registry
// also carries the Go runtime and process collectors.
//
// Until InitRegistry is called, GetRegistry returns nil and collector
// constructors return no-op implementations.
func InitRegistry() {
	registryOnce.Do(func() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		registry = reg
	})
}

// GetRegistry returns the global Prometheus registry, or nil when metrics are disabled.
//
// Thread safety:
// The sync.Once in InitRegistry orders the write before any read that
// observes a non-nil value.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled returns true once InitRegistry has been called.
func IsEnabled() bool {
	return GetRegistry() != nil
}
