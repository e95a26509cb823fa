package config

import (
	"github.com/marmos91/dittoweb/pkg/metrics"
	promMetrics "github.com/marmos91/dittoweb/pkg/metrics/prometheus"
	"github.com/marmos91/dittoweb/pkg/route"
)

// MetricsResult contains all metrics-related components created from configuration.
//
// Collectors are never nil: with metrics disabled they are no-op implementations.
type MetricsResult struct {
	// Server is the admin HTTP server exposing /metrics, /healthz and /routes (nil if disabled)
	Server *metrics.Server

	HTTPMetrics    metrics.HTTPMetrics
	PoolMetrics    metrics.PoolMetrics
	ContentMetrics metrics.ContentMetrics
	CacheMetrics   metrics.CacheMetrics
}

// InitializeMetrics creates and initializes all metrics components based on configuration.
//
// If metrics are enabled in the configuration:
//   - Initializes the global Prometheus registry
//   - Creates the admin HTTP server, listing tree under /routes
//   - Creates Prometheus-backed metrics instances for all components
//
// If metrics are disabled:
//   - Returns nil server
//   - Returns no-op metrics implementations (zero overhead)
func InitializeMetrics(cfg *Config, tree *route.Tree) *MetricsResult {
	if !cfg.Server.Metrics.Enabled {
		return &MetricsResult{
			HTTPMetrics:    metrics.NewNoopHTTPMetrics(),
			PoolMetrics:    metrics.NewNoopPoolMetrics(),
			ContentMetrics: metrics.NewNoopContentMetrics(),
			CacheMetrics:   metrics.NewNoopCacheMetrics(),
		}
	}

	metrics.InitRegistry()

	server := metrics.NewServer(metrics.ServerConfig{
		Port:   cfg.Server.Metrics.Port,
		Routes: tree,
	})

	return &MetricsResult{
		Server:         server,
		HTTPMetrics:    promMetrics.NewHTTPMetrics(),
		PoolMetrics:    promMetrics.NewPoolMetrics(),
		ContentMetrics: promMetrics.NewContentMetrics(),
		CacheMetrics:   promMetrics.NewCacheMetrics(),
	}
}
