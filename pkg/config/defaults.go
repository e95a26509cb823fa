package config

import (
	"strings"
	"time"

	httpadapter "github.com/marmos91/dittoweb/pkg/adapter/http"
	"github.com/marmos91/dittoweb/pkg/content/cache"
	"github.com/marmos91/dittoweb/pkg/handlers"
	"github.com/marmos91/dittoweb/pkg/route"
)

// Defaults not owned by another package.
const (
	DefaultWorkers          = 10
	DefaultSaturationPolicy = "reject"
	DefaultStaticsPath      = "./static"
	DefaultMetricsPort      = 9090
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", nil) are replaced with defaults
//   - Explicit values are preserved
//   - adapters.http.enabled is only defaulted when the section looks unconfigured
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyAdaptersDefaults(&cfg.Adapters)
	applyPoolDefaults(&cfg.Pool)
	applyStaticsDefaults(&cfg.Statics)
	applyUsersDefaults(&cfg.Users)
	applyFetchDefaults(&cfg.Fetch)

	if len(cfg.Routes) == 0 {
		cfg.Routes = DefaultRoutes()
	}
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyServerDefaults sets server defaults.
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = DefaultMetricsPort
	}
}

// applyAdaptersDefaults sets adapter defaults.
func applyAdaptersDefaults(cfg *AdaptersConfig) {
	// Enable the HTTP adapter when it was not configured at all, so a server
	// started without a config file listens. An explicit enabled: false with
	// a port survives.
	if !cfg.HTTP.Enabled && cfg.HTTP.Port == 0 {
		cfg.HTTP.Enabled = true
	}

	applyHTTPDefaults(&cfg.HTTP)
}

// applyHTTPDefaults sets HTTP adapter defaults.
//
// Read and write timeouts stay 0 (none) unless configured.
func applyHTTPDefaults(cfg *httpadapter.HTTPConfig) {
	if cfg.Host == "" {
		cfg.Host = httpadapter.DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = httpadapter.DefaultPort
	}
	if cfg.ReadBufferSize == 0 {
		cfg.ReadBufferSize = httpadapter.DefaultReadBufferSize
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = httpadapter.DefaultShutdownTimeout
	}
	if cfg.MetricsLogInterval == 0 {
		cfg.MetricsLogInterval = httpadapter.DefaultMetricsLogInterval
	}
}

// applyPoolDefaults sets worker pool defaults.
func applyPoolDefaults(cfg *PoolConfig) {
	if cfg.Workers == 0 {
		cfg.Workers = DefaultWorkers
	}
	// QueueSize defaults to 0 (unbounded)
	if cfg.SaturationPolicy == "" {
		cfg.SaturationPolicy = DefaultSaturationPolicy
	}
	cfg.SaturationPolicy = strings.ToLower(cfg.SaturationPolicy)
}

// applyStaticsDefaults sets static serving defaults.
func applyStaticsDefaults(cfg *StaticsConfig) {
	// Serve defaults to true through viper (see setupViper).
	if cfg.Custom404 == "" {
		cfg.Custom404 = route.DefaultNotFound
	}

	if cfg.Store.Type == "" {
		cfg.Store.Type = "filesystem"
	}
	if cfg.Store.Filesystem == nil {
		cfg.Store.Filesystem = make(map[string]any)
	}
	if cfg.Store.Memory == nil {
		cfg.Store.Memory = make(map[string]any)
	}
	if cfg.Store.S3 == nil {
		cfg.Store.S3 = make(map[string]any)
	}
	if _, ok := cfg.Store.Filesystem["path"]; !ok {
		cfg.Store.Filesystem["path"] = DefaultStaticsPath
	}
	if _, ok := cfg.Store.Filesystem["create"]; !ok {
		cfg.Store.Filesystem["create"] = true
	}

	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = cache.DefaultMaxEntries
	}
	if cfg.Cache.MaxBytes == 0 {
		cfg.Cache.MaxBytes = cache.DefaultMaxBytes
	}
	if cfg.Cache.MaxEntryBytes == 0 {
		cfg.Cache.MaxEntryBytes = cache.DefaultMaxEntryBytes
	}
}

// applyUsersDefaults sets users store defaults.
func applyUsersDefaults(cfg *UsersConfig) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}
	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
}

// applyFetchDefaults sets fetch handler defaults.
//
// RequestsPerSecond and Burst default to 0 (unlimited).
func applyFetchDefaults(cfg *FetchConfig) {
	if cfg.Timeout == 0 {
		cfg.Timeout = handlers.DefaultFetchTimeout
	}
	if cfg.Scheme == "" {
		cfg.Scheme = handlers.DefaultFetchScheme
	}
	cfg.Scheme = strings.ToLower(cfg.Scheme)
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = handlers.DefaultFetchMaxBytes
	}
	if cfg.AllowedHosts == nil {
		cfg.AllowedHosts = []string{}
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Adapters: AdaptersConfig{
			HTTP: httpadapter.HTTPConfig{
				Enabled:   true,
				LogStatus: true,
			},
		},
		Statics: StaticsConfig{
			Serve: true,
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
