package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	httpadapter "github.com/marmos91/dittoweb/pkg/adapter/http"
	"github.com/spf13/viper"
)

// Config represents the complete DittoWeb configuration.
//
// This structure captures all configurable aspects of the server:
//   - Logging configuration
//   - Server-wide settings (shutdown, admin/metrics server)
//   - Protocol adapter configuration
//   - Worker pool sizing and saturation policy
//   - Static file serving and its backing store
//   - Users store backing the users handlers
//   - Outbound fetch handler limits
//   - The route tree
//
// Configuration sources (in order of precedence):
//  1. Environment variables (DITTOWEB_*)
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
//
// Store Configuration Pattern:
// Each store implementation defines its own configuration type and factory function.
// The Config struct contains type-specific sections (e.g., statics.store.filesystem,
// statics.store.s3) and only the section matching the selected type is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Server contains server-wide settings
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Adapters contains protocol adapter configurations
	Adapters AdaptersConfig `mapstructure:"adapters" yaml:"adapters"`

	// Pool sizes the worker pool shared by all connections
	Pool PoolConfig `mapstructure:"pool" yaml:"pool"`

	// Statics controls static file serving
	Statics StaticsConfig `mapstructure:"statics" yaml:"statics"`

	// Users selects the store behind the users handlers
	Users UsersConfig `mapstructure:"users" yaml:"users"`

	// Fetch limits the outbound fetch handler
	Fetch FetchConfig `mapstructure:"fetch" yaml:"fetch"`

	// Routes is the ordered route tree. Empty selects DefaultRoutes.
	Routes []RouteSpec `mapstructure:"routes" yaml:"routes" validate:"dive"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// ServerConfig contains server-wide settings.
type ServerConfig struct {
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"required,gt=0"`

	// Metrics configures the admin HTTP server exposing /metrics
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// MetricsConfig configures the admin/metrics HTTP server.
type MetricsConfig struct {
	// Enabled starts the admin server and Prometheus collectors
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the admin server port
	Port int `mapstructure:"port" yaml:"port" validate:"omitempty,min=1,max=65535"`
}

// AdaptersConfig contains all protocol adapter configurations.
type AdaptersConfig struct {
	// HTTP contains the HTTP adapter configuration.
	// Uses the httpadapter.HTTPConfig type directly to avoid duplication.
	HTTP httpadapter.HTTPConfig `mapstructure:"http" yaml:"http"`
}

// PoolConfig sizes the worker pool.
type PoolConfig struct {
	// Workers is the number of persistent workers
	Workers int `mapstructure:"workers" yaml:"workers" validate:"gt=0"`

	// QueueSize bounds the queue. 0 keeps it unbounded.
	QueueSize int `mapstructure:"queue_size" yaml:"queue_size" validate:"gte=0"`

	// SaturationPolicy applies when a bounded queue is full
	// Valid values: reject, block, grow
	SaturationPolicy string `mapstructure:"saturation_policy" yaml:"saturation_policy" validate:"required,oneof=reject block grow"`
}

// StaticsConfig controls static file serving.
type StaticsConfig struct {
	// Serve tries the request path as a static file before routing
	Serve bool `mapstructure:"serve" yaml:"serve"`

	// Custom404 is the file served when nothing matches
	Custom404 string `mapstructure:"custom_404" yaml:"custom_404" validate:"required"`

	// SniffContentType refines text/plain guesses by sniffing file contents
	SniffContentType bool `mapstructure:"sniff_content_type" yaml:"sniff_content_type"`

	// Store selects where static files are read from
	Store StaticStoreConfig `mapstructure:"store" yaml:"store"`

	// Cache fronts the store with an in-memory LRU
	Cache StaticCacheConfig `mapstructure:"cache" yaml:"cache"`
}

// StaticStoreConfig specifies the static file store.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used.
type StaticStoreConfig struct {
	// Type specifies which content store implementation to use
	// Valid values: filesystem, memory, s3
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=filesystem memory s3"`

	// Filesystem contains filesystem-specific configuration
	// Only used when Type = "filesystem"
	Filesystem map[string]any `mapstructure:"filesystem" yaml:"filesystem"`

	// Memory contains memory-specific configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory" yaml:"memory"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3" yaml:"s3"`
}

// StaticCacheConfig bounds the static file cache.
type StaticCacheConfig struct {
	Enabled       bool  `mapstructure:"enabled" yaml:"enabled"`
	MaxEntries    int   `mapstructure:"max_entries" yaml:"max_entries" validate:"gte=0"`
	MaxBytes      int64 `mapstructure:"max_bytes" yaml:"max_bytes" validate:"gte=0"`
	MaxEntryBytes int64 `mapstructure:"max_entry_bytes" yaml:"max_entry_bytes" validate:"gte=0"`
}

// UsersConfig specifies the users store.
type UsersConfig struct {
	// Type specifies which users store implementation to use
	// Valid values: memory, badger
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory badger"`

	// Memory contains memory-specific configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory" yaml:"memory"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger" yaml:"badger"`
}

// FetchConfig limits the outbound fetch handler.
type FetchConfig struct {
	// RequestsPerSecond is the sustained outbound rate. 0 means unlimited.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second" validate:"gte=0"`

	// Burst is the token bucket size. 0 derives it from RequestsPerSecond.
	Burst uint `mapstructure:"burst" yaml:"burst"`

	// Timeout bounds one fetch, including the rate limit wait
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gte=0"`

	// Scheme prefixes the url parameter
	// Valid values: http, https
	Scheme string `mapstructure:"scheme" yaml:"scheme" validate:"required,oneof=http https"`

	// MaxBytes caps the fetched body
	MaxBytes int64 `mapstructure:"max_bytes" yaml:"max_bytes" validate:"gte=0"`

	// AllowedHosts restricts fetchable hosts. Empty allows any host.
	AllowedHosts []string `mapstructure:"allowed_hosts" yaml:"allowed_hosts" validate:"dive,required"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (DITTOWEB_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Configure viper
	setupViper(v, configPath)

	// Read configuration file if it exists
	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	// Unmarshal into config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply defaults for any missing values
	ApplyDefaults(&cfg)

	// Validate configuration
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use DITTOWEB_ prefix and underscores
	// Example: DITTOWEB_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("DITTOWEB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans defaulting to true cannot be told apart from an explicit
	// false after Unmarshal, so they are defaulted here.
	v.SetDefault("statics.serve", true)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/dittoweb/config.yaml
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
//
// A missing file is not an error: the defaults describe a runnable server.
// An explicit path that does not exist is treated the same way.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dittoweb")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "dittoweb")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
