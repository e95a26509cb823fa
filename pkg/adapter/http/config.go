package http

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Defaults applied by New for zero values.
const (
	DefaultHost               = "127.0.0.1"
	DefaultPort               = 8081
	DefaultReadBufferSize     = 1024
	DefaultShutdownTimeout    = 30 * time.Second
	DefaultMetricsLogInterval = 5 * time.Minute
)

// HTTPConfig holds configuration parameters for the HTTP adapter.
//
// Timeouts are optional and zero means none: a connection that never sends
// data occupies its worker until the client goes away. Set ReadTimeout and
// WriteTimeout to bound that.
//
// Default values (applied by New if zero):
//   - Host: 127.0.0.1
//   - Port: 8081 (negative values select any free port)
//   - ReadBufferSize: 1024
//   - ShutdownTimeout: 30s
//   - MetricsLogInterval: 5m (negative disables)
type HTTPConfig struct {
	// Enabled controls whether the HTTP adapter is active.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Host is the interface to bind.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the TCP port to listen on.
	Port int `mapstructure:"port" yaml:"port" validate:"min=-1,max=65535"`

	// ReadBufferSize is the size of the single read that must hold the whole
	// request. Longer requests are truncated.
	ReadBufferSize int `mapstructure:"read_buffer_size" yaml:"read_buffer_size" validate:"min=0,max=1048576"`

	// ReadTimeout bounds the request read. 0 means no deadline.
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" validate:"min=0"`

	// WriteTimeout bounds everything after the read, handler included.
	// 0 means no deadline.
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"min=0"`

	// ShutdownTimeout is how long Serve waits for in-flight connections once
	// shutdown starts. Remaining connections are then force-closed.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"min=0"`

	// LogStatus logs every request at INFO instead of DEBUG.
	LogStatus bool `mapstructure:"log_status" yaml:"log_status"`

	// MetricsLogInterval is the interval at which connection and pool counters
	// are logged. Negative disables periodic logging.
	MetricsLogInterval time.Duration `mapstructure:"metrics_log_interval" yaml:"metrics_log_interval"`
}

// applyDefaults fills in zero values.
func (c *HTTPConfig) applyDefaults() {
	// Enabled is defaulted in pkg/config so an explicit false survives.

	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Port < 0 {
		c.Port = 0
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = DefaultReadBufferSize
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.MetricsLogInterval == 0 {
		c.MetricsLogInterval = DefaultMetricsLogInterval
	}
}

// validate checks the configuration after defaults are applied.
func (c *HTTPConfig) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be 0-65535", c.Port)
	}
	if c.ReadBufferSize <= 0 {
		return fmt.Errorf("invalid ReadBufferSize %d: must be > 0", c.ReadBufferSize)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("invalid ReadTimeout %v: must be >= 0", c.ReadTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("invalid WriteTimeout %v: must be >= 0", c.WriteTimeout)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid ShutdownTimeout %v: must be > 0", c.ShutdownTimeout)
	}
	return nil
}

// Address returns host:port for the listener.
func (c *HTTPConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
