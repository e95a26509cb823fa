package adapter

import (
	"context"
)

// Adapter represents a protocol-specific listener that can be managed by
// DittoWebServer.
//
// Each adapter owns one listening socket and the lifecycle of the connections
// it accepts. Dependencies (route tree, worker pool, static store) are injected
// through the adapter's constructor, so the interface only covers lifecycle.
//
// Lifecycle:
//  1. Creation: Adapter is created with protocol-specific configuration
//  2. Startup: Serve() binds the listener and blocks until shutdown
//  3. Shutdown: Stop() initiates graceful shutdown with timeout
//
// Thread safety:
// Implementations must be safe for concurrent use. Stop() may be called
// concurrently with Serve().
type Adapter interface {
	// Serve starts the listener and blocks until the context is cancelled
	// or an unrecoverable error occurs.
	//
	// When the context is cancelled, Serve must initiate graceful shutdown:
	//   - Stop accepting new connections
	//   - Wait for active connections to complete (with timeout)
	//   - Clean up resources
	//
	// A bind failure is returned immediately. If Serve returns before context
	// cancellation, DittoWebServer treats it as fatal and stops all other adapters.
	Serve(ctx context.Context) error

	// Stop initiates graceful shutdown.
	//
	// Implementations must:
	//   - Be safe to call multiple times (idempotent)
	//   - Be safe to call concurrently with Serve()
	//   - Respect the context timeout for shutdown operations
	Stop(ctx context.Context) error

	// Protocol returns the human-readable protocol name for logging and metrics.
	Protocol() string

	// Port returns the TCP port the adapter is listening on.
	//
	// Before Serve binds, this is the configured port (0 means "any").
	Port() int
}
