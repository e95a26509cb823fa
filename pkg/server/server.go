package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/dittoweb/internal/logger"
	"github.com/marmos91/dittoweb/pkg/adapter"
	"github.com/marmos91/dittoweb/pkg/metrics"
)

// DefaultStopTimeout bounds the Stop() calls issued during shutdown.
const DefaultStopTimeout = 30 * time.Second

// DittoWebServer manages the lifecycle of the protocol adapters and the
// optional admin server.
//
// Lifecycle:
//  1. Creation: New()
//  2. Registration: AddAdapter() for each listener, SetAdminServer() optionally
//  3. Startup: Serve() starts everything concurrently
//  4. Shutdown: Context cancellation or an adapter failure stops everything
//
// Thread safety:
// DittoWebServer is safe for concurrent use. Serve() may only be called once.
//
// Example usage:
//
//	srv := server.New(cfg.Server.ShutdownTimeout)
//	if err := srv.AddAdapter(httpadapter.New(httpConfig, tree, pool, statics)); err != nil {
//	    return err
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
//	    log.Fatal(err)
//	}
type DittoWebServer struct {
	stopTimeout time.Duration

	// mu protects adapters, admin and served
	mu       sync.Mutex
	adapters []adapter.Adapter
	admin    *metrics.Server
	served   bool
}

// New creates a server. stopTimeout bounds the Stop() calls made on shutdown;
// zero selects DefaultStopTimeout.
func New(stopTimeout time.Duration) *DittoWebServer {
	if stopTimeout <= 0 {
		stopTimeout = DefaultStopTimeout
	}
	return &DittoWebServer{
		stopTimeout: stopTimeout,
		adapters:    make([]adapter.Adapter, 0, 2),
	}
}

// AddAdapter registers a protocol adapter.
//
// Returns an error when another adapter already serves the same protocol or
// port. Port 0 ("any free port") never conflicts.
//
// Panics if a is nil or Serve() has already been called (programmer error).
func (s *DittoWebServer) AddAdapter(a adapter.Adapter) error {
	if a == nil {
		panic("adapter cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.served {
		panic("cannot add adapter after Serve() has been called")
	}

	protocol := a.Protocol()
	port := a.Port()

	for _, existing := range s.adapters {
		if existing.Protocol() == protocol {
			return fmt.Errorf("adapter for protocol %s already registered", protocol)
		}
		if port != 0 && existing.Port() == port {
			return fmt.Errorf("port %d already in use by %s adapter", port, existing.Protocol())
		}
	}

	s.adapters = append(s.adapters, a)
	logger.Info("Registered %s adapter on port %d", protocol, port)
	return nil
}

// SetAdminServer runs admin alongside the adapters. A failing admin server is
// logged but does not stop the adapters.
func (s *DittoWebServer) SetAdminServer(admin *metrics.Server) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.served {
		panic("cannot set admin server after Serve() has been called")
	}
	s.admin = admin
}

// Serve starts every adapter and blocks until ctx is cancelled or an adapter
// fails.
//
// Returns:
//   - ctx.Err() when shutdown was triggered by the context
//   - the first adapter error (wrapped) when an adapter failed, bind errors included
//   - an error when no adapter is registered or Serve was already called
func (s *DittoWebServer) Serve(ctx context.Context) error {
	s.mu.Lock()
	if s.served {
		s.mu.Unlock()
		return errors.New("Serve() has already been called on this server instance")
	}
	s.served = true
	if len(s.adapters) == 0 {
		s.mu.Unlock()
		return fmt.Errorf("no adapters registered; call AddAdapter() before Serve()")
	}
	adapters := make([]adapter.Adapter, len(s.adapters))
	copy(adapters, s.adapters)
	admin := s.admin
	s.mu.Unlock()

	logger.Info("Starting DittoWeb server with %d adapter(s)", len(adapters))

	// runCtx stops the admin server together with the adapters.
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	// Buffered so failing adapters never block.
	errChan := make(chan adapterError, len(adapters))

	var wg sync.WaitGroup
	for _, adp := range adapters {
		wg.Add(1)
		go func(a adapter.Adapter) {
			defer wg.Done()

			protocol := a.Protocol()
			logger.Info("Starting %s adapter on port %d", protocol, a.Port())

			err := a.Serve(runCtx)
			switch {
			case err == nil:
				logger.Info("%s adapter stopped", protocol)
			case runCtx.Err() == nil:
				logger.Error("%s adapter failed: %v", protocol, err)
				errChan <- adapterError{protocol: protocol, err: err}
			default:
				logger.Warn("%s adapter stopped with error: %v", protocol, err)
			}
		}(adp)
	}

	if admin != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := admin.Start(runCtx); err != nil {
				logger.Error("Admin server error: %v", err)
			}
		}()
	}

	var shutdownErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received (reason: %v)", ctx.Err())
		shutdownErr = ctx.Err()

	case adapterErr := <-errChan:
		logger.Error("Adapter %s failed: %v - initiating shutdown of all adapters",
			adapterErr.protocol, adapterErr.err)
		shutdownErr = fmt.Errorf("%s adapter error: %w", adapterErr.protocol, adapterErr.err)
	}

	cancelRun()
	s.stopAllAdapters(adapters)

	logger.Debug("Waiting for all adapters to complete shutdown")
	wg.Wait()

	logger.Info("DittoWeb server stopped")
	return shutdownErr
}

type adapterError struct {
	protocol string
	err      error
}

// stopAllAdapters calls Stop() on every adapter in reverse registration order,
// all sharing one stopTimeout budget. Errors are logged.
func (s *DittoWebServer) stopAllAdapters(adapters []adapter.Adapter) {
	ctx, cancel := context.WithTimeout(context.Background(), s.stopTimeout)
	defer cancel()

	logger.Info("Initiating graceful shutdown of %d adapter(s)", len(adapters))

	for i := len(adapters) - 1; i >= 0; i-- {
		adp := adapters[i]
		protocol := adp.Protocol()

		logger.Debug("Stopping %s adapter (port %d)", protocol, adp.Port())
		if err := adp.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Error stopping %s adapter: %v", protocol, err)
		}
	}
}

// Adapters returns a copy of the registered adapters.
func (s *DittoWebServer) Adapters() []adapter.Adapter {
	s.mu.Lock()
	defer s.mu.Unlock()

	adapters := make([]adapter.Adapter, len(s.adapters))
	copy(adapters, s.adapters)
	return adapters
}
