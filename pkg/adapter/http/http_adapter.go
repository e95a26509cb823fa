package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/dittoweb/internal/logger"
	"github.com/marmos91/dittoweb/pkg/metrics"
	"github.com/marmos91/dittoweb/pkg/route"
	"github.com/marmos91/dittoweb/pkg/workerpool"
)

// HTTPAdapter implements the adapter.Adapter interface for the raw-TCP HTTP
// server.
//
// Architecture:
// One accept loop turns every accepted connection into a work item on the
// shared worker pool. The work item reads the request once, dispatches it
// through the route tree and closes the connection. Connections are never
// kept alive.
//
// Shutdown flow:
//  1. Context cancelled or Stop() called
//  2. Listener closed (no new connections)
//  3. shutdownCtx cancelled (handlers that honor ctx abort)
//  4. Wait for accepted connections to finish (up to ShutdownTimeout)
//  5. Force-close any remaining connections after timeout
//
// The pool is shared with the caller and is not closed by the adapter.
//
// Thread safety:
// All methods are safe for concurrent use.
type HTTPAdapter struct {
	config     HTTPConfig
	dispatcher *Dispatcher
	pool       *workerpool.Pool
	metrics    metrics.HTTPMetrics

	// mu guards listener, which Stop may close before or while Serve binds.
	mu       sync.Mutex
	listener net.Listener
	// port is the bound port once Serve has started listening.
	port atomic.Int32
	// ready is closed once the listener is bound.
	ready chan struct{}

	// activeConns counts connections from accept until close.
	activeConns sync.WaitGroup
	connCount   atomic.Int32

	// activeConnections maps remote address to net.Conn for forced closure.
	activeConnections sync.Map

	shutdownOnce   sync.Once
	shutdown       chan struct{}
	shutdownCtx    context.Context
	cancelRequests context.CancelFunc
}

// New creates an HTTPAdapter serving tree on pool.
//
// Zero values in config are replaced with defaults. Invalid configurations and
// a nil tree, pool or static store panic (programmer error).
func New(config HTTPConfig, tree *route.Tree, pool *workerpool.Pool, statics Statics, opts ...Option) *HTTPAdapter {
	config.applyDefaults()
	if err := config.validate(); err != nil {
		panic(fmt.Sprintf("invalid HTTP config: %v", err))
	}
	if pool == nil {
		panic("HTTP adapter: nil worker pool")
	}

	opts = append([]Option{WithLogStatus(config.LogStatus)}, opts...)
	o := buildOptions(opts)

	shutdownCtx, cancelRequests := context.WithCancel(context.Background())

	a := &HTTPAdapter{
		config:         config,
		dispatcher:     NewDispatcher(tree, statics, opts...),
		pool:           pool,
		metrics:        o.metrics,
		ready:          make(chan struct{}),
		shutdown:       make(chan struct{}),
		shutdownCtx:    shutdownCtx,
		cancelRequests: cancelRequests,
	}
	a.port.Store(int32(config.Port))
	return a
}

// Serve binds the listener and accepts connections until ctx is cancelled or
// Stop is called.
//
// Returns:
//   - an error if the listener cannot be bound
//   - nil when every connection finished within ShutdownTimeout
//   - an error when connections had to be force-closed
func (a *HTTPAdapter) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", a.config.Address())
	if err != nil {
		return fmt.Errorf("failed to create HTTP listener on %s: %w", a.config.Address(), err)
	}

	a.mu.Lock()
	select {
	case <-a.shutdown:
		a.mu.Unlock()
		_ = listener.Close()
		close(a.ready)
		return nil
	default:
	}
	a.listener = listener
	a.mu.Unlock()

	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		a.port.Store(int32(tcpAddr.Port))
	}
	close(a.ready)

	logger.Info("HTTP server listening on %s", listener.Addr())
	logger.Debug("HTTP config: workers=%d read_buffer_size=%d read_timeout=%v write_timeout=%v log_status=%v",
		a.pool.Workers(), a.config.ReadBufferSize, a.config.ReadTimeout, a.config.WriteTimeout, a.config.LogStatus)

	go func() {
		select {
		case <-ctx.Done():
			logger.Info("HTTP shutdown signal received: %v", ctx.Err())
		case <-a.shutdown:
		}
		a.initiateShutdown()
	}()

	if a.config.MetricsLogInterval > 0 {
		go a.logMetrics(ctx)
	}

	for {
		tcpConn, err := listener.Accept()
		if err != nil {
			select {
			case <-a.shutdown:
				return a.gracefulShutdown()
			default:
				logger.Debug("Error accepting HTTP connection: %v", err)
				continue
			}
		}

		a.track(tcpConn)

		submitErr := a.pool.SubmitContext(a.shutdownCtx, func() {
			defer a.untrack(tcpConn)
			a.serveConn(tcpConn)
		})
		if submitErr != nil {
			if errors.Is(submitErr, workerpool.ErrQueueFull) {
				logger.Warn("HTTP connection from %s dropped: %v", tcpConn.RemoteAddr(), submitErr)
			} else {
				logger.Debug("HTTP connection from %s not dispatched: %v", tcpConn.RemoteAddr(), submitErr)
			}
			a.untrack(tcpConn)
		}
	}
}

// serveConn runs on a pool worker and owns tcpConn until it returns.
func (a *HTTPAdapter) serveConn(tcpConn net.Conn) {
	if a.config.ReadTimeout > 0 {
		if err := tcpConn.SetReadDeadline(time.Now().Add(a.config.ReadTimeout)); err != nil {
			logger.Warn("Failed to set read deadline for %s: %v", tcpConn.RemoteAddr(), err)
		}
	}
	if a.config.WriteTimeout > 0 {
		if err := tcpConn.SetWriteDeadline(time.Now().Add(a.config.ReadTimeout + a.config.WriteTimeout)); err != nil {
			logger.Warn("Failed to set write deadline for %s: %v", tcpConn.RemoteAddr(), err)
		}
	}

	a.dispatcher.ServeConn(a.shutdownCtx, tcpConn, a.config.ReadBufferSize)
}

func (a *HTTPAdapter) track(tcpConn net.Conn) {
	a.activeConns.Add(1)
	current := a.connCount.Add(1)
	a.activeConnections.Store(tcpConn.RemoteAddr().String(), tcpConn)

	a.metrics.RecordConnectionAccepted()
	a.metrics.SetActiveConnections(current)
	logger.Debug("HTTP connection accepted from %s (active: %d)", tcpConn.RemoteAddr(), current)
}

// untrack closes tcpConn and releases its slot. Handlers may already have
// closed it; the second close error is ignored.
func (a *HTTPAdapter) untrack(tcpConn net.Conn) {
	addr := tcpConn.RemoteAddr().String()
	_ = tcpConn.Close()
	a.activeConnections.Delete(addr)

	current := a.connCount.Add(-1)
	a.metrics.RecordConnectionClosed()
	a.metrics.SetActiveConnections(current)
	a.activeConns.Done()

	logger.Debug("HTTP connection closed from %s (active: %d)", addr, current)
}

// initiateShutdown closes the listener and cancels in-flight request contexts.
// Safe to call multiple times.
func (a *HTTPAdapter) initiateShutdown() {
	a.shutdownOnce.Do(func() {
		logger.Debug("HTTP shutdown initiated")

		close(a.shutdown)

		a.mu.Lock()
		if a.listener != nil {
			if err := a.listener.Close(); err != nil {
				logger.Debug("Error closing HTTP listener: %v", err)
			}
		}
		a.mu.Unlock()

		a.cancelRequests()
	})
}

// gracefulShutdown waits for accepted connections up to ShutdownTimeout, then
// force-closes what is left.
func (a *HTTPAdapter) gracefulShutdown() error {
	activeCount := a.connCount.Load()
	logger.Info("HTTP graceful shutdown: waiting for %d active connection(s) (timeout: %v)",
		activeCount, a.config.ShutdownTimeout)

	select {
	case <-a.drained():
		logger.Info("HTTP graceful shutdown complete: all connections closed")
		return nil

	case <-time.After(a.config.ShutdownTimeout):
		remaining := a.connCount.Load()
		logger.Warn("HTTP shutdown timeout exceeded: %d connection(s) still active after %v - forcing closure",
			remaining, a.config.ShutdownTimeout)

		a.forceCloseConnections()
		return fmt.Errorf("HTTP shutdown timeout: %d connections force-closed", remaining)
	}
}

func (a *HTTPAdapter) drained() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		a.activeConns.Wait()
		close(done)
	}()
	return done
}

// forceCloseConnections closes every tracked connection so blocked reads and
// writes fail and their workers move on.
func (a *HTTPAdapter) forceCloseConnections() {
	closedCount := 0
	a.activeConnections.Range(func(key, value any) bool {
		addr := key.(string)
		conn := value.(net.Conn)

		if err := conn.Close(); err != nil {
			logger.Debug("Error force-closing connection to %s: %v", addr, err)
		} else {
			closedCount++
			a.metrics.RecordConnectionForceClosed()
		}
		return true
	})

	if closedCount > 0 {
		logger.Info("Force-closed %d HTTP connection(s)", closedCount)
	}
}

// Stop initiates shutdown and waits for accepted connections to finish or ctx
// to expire, whichever comes first.
func (a *HTTPAdapter) Stop(ctx context.Context) error {
	a.initiateShutdown()

	if ctx == nil {
		return a.gracefulShutdown()
	}

	select {
	case <-a.drained():
		return nil
	case <-ctx.Done():
		remaining := a.connCount.Load()
		logger.Warn("HTTP shutdown context cancelled: %d connection(s) still active: %v",
			remaining, ctx.Err())
		return ctx.Err()
	}
}

// logMetrics periodically logs connection and pool counters.
func (a *HTTPAdapter) logMetrics(ctx context.Context) {
	ticker := time.NewTicker(a.config.MetricsLogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.shutdown:
			return
		case <-ticker.C:
			stats := a.pool.Stats()
			logger.Info("HTTP metrics: active_connections=%d queued=%d running=%d completed=%d panicked=%d rejected=%d",
				a.connCount.Load(), stats.Queued, stats.Running, stats.Completed, stats.Panicked, stats.Rejected)
		}
	}
}

// Ready is closed once the listener is bound.
func (a *HTTPAdapter) Ready() <-chan struct{} {
	return a.ready
}

// GetActiveConnections returns the number of accepted connections not yet closed.
func (a *HTTPAdapter) GetActiveConnections() int32 {
	return a.connCount.Load()
}

// Dispatcher returns the dispatcher used for every connection.
func (a *HTTPAdapter) Dispatcher() *Dispatcher {
	return a.dispatcher
}

// Port returns the bound port, or the configured one before Serve binds.
func (a *HTTPAdapter) Port() int {
	return int(a.port.Load())
}

// Protocol returns "HTTP".
func (a *HTTPAdapter) Protocol() string {
	return "HTTP"
}
