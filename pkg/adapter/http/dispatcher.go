package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittoweb/internal/logger"
	wire "github.com/marmos91/dittoweb/internal/protocol/http"
	"github.com/marmos91/dittoweb/pkg/content"
	"github.com/marmos91/dittoweb/pkg/metrics"
	"github.com/marmos91/dittoweb/pkg/route"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies spans started by the dispatcher.
const tracerName = "github.com/marmos91/dittoweb/pkg/adapter/http"

// Outcome says what served a dispatched request.
type Outcome string

const (
	// OutcomeStatic: the request path named a file in the static store and
	// was served before routing.
	OutcomeStatic Outcome = "static"

	// OutcomeFile: the route tree resolved to a StaticFile.
	OutcomeFile Outcome = "file"

	// OutcomeHandler: the route tree resolved to a handler.
	OutcomeHandler Outcome = "handler"

	// OutcomeNotFound: nothing matched; the not-found file was served.
	OutcomeNotFound Outcome = "not_found"

	// OutcomeMalformed: the request line could not be parsed; served as not found.
	OutcomeMalformed Outcome = "malformed"
)

// OnConnectFunc observes the raw request text of every connection before
// dispatch.
type OnConnectFunc func(ctx context.Context, raw string)

// Statics configures static file serving.
type Statics struct {
	// Serve tries every request path against Store before routing.
	Serve bool

	// NotFound is the file served when nothing matches. Defaults to
	// route.DefaultNotFound.
	NotFound string

	// Sniff refines text/plain guesses by inspecting file content.
	Sniff bool

	// Store holds the static files. Required.
	Store content.ContentStore
}

// Dispatcher serves one connection: read, resolve, respond.
//
// A Dispatcher holds no per-connection state and is safe for concurrent use by
// every worker.
type Dispatcher struct {
	tree      *route.Tree
	statics   Statics
	onConnect OnConnectFunc
	metrics   metrics.HTTPMetrics
	tracer    trace.Tracer
	logStatus bool
}

// NewDispatcher creates a dispatcher over tree.
//
// Panics if tree or statics.Store is nil.
func NewDispatcher(tree *route.Tree, statics Statics, opts ...Option) *Dispatcher {
	if tree == nil {
		panic("dispatcher: nil route tree")
	}
	if statics.Store == nil {
		panic("dispatcher: nil static store")
	}
	if statics.NotFound == "" {
		statics.NotFound = tree.NotFound()
	}

	o := buildOptions(opts)
	return &Dispatcher{
		tree:      tree,
		statics:   statics,
		onConnect: o.onConnect,
		metrics:   o.metrics,
		tracer:    o.tracer,
		logStatus: o.logStatus,
	}
}

// ServeConn reads the request from conn and dispatches it.
//
// The whole request must arrive in the first read of readSize bytes. A read
// that returns no bytes ends the connection without a response. The caller
// closes conn.
func (d *Dispatcher) ServeConn(ctx context.Context, conn net.Conn, readSize int) {
	buf := wire.GetBuffer(readSize)
	defer wire.PutBuffer(buf)

	n, err := conn.Read(buf)
	if n == 0 {
		if err != nil {
			logger.Debug("HTTP read from %s: %v", conn.RemoteAddr(), err)
		}
		return
	}
	d.metrics.RecordBytesRead(n)

	// Lossy decode: the bytes are used as text verbatim.
	d.Dispatch(ctx, conn, string(buf[:n]))
}

// Dispatch serves raw on conn and reports what served it.
//
// Order of resolution:
//  1. A malformed request line is served the not-found file.
//  2. With Statics.Serve, a path naming a file in the store is served as is.
//  3. An unrecognized method is served the not-found file without routing.
//  4. The route tree decides: a StaticFile is served from the store, a
//     handler takes over the connection, anything else gets the not-found file.
func (d *Dispatcher) Dispatch(ctx context.Context, conn net.Conn, raw string) Outcome {
	requestID := uuid.NewString()
	start := time.Now()

	ctx, span := d.tracer.Start(ctx, "http.dispatch",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("dittoweb.request_id", requestID),
			attribute.String("net.peer.addr", remoteAddr(conn)),
		),
	)
	defer span.End()

	if d.onConnect != nil {
		d.onConnect(ctx, raw)
	}

	rl, err := wire.ParseRequestLine(raw)
	if err != nil {
		span.RecordError(err)
		d.serveFile(ctx, conn, d.statics.NotFound)
		d.finish(span, requestID, "", "", OutcomeMalformed, start)
		return OutcomeMalformed
	}
	span.SetAttributes(
		attribute.String("http.method", rl.Token),
		attribute.String("http.target", rl.Path),
	)

	outcome := d.route(ctx, conn, raw, rl)
	d.finish(span, requestID, rl.Method.String(), rl.Path, outcome, start)
	return outcome
}

func (d *Dispatcher) route(ctx context.Context, conn net.Conn, raw string, rl wire.RequestLine) Outcome {
	if d.statics.Serve && d.serveStatic(ctx, conn, rl.Path) {
		return OutcomeStatic
	}

	if rl.Method == route.MethodUnrecognized {
		d.serveFile(ctx, conn, d.statics.NotFound)
		return OutcomeNotFound
	}

	resolved := d.tree.Resolve(rl.Path, rl.Method)
	switch target := resolved.Target.(type) {
	case route.StaticFile:
		d.serveFile(ctx, conn, target.Path)
		return OutcomeFile
	case route.HandlerTarget:
		target.Handler.Handle(ctx, conn, raw, resolved.Params)
		return OutcomeHandler
	default:
		d.serveFile(ctx, conn, d.statics.NotFound)
		return OutcomeNotFound
	}
}

// serveStatic serves p when it names a regular file in the store. It returns
// false, having written nothing, when it does not.
func (d *Dispatcher) serveStatic(ctx context.Context, conn net.Conn, p string) bool {
	exists, err := d.statics.Store.ContentExists(ctx, p)
	if err != nil {
		logger.Debug("HTTP static lookup %q: %v", p, err)
		return false
	}
	if !exists {
		return false
	}

	d.serveFile(ctx, conn, p)
	return true
}

// serveFile responds 200 with the content of p. When p cannot be read the
// body is the text `File not found: "<p>"`, still with status 200.
func (d *Dispatcher) serveFile(ctx context.Context, conn net.Conn, p string) {
	data, err := content.ReadAll(ctx, d.statics.Store, p, 0)
	if err != nil {
		if !errors.Is(err, content.ErrContentNotFound) {
			logger.Warn("HTTP read static file %q from %s store: %v", p, d.statics.Store.Name(), err)
		}
		body := fmt.Sprintf("File not found: %q", p)
		if err := wire.WriteText(conn, wire.StatusOK, body); err != nil {
			logger.Debug("HTTP write to %s: %v", remoteAddr(conn), err)
		}
		return
	}

	ct := wire.GuessContentType(p)
	if d.statics.Sniff {
		ct = wire.SniffContentType(ct, data)
	}
	if err := wire.WriteContent(conn, wire.StatusOK, ct, data); err != nil {
		logger.Debug("HTTP write to %s: %v", remoteAddr(conn), err)
	}
}

// finish records the outcome in logs, metrics and the span.
func (d *Dispatcher) finish(span trace.Span, requestID, method, path string, outcome Outcome, start time.Time) {
	duration := time.Since(start)

	span.SetAttributes(attribute.String("dittoweb.outcome", string(outcome)))
	if outcome == OutcomeMalformed {
		span.SetStatus(codes.Error, "malformed request line")
	} else {
		span.SetStatus(codes.Ok, "")
	}

	if method == "" {
		method = route.MethodUnrecognized.String()
	}
	d.metrics.RecordRequest(method, string(outcome), duration)

	if d.logStatus {
		logger.Info("%s %s -> %s (%v) id=%s", method, path, outcome, duration, requestID)
	} else {
		logger.Debug("%s %s -> %s (%v) id=%s", method, path, outcome, duration, requestID)
	}
}

func remoteAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return "unknown"
}
