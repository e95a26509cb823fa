package http

import (
	"github.com/marmos91/dittoweb/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type options struct {
	onConnect OnConnectFunc
	metrics   metrics.HTTPMetrics
	tracer    trace.Tracer
	logStatus bool
}

// Option configures the adapter and its dispatcher.
type Option func(*options)

// WithOnConnect installs a hook called with the raw request text of every
// connection before it is dispatched.
func WithOnConnect(fn OnConnectFunc) Option {
	return func(o *options) {
		o.onConnect = fn
	}
}

// WithMetrics installs a metrics collector. nil keeps the no-op collector.
func WithMetrics(m metrics.HTTPMetrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithTracer overrides the tracer taken from the global OpenTelemetry provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithLogStatus logs every request at INFO instead of DEBUG.
func WithLogStatus(enabled bool) Option {
	return func(o *options) {
		o.logStatus = enabled
	}
}

func buildOptions(opts []Option) options {
	o := options{
		metrics: metrics.NewNoopHTTPMetrics(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
