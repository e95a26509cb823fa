package metrics

import "time"

// HTTPMetrics provides observability for the HTTP adapter.
//
// Implementations collect request outcomes and connection lifecycle. The adapter
// falls back to a no-op implementation when none is provided.
//
// Example usage:
//
//	// With metrics enabled
//	httpMetrics := prometheus.NewHTTPMetrics()
//	adapter := httpadapter.New(config, tree, pool, statics, httpadapter.WithMetrics(httpMetrics))
//
//	// Without metrics (no-op)
//	adapter := httpadapter.New(config, tree, pool, statics)
type HTTPMetrics interface {
	// RecordRequest records a dispatched connection.
	//
	// Parameters:
	//   - method: Request method token as understood by the router (GET, POST, PUT, UNRECOGNIZED)
	//   - outcome: What served the request ("static", "file", "handler", "not_found", "malformed")
	//   - duration: Time from the first read to the end of dispatch
	RecordRequest(method string, outcome string, duration time.Duration)

	// RecordBytesRead records the size of the request read from a connection.
	RecordBytesRead(bytes int)

	// SetActiveConnections updates the current connection count.
	SetActiveConnections(count int32)

	// RecordConnectionAccepted increments the total accepted connections counter.
	RecordConnectionAccepted()

	// RecordConnectionClosed increments the total closed connections counter.
	RecordConnectionClosed()

	// RecordConnectionForceClosed counts connections closed by a shutdown timeout.
	RecordConnectionForceClosed()
}

// NewNoopHTTPMetrics returns an HTTPMetrics that discards everything.
func NewNoopHTTPMetrics() HTTPMetrics {
	return noopHTTPMetrics{}
}

type noopHTTPMetrics struct{}

func (noopHTTPMetrics) RecordRequest(method string, outcome string, duration time.Duration) {}
func (noopHTTPMetrics) RecordBytesRead(bytes int)                                           {}
func (noopHTTPMetrics) SetActiveConnections(count int32)                                    {}
func (noopHTTPMetrics) RecordConnectionAccepted()                                           {}
func (noopHTTPMetrics) RecordConnectionClosed()                                             {}
func (noopHTTPMetrics) RecordConnectionForceClosed()                                        {}
