package metrics

import "time"

// PoolMetrics provides observability for the worker pool.
//
// The pool calls these from its submit path and from worker goroutines, so
// implementations must be safe for concurrent use.
type PoolMetrics interface {
	// RecordSubmitted counts an accepted work item.
	// overflow is true when a bounded queue accepted the item past its capacity.
	RecordSubmitted(overflow bool)

	// RecordRejected counts a work item refused because the queue was full.
	RecordRejected()

	// RecordCompleted records a work item that ran to completion or panicked.
	RecordCompleted(duration time.Duration, panicked bool)

	// SetQueueDepth updates the number of items waiting for a worker.
	SetQueueDepth(depth int)

	// SetBusyWorkers updates the number of workers currently executing an item.
	SetBusyWorkers(busy int)
}

// NewNoopPoolMetrics returns a PoolMetrics that discards everything.
func NewNoopPoolMetrics() PoolMetrics {
	return noopPoolMetrics{}
}

type noopPoolMetrics struct{}

func (noopPoolMetrics) RecordSubmitted(overflow bool)                         {}
func (noopPoolMetrics) RecordRejected()                                       {}
func (noopPoolMetrics) RecordCompleted(duration time.Duration, panicked bool) {}
func (noopPoolMetrics) SetQueueDepth(depth int)                               {}
func (noopPoolMetrics) SetBusyWorkers(busy int)                               {}
