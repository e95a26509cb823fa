// Package workerpool provides a fixed-size pool of persistent workers fed by a
// shared FIFO queue.
//
// Each submitted WorkItem runs to completion on whichever worker dequeues it
// first. A panic inside an item is recovered at the item boundary and reported
// through the configured PanicHandler; the worker then continues with the next
// item, so faults never shrink the pool.
//
// The queue is unbounded by default: Submit never blocks and never fails while
// the pool is open. WithQueueSize bounds it, and WithSaturationPolicy selects
// what happens when the bound is reached.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/dittoweb/pkg/metrics"
	"github.com/sourcegraph/conc/panics"
)

var (
	// ErrPoolClosed is returned by Submit after Close has been called.
	ErrPoolClosed = errors.New("worker pool closed")

	// ErrQueueFull is returned by Submit when a bounded queue is full and the
	// saturation policy is Reject.
	ErrQueueFull = errors.New("worker pool queue full")
)

// WorkItem is a one-shot unit of work. Ownership passes to the pool on submit.
type WorkItem func()

// PanicHandler receives the value and stack of a panic recovered from a work item.
type PanicHandler func(value any, stack []byte)

// SaturationPolicy decides what Submit does when a bounded queue is full.
type SaturationPolicy int

const (
	// Reject fails the submission with ErrQueueFull.
	Reject SaturationPolicy = iota

	// Block waits until a queued item is picked up by a worker.
	Block

	// Grow accepts the item beyond the bound. The bound then only serves as
	// an overflow threshold reported through metrics and Stats.
	Grow
)

func (p SaturationPolicy) String() string {
	switch p {
	case Reject:
		return "reject"
	case Block:
		return "block"
	case Grow:
		return "grow"
	default:
		return "unknown"
	}
}

// ParseSaturationPolicy maps "reject", "block" or "grow" (any case) to a policy.
func ParseSaturationPolicy(s string) (SaturationPolicy, error) {
	switch strings.ToLower(s) {
	case "reject":
		return Reject, nil
	case "block":
		return Block, nil
	case "grow":
		return Grow, nil
	default:
		return Reject, fmt.Errorf("unknown saturation policy %q (supported: reject, block, grow)", s)
	}
}

// Option configures a Pool.
type Option func(*Pool)

// WithQueueSize bounds the queue to size items. Zero keeps it unbounded.
func WithQueueSize(size int) Option {
	return func(p *Pool) {
		p.capacity = size
	}
}

// WithSaturationPolicy selects the behavior of a full bounded queue.
func WithSaturationPolicy(policy SaturationPolicy) Option {
	return func(p *Pool) {
		p.policy = policy
	}
}

// WithPanicHandler installs the callback invoked for recovered panics.
func WithPanicHandler(h PanicHandler) Option {
	return func(p *Pool) {
		p.onPanic = h
	}
}

// WithMetrics installs a metrics collector. nil keeps the no-op collector.
func WithMetrics(m metrics.PoolMetrics) Option {
	return func(p *Pool) {
		if m != nil {
			p.metrics = m
		}
	}
}

// Stats is a point-in-time snapshot of pool counters.
type Stats struct {
	Workers   int
	Queued    int
	Running   int
	Submitted uint64
	Completed uint64
	Panicked  uint64
	Rejected  uint64
	Overflow  uint64
}

// entry is a queued item. slot is set when the item holds a bounded-queue slot.
type entry struct {
	item WorkItem
	slot bool
}

// Pool runs WorkItems on a fixed set of goroutines.
//
// Thread safety:
// All methods are safe for concurrent use. The queue is the only shared
// mutable structure and is guarded by mu.
type Pool struct {
	workers  int
	capacity int
	policy   SaturationPolicy
	onPanic  PanicHandler
	metrics  metrics.PoolMetrics

	mu       sync.Mutex
	notEmpty *sync.Cond
	queue    []entry
	closed   bool

	// slots limits queued items when capacity > 0. A token is taken on submit
	// and returned when a worker dequeues the item.
	slots chan struct{}

	// done is closed by Close to release submitters blocked on slots.
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	running   atomic.Int32
	submitted atomic.Uint64
	completed atomic.Uint64
	panicked  atomic.Uint64
	rejected  atomic.Uint64
	overflow  atomic.Uint64
}

// New starts a pool with the given number of workers.
//
// Panics if workers <= 0 or the queue size is negative (programmer error).
func New(workers int, opts ...Option) *Pool {
	if workers <= 0 {
		panic(fmt.Sprintf("worker pool size must be > 0, got %d", workers))
	}

	p := &Pool{
		workers: workers,
		metrics: metrics.NewNoopPoolMetrics(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.capacity < 0 {
		panic(fmt.Sprintf("worker pool queue size must be >= 0, got %d", p.capacity))
	}
	if p.capacity > 0 {
		p.slots = make(chan struct{}, p.capacity)
	}
	p.notEmpty = sync.NewCond(&p.mu)

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}

	return p
}

// Submit enqueues item and returns without waiting for it to run.
//
// With an unbounded queue Submit only fails after Close. With a bounded queue
// the saturation policy applies: Reject returns ErrQueueFull, Block waits for
// space, Grow always accepts.
func (p *Pool) Submit(item WorkItem) error {
	return p.SubmitContext(context.Background(), item)
}

// SubmitContext is Submit with a context bounding the wait of the Block policy.
func (p *Pool) SubmitContext(ctx context.Context, item WorkItem) error {
	if item == nil {
		return errors.New("nil work item")
	}

	slot := false
	if p.slots != nil {
		acquired, err := p.acquireSlot(ctx)
		if err != nil {
			return err
		}
		slot = acquired
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		if slot {
			<-p.slots
		}
		return ErrPoolClosed
	}
	p.queue = append(p.queue, entry{item: item, slot: slot})
	depth := len(p.queue)
	p.notEmpty.Signal()
	p.mu.Unlock()

	p.submitted.Add(1)
	if p.slots != nil && !slot {
		p.overflow.Add(1)
	}
	p.metrics.RecordSubmitted(p.slots != nil && !slot)
	p.metrics.SetQueueDepth(depth)
	return nil
}

// acquireSlot takes a bounded-queue token according to the policy.
// It returns false without error when Grow admits an overflow item.
func (p *Pool) acquireSlot(ctx context.Context) (bool, error) {
	select {
	case <-p.done:
		return false, ErrPoolClosed
	default:
	}

	select {
	case p.slots <- struct{}{}:
		return true, nil
	default:
	}

	switch p.policy {
	case Block:
		select {
		case p.slots <- struct{}{}:
			return true, nil
		case <-p.done:
			return false, ErrPoolClosed
		case <-ctx.Done():
			return false, ctx.Err()
		}
	case Grow:
		return false, nil
	default:
		p.rejected.Add(1)
		p.metrics.RecordRejected()
		return false, ErrQueueFull
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		e, ok := p.next()
		if !ok {
			return
		}
		if e.slot {
			<-p.slots
		}
		p.run(e.item)
	}
}

// next blocks until an item is available. It returns false once the pool is
// closed and the queue has drained.
func (p *Pool) next() (entry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) == 0 && !p.closed {
		p.notEmpty.Wait()
	}
	if len(p.queue) == 0 {
		return entry{}, false
	}

	e := p.queue[0]
	p.queue[0] = entry{}
	p.queue = p.queue[1:]
	p.metrics.SetQueueDepth(len(p.queue))
	return e, true
}

// run executes one item, recovering any panic at the item boundary.
func (p *Pool) run(item WorkItem) {
	busy := p.running.Add(1)
	p.metrics.SetBusyWorkers(int(busy))
	start := time.Now()

	recovered := panics.Try(item)

	busy = p.running.Add(-1)
	p.metrics.SetBusyWorkers(int(busy))
	p.completed.Add(1)

	if recovered != nil {
		p.panicked.Add(1)
		if p.onPanic != nil {
			p.onPanic(recovered.Value, recovered.Stack)
		}
	}
	p.metrics.RecordCompleted(time.Since(start), recovered != nil)
}

// Close stops accepting work, lets the workers drain the queue and waits for
// them to exit. Safe to call more than once.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.notEmpty.Broadcast()
		p.mu.Unlock()
		close(p.done)
	})
	p.wg.Wait()
}

// Workers returns the number of workers.
func (p *Pool) Workers() int {
	return p.workers
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	queued := len(p.queue)
	p.mu.Unlock()

	return Stats{
		Workers:   p.workers,
		Queued:    queued,
		Running:   int(p.running.Load()),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Panicked:  p.panicked.Load(),
		Rejected:  p.rejected.Load(),
		Overflow:  p.overflow.Load(),
	}
}
