package reactive

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrFlushReentered is the panic value raised when Flush is called from
// inside a running flush.
var ErrFlushReentered = errors.New("reactive: flush called while flushing")

// Stats are running counters kept by a Runtime.
type Stats struct {
	Flushes       int
	Runs          int
	Invalidations int
	Failures      int
}

// Runtime holds the state every computation, dependency and container of one
// logical thread shares: the active computation, the flush queue and the
// single pending deferred flush.
type Runtime struct {
	// It says what the current computation is, depending on the call stack, if any
	current *Computation
	// Invalidated computations waiting for the next flush, in enqueue order
	queue    []*Computation
	flushing bool
	// A deferred flush has been handed to the host and has not fired yet
	pending bool
	// Each nested batch increases the depth by 1, ticks are only requested at depth 0
	batchDepth int

	host    Host
	logger  *slog.Logger
	onError func(c *Computation, err error)

	stats Stats
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithHost sets the host that runs deferred flushes. Without a host the
// integration has to call Flush itself.
func WithHost(host Host) Option {
	return func(rt *Runtime) {
		rt.host = host
	}
}

// WithLogger sets the logger used for flush diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// WithErrorHandler isolates failing computations during a flush: fn is called
// with each failure and the pass carries on with the next computation.
func WithErrorHandler(fn func(c *Computation, err error)) Option {
	return func(rt *Runtime) {
		rt.onError = fn
	}
}

func New(opts ...Option) *Runtime {
	rt := &Runtime{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Current returns the computation reads are attributed to, or nil.
func (rt *Runtime) Current() *Computation {
	return rt.current
}

// RunWithoutTracking runs fn with no active computation, so reads inside it
// never subscribe anyone.
func (rt *Runtime) RunWithoutTracking(fn func()) {
	prev := rt.current
	rt.current = nil
	defer func() { rt.current = prev }()

	fn()
}

// Untracked is RunWithoutTracking for closures that produce a value.
func Untracked[T any](rt *Runtime, fn func() T) T {
	var v T
	rt.RunWithoutTracking(func() { v = fn() })
	return v
}

// Batch runs fn as one deferred batch: invalidations inside it queue their
// computations but only the outermost batch asks the host for a flush.
func (rt *Runtime) Batch(fn func()) {
	rt.batchDepth++
	defer func() {
		rt.batchDepth--
		if rt.batchDepth == 0 && len(rt.queue) > 0 {
			rt.QueueFlush()
		}
	}()

	fn()
}

// QueueFlush asks the host for a deferred flush. At most one request is
// outstanding at any time.
func (rt *Runtime) QueueFlush() {
	if rt.host == nil || rt.pending {
		return
	}
	rt.pending = true
	rt.host.Schedule(rt.tick)
}

func (rt *Runtime) tick() {
	rt.pending = false
	if rt.flushing {
		// the running pass asks again when it leaves work behind
		return
	}
	if err := rt.Flush(); err != nil {
		rt.logger.Error("deferred flush failed", "err", err)
	}
}

// Flush runs one pass over the computations queued so far, in queue order.
// Computations invalidated during the pass are left for the next one.
//
// Without an error handler the pass stops at the first failing computation;
// the ones it did not get to are put back at the front of the queue and the
// error is returned. Flush panics with ErrFlushReentered when called from
// inside a flush.
func (rt *Runtime) Flush() error {
	if rt.flushing {
		panic(ErrFlushReentered)
	}
	rt.flushing = true
	rt.pending = false
	rt.stats.Flushes++

	computations := rt.queue
	rt.queue = nil
	rt.logger.Debug("flush", "queued", len(computations))

	next := 0
	defer func() {
		rt.flushing = false
		if rest := computations[next:]; len(rest) > 0 {
			rt.queue = append(rest[:len(rest):len(rest)], rt.queue...)
		}
		if len(rt.queue) > 0 && rt.batchDepth == 0 {
			rt.QueueFlush()
		}
	}()

	for next < len(computations) {
		c := computations[next]
		next++
		if err := c.Compute(); err != nil {
			rt.stats.Failures++
			if rt.onError != nil {
				rt.logger.Error("computation failed", "computation", c.Name(), "err", err)
				rt.onError(c, err)
				continue
			}
			return fmt.Errorf("computation %s: %w", c.Name(), err)
		}
	}

	return nil
}

// Pending is the number of queue entries waiting for a flush.
func (rt *Runtime) Pending() int {
	return len(rt.queue)
}

// Flushing reports whether a flush pass is running.
func (rt *Runtime) Flushing() bool {
	return rt.flushing
}

func (rt *Runtime) Stats() Stats {
	return rt.stats
}

func (rt *Runtime) enqueue(c *Computation) {
	rt.queue = append(rt.queue, c)
	if rt.batchDepth == 0 {
		rt.QueueFlush()
	}
}
