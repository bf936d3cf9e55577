package reactive

import "github.com/oklog/ulid/v2"

// A Computation is a closure that can be re-executed. Every reactive read
// made while it runs subscribes it; the first change to any of those values
// invalidates it and queues it for the next flush.
type Computation struct {
	rt   *Runtime
	id   ulid.ULID
	name string

	// Function to re-execute
	fn func() error

	invalidated bool
	stopped     bool
	// Set while fn executes, an invalidation in that window doesn't queue us right away
	running bool
	runs    int

	// One-shot callbacks for the next invalidation, cleared as they fire
	invalidations []func()
}

// NewComputation creates a computation that has not run yet. Call Compute to
// run it for the first time, or use Watch.
func NewComputation(rt *Runtime, fn func() error) *Computation {
	return &Computation{
		rt: rt,
		id: ulid.Make(),
		fn: fn,
	}
}

// Named attaches a human readable name used in logs, errors and reports.
func (c *Computation) Named(name string) *Computation {
	c.name = name
	return c
}

func (c *Computation) ID() ulid.ULID {
	return c.id
}

// Name returns the name given with Named, or the id.
func (c *Computation) Name() string {
	if c.name != "" {
		return c.name
	}
	return c.id.String()
}

func (c *Computation) String() string {
	return c.Name()
}

func (c *Computation) Invalidated() bool { return c.invalidated }
func (c *Computation) Stopped() bool     { return c.stopped }
func (c *Computation) Running() bool     { return c.running }

// Runs counts how many times the closure has been executed.
func (c *Computation) Runs() int { return c.runs }

// RunIn makes c the active computation for the duration of fn and restores
// whatever was active before, nil included. Use it to resubscribe after
// asynchronous work resumed outside the original run.
func (c *Computation) RunIn(fn func() error) error {
	prev := c.rt.current
	c.rt.current = c
	defer func() { c.rt.current = prev }()

	return fn()
}

// Invalidate marks c as stale, queues it for the next flush and fires its
// invalidation callbacks. Calling it again before c re-runs does nothing.
func (c *Computation) Invalidate() {
	if c.invalidated || c.stopped {
		return
	}
	c.invalidate()
}

func (c *Computation) invalidate() {
	c.invalidated = true
	c.rt.stats.Invalidations++

	// Callbacks drop the subscriptions of the last run, they must be gone
	// before a host that flushes synchronously gets to re-run us.
	callbacks := c.invalidations
	c.invalidations = nil
	if len(callbacks) > 0 {
		c.rt.RunWithoutTracking(func() {
			for _, cb := range callbacks {
				cb()
			}
		})
	}

	if !c.stopped && !c.running {
		c.rt.enqueue(c)
	}
}

// Compute runs the closure with c active, which is where its subscriptions
// are rebuilt. A stopped computation never runs. If c gets invalidated while
// it is running it is queued once the run is over.
func (c *Computation) Compute() error {
	c.invalidated = false
	if c.stopped {
		return nil
	}

	c.running = true
	c.runs++
	c.rt.stats.Runs++
	defer func() {
		c.running = false
		if c.invalidated && !c.stopped {
			c.rt.enqueue(c)
		}
	}()

	return c.RunIn(c.fn)
}

// OnInvalidate registers cb for the next invalidation. If c is already
// invalidated or stopped cb runs right away, outside of any tracking.
func (c *Computation) OnInvalidate(cb func()) {
	if c.invalidated || c.stopped {
		c.rt.RunWithoutTracking(cb)
		return
	}
	c.invalidations = append(c.invalidations, cb)
}

// Stop drops every subscription of c and guarantees it never runs again.
func (c *Computation) Stop() {
	if c.stopped {
		return
	}
	c.stopped = true
	if !c.invalidated {
		c.invalidate()
	}
}

// tracking reports whether reads should subscribe c.
func (c *Computation) tracking() bool {
	return !c.invalidated && !c.stopped
}
