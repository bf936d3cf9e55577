package reactive

// A Dependency is the subscription ledger of one reactive value. Reads call
// Depend, writes call Changed.
type Dependency struct {
	rt *Runtime
	// nil once the dependency has been removed
	subs *subscriberSet
}

func NewDependency(rt *Runtime) *Dependency {
	return &Dependency{
		rt:   rt,
		subs: newSubscriberSet(),
	}
}

// Depend subscribes the active computation, if any. The subscription is
// dropped again as soon as that computation is invalidated, so re-runs never
// pile up stale entries.
func (d *Dependency) Depend() {
	if d.subs == nil {
		return
	}
	c := d.rt.current
	if c == nil || !c.tracking() {
		return
	}

	subs := d.subs
	if !subs.add(c) {
		return
	}
	c.OnInvalidate(func() {
		// a set swapped out by Changed is garbage already
		if d.subs == subs {
			subs.remove(c)
		}
	})
}

// Changed invalidates every current subscriber. The live set is swapped for a
// fresh one first, so a subscriber that subscribes again while this runs is
// not notified twice for the same change.
func (d *Dependency) Changed() {
	if d.subs == nil {
		return
	}
	subs := d.subs
	d.subs = newSubscriberSet()

	for _, c := range subs.snapshot() {
		c.Invalidate()
	}
}

// Remove notifies the subscribers one last time and detaches the dependency
// for good: later Depend calls are no-ops.
func (d *Dependency) Remove() {
	d.Changed()
	d.subs = nil
}

func (d *Dependency) Removed() bool {
	return d.subs == nil
}

// Len is the number of subscribed computations.
func (d *Dependency) Len() int {
	if d.subs == nil {
		return 0
	}
	return d.subs.len()
}

// Has reports whether c is subscribed.
func (d *Dependency) Has(c *Computation) bool {
	if d.subs == nil {
		return false
	}
	return d.subs.contains(c)
}
