package reactive

// Watch creates a computation and runs it once, which establishes its first
// subscriptions. If that first run fails the computation is stopped and the
// error is returned as is.
func Watch(rt *Runtime, fn func() error) (*Computation, error) {
	return watch(NewComputation(rt, fn))
}

// WatchNamed is Watch with a name attached for logs and reports.
func WatchNamed(rt *Runtime, name string, fn func() error) (*Computation, error) {
	return watch(NewComputation(rt, fn).Named(name))
}

func watch(c *Computation) (*Computation, error) {
	if err := c.Compute(); err != nil {
		c.Stop()
		return nil, err
	}
	return c, nil
}

// Bind keeps set fed with the latest result of get. get is tracked, set is
// not, and set only sees values that differ from the last one it received.
func Bind[T comparable](rt *Runtime, get func() (T, error), set func(T)) (*Computation, error) {
	var (
		last      T
		delivered bool
	)
	return Watch(rt, func() error {
		v, err := get()
		if err != nil {
			return err
		}
		if delivered && v == last {
			return nil
		}
		last, delivered = v, true
		rt.RunWithoutTracking(func() { set(v) })
		return nil
	})
}

// WatchUntil re-evaluates cond whenever what it read changes. The first time
// it holds, then runs once and the computation stops itself.
func WatchUntil(rt *Runtime, cond func() (bool, error), then func()) (*Computation, error) {
	var c *Computation
	c = NewComputation(rt, func() error {
		ok, err := cond()
		if err != nil || !ok {
			return err
		}
		c.Stop()
		rt.RunWithoutTracking(then)
		return nil
	})
	return watch(c)
}
