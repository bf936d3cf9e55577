package reactive

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlush(t *testing.T) {
	t.Run("runs in enqueue order", func(t *testing.T) {
		rt := New()
		deps := map[string]*Dependency{}
		order := []string{}

		for _, name := range []string{"1", "2", "3"} {
			dep := NewDependency(rt)
			deps[name] = dep
			_, err := WatchNamed(rt, name, func() error {
				dep.Depend()
				order = append(order, name)
				return nil
			})
			require.NoError(t, err)
		}
		order = order[:0]

		deps["3"].Changed()
		deps["1"].Changed()
		deps["2"].Changed()
		require.NoError(t, rt.Flush())
		assert.Equal(t, []string{"3", "1", "2"}, order)
	})

	/*
	   d1
	   |
	   c1 -> writes d2
	          |
	          c2
	*/
	t.Run("invalidations during a pass wait for the next pass", func(t *testing.T) {
		rt := New()
		d1 := NewDependency(rt)
		d2 := NewDependency(rt)

		c2, err := Watch(rt, func() error {
			d2.Depend()
			return nil
		})
		require.NoError(t, err)

		c1Runs := 0
		_, err = Watch(rt, func() error {
			c1Runs++
			d1.Depend()
			if c1Runs > 1 {
				d2.Changed()
			}
			return nil
		})
		require.NoError(t, err)

		d1.Changed()
		require.NoError(t, rt.Flush())
		assert.Equal(t, 2, c1Runs)
		assert.Equal(t, 1, c2.Runs())
		assert.True(t, c2.Invalidated())
		assert.Equal(t, 1, rt.Pending())

		require.NoError(t, rt.Flush())
		assert.Equal(t, 2, c2.Runs())
		assert.Equal(t, 0, rt.Pending())
	})

	t.Run("re-entering flush panics", func(t *testing.T) {
		rt := New()
		d := NewDependency(rt)
		runs := 0

		c, err := Watch(rt, func() error {
			runs++
			d.Depend()
			if runs > 1 {
				rt.Flush()
			}
			return nil
		})
		require.NoError(t, err)

		d.Changed()
		assert.PanicsWithValue(t, ErrFlushReentered, func() {
			rt.Flush()
		})
		assert.False(t, rt.Flushing())
		assert.False(t, c.Running())
		assert.Nil(t, rt.Current())
	})

	t.Run("stops at the first failure and keeps the rest queued", func(t *testing.T) {
		rt := New()
		d1 := NewDependency(rt)
		d2 := NewDependency(rt)
		boom := errors.New("boom")
		fail := false

		_, err := WatchNamed(rt, "failing", func() error {
			d1.Depend()
			if fail {
				return boom
			}
			return nil
		})
		require.NoError(t, err)
		c2, err := Watch(rt, func() error {
			d2.Depend()
			return nil
		})
		require.NoError(t, err)

		fail = true
		d1.Changed()
		d2.Changed()

		err = rt.Flush()
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "failing")
		assert.Equal(t, 1, rt.Pending())
		assert.True(t, c2.Invalidated())
		assert.Equal(t, 1, rt.Stats().Failures)

		fail = false
		require.NoError(t, rt.Flush())
		assert.Equal(t, 2, c2.Runs())
	})

	t.Run("error handler isolates failures", func(t *testing.T) {
		boom := errors.New("boom")
		var failed []string
		var logs bytes.Buffer
		rt := New(
			WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
			WithErrorHandler(func(c *Computation, err error) {
				assert.ErrorIs(t, err, boom)
				failed = append(failed, c.Name())
			}),
		)
		d := NewDependency(rt)
		fail := false

		_, err := WatchNamed(rt, "failing", func() error {
			d.Depend()
			if fail {
				return boom
			}
			return nil
		})
		require.NoError(t, err)
		ok, err := Watch(rt, func() error {
			d.Depend()
			return nil
		})
		require.NoError(t, err)

		fail = true
		d.Changed()
		require.NoError(t, rt.Flush())
		assert.Equal(t, []string{"failing"}, failed)
		assert.Equal(t, 2, ok.Runs())
		assert.Contains(t, logs.String(), "computation failed")
	})

	t.Run("panics keep the rest queued", func(t *testing.T) {
		rt := New()
		d1 := NewDependency(rt)
		d2 := NewDependency(rt)
		explode := false

		_, err := Watch(rt, func() error {
			d1.Depend()
			if explode {
				panic("boom")
			}
			return nil
		})
		require.NoError(t, err)
		c2, err := Watch(rt, func() error {
			d2.Depend()
			return nil
		})
		require.NoError(t, err)

		explode = true
		d1.Changed()
		d2.Changed()
		assert.Panics(t, func() { rt.Flush() })
		assert.False(t, rt.Flushing())
		assert.Equal(t, 1, rt.Pending())

		require.NoError(t, rt.Flush())
		assert.Equal(t, 2, c2.Runs())
	})

	t.Run("stats", func(t *testing.T) {
		rt := New()
		d := NewDependency(rt)
		_, err := Watch(rt, func() error {
			d.Depend()
			return nil
		})
		require.NoError(t, err)

		d.Changed()
		require.NoError(t, rt.Flush())
		assert.Equal(t, Stats{Flushes: 1, Runs: 2, Invalidations: 1}, rt.Stats())
	})
}

func TestHost(t *testing.T) {
	t.Run("one deferred flush per turn", func(t *testing.T) {
		host := NewManualHost()
		rt := New(WithHost(host))
		a := NewDependency(rt)
		b := NewDependency(rt)
		runs := 0

		_, err := Watch(rt, func() error {
			runs++
			a.Depend()
			b.Depend()
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 0, host.Pending())

		a.Changed()
		b.Changed()
		rt.QueueFlush()
		assert.Equal(t, 1, host.Pending())
		assert.Equal(t, 1, runs)

		assert.Equal(t, 1, host.Pump())
		assert.Equal(t, 2, runs)
		assert.Equal(t, 0, host.Pending())
		assert.Equal(t, 0, rt.Pending())
	})

	t.Run("batch defers the tick", func(t *testing.T) {
		host := NewManualHost()
		rt := New(WithHost(host))
		d := NewDependency(rt)
		_, err := Watch(rt, func() error {
			d.Depend()
			return nil
		})
		require.NoError(t, err)

		rt.Batch(func() {
			rt.Batch(func() {
				d.Changed()
			})
			assert.Equal(t, 0, host.Pending())
		})
		assert.Equal(t, 1, host.Pending())
		assert.Equal(t, 1, rt.Pending())
	})

	t.Run("leftover work asks for another tick", func(t *testing.T) {
		host := NewManualHost()
		rt := New(WithHost(host))
		d1 := NewDependency(rt)
		d2 := NewDependency(rt)

		c2, err := Watch(rt, func() error {
			d2.Depend()
			return nil
		})
		require.NoError(t, err)
		runs := 0
		_, err = Watch(rt, func() error {
			runs++
			d1.Depend()
			if runs > 1 {
				d2.Changed()
			}
			return nil
		})
		require.NoError(t, err)

		d1.Changed()
		host.Pump()
		assert.Equal(t, 1, c2.Runs())
		assert.Equal(t, 1, host.Pending())

		host.Pump()
		assert.Equal(t, 2, c2.Runs())
		assert.Equal(t, 0, host.Pending())
	})

	t.Run("synchronous hosts do not re-enter", func(t *testing.T) {
		rt := New(WithHost(HostFunc(func(fn func()) { fn() })))
		d1 := NewDependency(rt)
		d2 := NewDependency(rt)

		c2, err := Watch(rt, func() error {
			d2.Depend()
			return nil
		})
		require.NoError(t, err)
		runs := 0
		_, err = Watch(rt, func() error {
			runs++
			d1.Depend()
			if runs > 1 {
				d2.Changed()
			}
			return nil
		})
		require.NoError(t, err)

		d1.Changed()
		assert.Equal(t, 2, runs)
		assert.Equal(t, 2, c2.Runs())
		assert.Equal(t, 0, rt.Pending())
	})

	t.Run("without a host nothing is scheduled", func(t *testing.T) {
		rt := New()
		d := NewDependency(rt)
		_, err := Watch(rt, func() error {
			d.Depend()
			return nil
		})
		require.NoError(t, err)

		d.Changed()
		rt.QueueFlush()
		assert.Equal(t, 1, rt.Pending())
	})
}

func TestRunWithoutTracking(t *testing.T) {
	rt := New()
	d := NewDependency(rt)

	c, err := Watch(rt, func() error {
		v := Untracked(rt, func() int {
			assert.Nil(t, rt.Current())
			d.Depend()
			return 42
		})
		assert.Equal(t, 42, v)
		assert.NotNil(t, rt.Current())
		return nil
	})
	require.NoError(t, err)
	assert.False(t, d.Has(c))
	assert.Equal(t, 0, d.Len())
}
