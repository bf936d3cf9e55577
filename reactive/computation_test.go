package reactive

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputation(t *testing.T) {
	t.Run("fresh computations have not run", func(t *testing.T) {
		rt := New()
		runs := 0
		c := NewComputation(rt, func() error {
			runs++
			return nil
		})

		assert.Equal(t, 0, runs)
		assert.Equal(t, 0, c.Runs())
		assert.False(t, c.Invalidated())
		assert.False(t, c.Stopped())

		require.NoError(t, c.Compute())
		assert.Equal(t, 1, runs)
		assert.Equal(t, 1, c.Runs())
	})

	t.Run("run in restores the previous computation", func(t *testing.T) {
		rt := New()
		outer := NewComputation(rt, nil)
		inner := NewComputation(rt, nil)

		assert.Nil(t, rt.Current())
		err := outer.RunIn(func() error {
			assert.Same(t, outer, rt.Current())
			require.NoError(t, inner.RunIn(func() error {
				assert.Same(t, inner, rt.Current())
				return nil
			}))
			assert.Same(t, outer, rt.Current())
			return nil
		})
		require.NoError(t, err)
		assert.Nil(t, rt.Current())
	})

	t.Run("invalidation is idempotent", func(t *testing.T) {
		rt := New()
		c, err := Watch(rt, func() error { return nil })
		require.NoError(t, err)

		fired := 0
		c.OnInvalidate(func() { fired++ })

		c.Invalidate()
		c.Invalidate()
		assert.Equal(t, 1, rt.Pending())
		assert.Equal(t, 1, fired)
		assert.Equal(t, 1, rt.Stats().Invalidations)
	})

	t.Run("callbacks fire once per invalidation", func(t *testing.T) {
		rt := New()
		c, err := Watch(rt, func() error { return nil })
		require.NoError(t, err)

		fired := 0
		c.OnInvalidate(func() { fired++ })
		c.Invalidate()
		require.NoError(t, rt.Flush())

		c.Invalidate()
		assert.Equal(t, 1, fired)
	})

	t.Run("on invalidate fires right away when already invalidated", func(t *testing.T) {
		rt := New()
		d := NewDependency(rt)
		c, err := Watch(rt, func() error { return nil })
		require.NoError(t, err)
		c.Invalidate()

		fired := false
		var during *Computation
		require.NoError(t, c.RunIn(func() error {
			c.OnInvalidate(func() {
				fired = true
				during = rt.Current()
				d.Depend()
			})
			return nil
		}))

		assert.True(t, fired)
		assert.Nil(t, during)
		assert.Equal(t, 0, d.Len())
	})

	t.Run("closure errors propagate unchanged", func(t *testing.T) {
		rt := New()
		boom := errors.New("boom")
		c := NewComputation(rt, func() error { return boom })

		err := c.Compute()
		assert.Same(t, boom, err)
		assert.False(t, c.Running())
		assert.Nil(t, rt.Current())
	})

	t.Run("closure panics leave bookkeeping intact", func(t *testing.T) {
		rt := New()
		c := NewComputation(rt, func() error { panic("boom") })

		assert.PanicsWithValue(t, "boom", func() {
			c.Compute()
		})
		assert.False(t, c.Running())
		assert.Nil(t, rt.Current())
	})

	t.Run("invalidated while running re-runs on the next pass", func(t *testing.T) {
		rt := New()
		d := NewDependency(rt)
		runs := 0

		c, err := Watch(rt, func() error {
			runs++
			d.Depend()
			if runs == 1 {
				d.Changed()
			}
			return nil
		})
		require.NoError(t, err)
		assert.True(t, c.Invalidated())
		assert.Equal(t, 1, rt.Pending())
		assert.False(t, d.Has(c))

		require.NoError(t, rt.Flush())
		assert.Equal(t, 2, runs)
		assert.True(t, d.Has(c))
		assert.Equal(t, 0, rt.Pending())
	})

	t.Run("stop is terminal", func(t *testing.T) {
		rt := New()
		d := NewDependency(rt)
		runs := 0

		c, err := Watch(rt, func() error {
			runs++
			d.Depend()
			return nil
		})
		require.NoError(t, err)

		fired := 0
		c.OnInvalidate(func() { fired++ })

		c.Stop()
		c.Stop()
		assert.True(t, c.Stopped())
		assert.Equal(t, 1, fired)
		assert.Equal(t, 0, d.Len())
		assert.Equal(t, 0, rt.Pending())

		d.Changed()
		c.Invalidate()
		require.NoError(t, rt.Flush())
		require.NoError(t, c.Compute())
		assert.Equal(t, 1, runs)
	})

	t.Run("stop while queued", func(t *testing.T) {
		rt := New()
		d := NewDependency(rt)
		runs := 0

		c, err := Watch(rt, func() error {
			runs++
			d.Depend()
			return nil
		})
		require.NoError(t, err)

		d.Changed()
		c.Stop()
		require.NoError(t, rt.Flush())
		assert.Equal(t, 1, runs)
		assert.Equal(t, 0, d.Len())
	})

	t.Run("stop from inside its own run", func(t *testing.T) {
		rt := New()
		d := NewDependency(rt)
		var c *Computation
		c = NewComputation(rt, func() error {
			d.Depend()
			c.Stop()
			d.Depend()
			return nil
		})

		require.NoError(t, c.Compute())
		assert.True(t, c.Stopped())
		assert.Equal(t, 0, d.Len())
		assert.Equal(t, 0, rt.Pending())
	})

	t.Run("on invalidate after stop fires right away", func(t *testing.T) {
		rt := New()
		c, err := Watch(rt, func() error { return nil })
		require.NoError(t, err)
		c.Stop()

		fired := false
		c.OnInvalidate(func() { fired = true })
		assert.True(t, fired)
	})

	t.Run("names", func(t *testing.T) {
		rt := New()
		c := NewComputation(rt, nil)
		assert.Equal(t, c.ID().String(), c.Name())

		c.Named("header")
		assert.Equal(t, "header", c.Name())
		assert.Equal(t, "header", c.String())
	})
}
