package loop_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodyStringham/volt-blog-sub000/loop"
	"github.com/CodyStringham/volt-blog-sub000/model"
	"github.com/CodyStringham/volt-blog-sub000/reactive"
)

func start(t *testing.T, l *loop.Loop) <-chan error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	return done
}

func TestLoop(t *testing.T) {
	t.Run("tasks run in order", func(t *testing.T) {
		l := loop.New()
		var got []int
		for i := range 5 {
			require.True(t, l.Post(func() { got = append(got, i) }))
		}
		done := start(t, l)

		require.NoError(t, l.Do(context.Background(), func() error { return nil }))
		assert.Equal(t, []int{0, 1, 2, 3, 4}, got)

		l.Close()
		require.NoError(t, <-done)
		assert.False(t, l.Post(func() {}))
		assert.ErrorIs(t, l.Do(context.Background(), func() error { return nil }), loop.ErrClosed)
	})

	t.Run("do returns the task error", func(t *testing.T) {
		l := loop.New()
		start(t, l)
		boom := errors.New("boom")
		assert.Same(t, boom, l.Do(context.Background(), func() error { return boom }))
	})

	t.Run("default runtime inside tasks", func(t *testing.T) {
		l := loop.New()
		start(t, l)

		var inside *reactive.Runtime
		require.NoError(t, l.Do(context.Background(), func() error {
			inside = reactive.Default()
			return nil
		}))
		assert.Same(t, l.Runtime(), inside)
	})

	t.Run("writes flush on the next turn", func(t *testing.T) {
		l := loop.New()
		start(t, l)
		ctx := context.Background()
		rt := l.Runtime()

		var (
			c    *model.Model
			seen []float64
		)
		ran := make(chan struct{}, 8)
		require.NoError(t, l.Do(ctx, func() error {
			c = model.MustNew(rt, map[string]any{"n": 0})
			_, err := reactive.Watch(rt, func() error {
				n, _ := c.Get("n").AsNumber()
				seen = append(seen, n)
				ran <- struct{}{}
				return nil
			})
			return err
		}))
		<-ran

		require.NoError(t, l.Do(ctx, func() error {
			c.Set("n", model.Int(1))
			c.Set("n", model.Int(2))
			c.Set("n", model.Int(3))
			assert.Equal(t, 1, rt.Pending())
			return nil
		}))

		select {
		case <-ran:
		case <-time.After(time.Second):
			t.Fatal("flush never ran")
		}
		require.NoError(t, l.Do(ctx, func() error {
			assert.Equal(t, []float64{0, 3}, seen)
			assert.Equal(t, 1, rt.Stats().Flushes)
			return nil
		}))
	})

	t.Run("cancel", func(t *testing.T) {
		l := loop.New()
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- l.Run(ctx) }()

		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})

	t.Run("single runner", func(t *testing.T) {
		l := loop.New()
		start(t, l)
		require.NoError(t, l.Do(context.Background(), func() error { return nil }))
		assert.ErrorIs(t, l.Run(context.Background()), loop.ErrRunning)
	})
}
