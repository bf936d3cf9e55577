// Package loop is a host event loop for the reactive runtime: a single
// goroutine that runs posted tasks one at a time, deferred flushes included.
package loop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/CodyStringham/volt-blog-sub000/reactive"
)

var (
	ErrClosed  = errors.New("loop: closed")
	ErrRunning = errors.New("loop: already running")
)

type Option func(*Loop)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithRuntimeOptions configures the runtime owned by the loop. The loop
// always installs itself as the runtime's host.
func WithRuntimeOptions(opts ...reactive.Option) Option {
	return func(l *Loop) {
		l.rtOpts = append(l.rtOpts, opts...)
	}
}

type Loop struct {
	mu      sync.Mutex
	pending []func()
	closed  bool
	wake    chan struct{}
	running atomic.Bool

	logger *slog.Logger
	rtOpts []reactive.Option
	rt     *reactive.Runtime
}

func New(opts ...Option) *Loop {
	l := &Loop{
		wake:   make(chan struct{}, 1),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.rt = reactive.New(append(l.rtOpts, reactive.WithHost(l))...)
	return l
}

// Runtime returns the runtime whose flushes run on the loop. Inside tasks it
// is also reactive.Default().
func (l *Loop) Runtime() *reactive.Runtime {
	return l.rt
}

// Post enqueues fn. It reports false once the loop is closed.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Schedule implements reactive.Host.
func (l *Loop) Schedule(fn func()) {
	if !l.Post(fn) {
		l.logger.Warn("dropped scheduled callback", "err", ErrClosed)
	}
}

// Run executes tasks on the calling goroutine until ctx is done or Close is
// called. After Close, tasks already posted still run before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer l.running.Store(false)

	reactive.SetDefault(l.rt)
	defer reactive.Release()

	l.logger.Debug("loop started")
	for {
		l.drain()

		l.mu.Lock()
		closed := l.closed && len(l.pending) == 0
		l.mu.Unlock()
		if closed {
			l.logger.Debug("loop closed")
			return nil
		}

		select {
		case <-ctx.Done():
			l.logger.Debug("loop cancelled", "err", ctx.Err())
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		tasks := l.pending
		l.pending = nil
		l.mu.Unlock()
		if len(tasks) == 0 {
			return
		}
		for _, fn := range tasks {
			fn()
		}
	}
}

// Close stops accepting tasks and lets Run return once the backlog is done.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Do runs fn on the loop and waits for its result.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	if !l.Post(func() { done <- fn() }) {
		return ErrClosed
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
