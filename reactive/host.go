package reactive

import "sync"

// Host is the one capability a Runtime needs from its environment: run fn
// later, on the same logical thread, once the current task is done.
type Host interface {
	Schedule(fn func())
}

// HostFunc adapts a function into a Host.
type HostFunc func(func())

// Schedule dispatches fn using the wrapped function.
func (f HostFunc) Schedule(fn func()) {
	if f == nil || fn == nil {
		return
	}
	f(fn)
}

// ManualHost queues scheduled callbacks until Pump is called. It is the
// test harness host: nothing runs behind the caller's back.
type ManualHost struct {
	mu      sync.Mutex
	pending []func()
}

func NewManualHost() *ManualHost {
	return &ManualHost{}
}

// Schedule enqueues fn for the next Pump.
func (h *ManualHost) Schedule(fn func()) {
	if h == nil || fn == nil {
		return
	}
	h.mu.Lock()
	h.pending = append(h.pending, fn)
	h.mu.Unlock()
}

// Pump runs the callbacks queued so far and returns how many ran. Callbacks
// scheduled while pumping wait for the next Pump.
func (h *ManualHost) Pump() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	pending := h.pending
	h.pending = nil
	h.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
	return len(pending)
}

// Pending is the number of callbacks waiting for Pump.
func (h *ManualHost) Pending() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending)
}
