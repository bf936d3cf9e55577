package reactive

import (
	"sync"

	"github.com/petermattis/goid"
)

var runtimes sync.Map

// Default returns the runtime bound to the calling goroutine, creating one
// without a host on first use. Computations never cross goroutines, so each
// goroutine gets its own active slot and flush queue.
func Default() *Runtime {
	gid := goid.Get()
	if rt, ok := runtimes.Load(gid); ok {
		return rt.(*Runtime)
	}

	rt := New()
	runtimes.Store(gid, rt)
	return rt
}

// SetDefault binds rt to the calling goroutine.
func SetDefault(rt *Runtime) {
	runtimes.Store(goid.Get(), rt)
}

// Release forgets the runtime bound to the calling goroutine.
func Release() {
	runtimes.Delete(goid.Get())
}
