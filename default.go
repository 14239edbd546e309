package ebr

import (
	"runtime"
	"sync"
)

var (
	defaultOnce      sync.Once
	defaultCollector Collector
)

// Default returns the process-wide collector, starting it on first use.
// Everything that does not manage its own collector shares this one. Its
// driver runs for the life of the process; Default().Close() exists but is
// almost never wanted.
func Default() Collector {
	defaultOnce.Do(func() {
		defaultCollector = NewCollector()
	})
	return defaultCollector
}

// handlePool recycles participants of the default collector. Go has no
// goroutine-local storage, so the package-level Pin draws a handle from a
// pool instead of keying one per goroutine; a pooled handle is pinned by
// at most one goroutine at a time, which is all the registry asks.
// Handles are registered lazily in Pin rather than by a New hook: a hook
// here would reference Default and form an initialization cycle, since
// the driver it starts unpins guards back into this pool.
var handlePool sync.Pool

// Pin enters a read-side critical section on the default collector:
//
//	g := ebr.Pin()
//	// ... lock-free reads ...
//	g.Unpin()
//
// Nested Pin calls draw distinct participants rather than nesting one,
// which is harmless: each snapshot holds back reclamation on its own.
// Hot paths that pin in tight loops can register their own Handle and
// skip the pool.
func Pin() Guard {
	h, _ := handlePool.Get().(*Handle)
	if h == nil {
		h = Default().Register()
		// The pool sheds cached handles under GC pressure without
		// closing them. Retire the participant once its stranded
		// handle is collected, or the registry grows with every
		// eviction; the default collector never shuts down, so the
		// late retirement always has a live queue to go through.
		runtime.AddCleanup(h, func(p *participant) { p.close() }, h.local)
	}
	h.local.pin()
	return Guard{local: h.local, pooled: h}
}
