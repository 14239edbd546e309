package ebr

// Collector owns one reclamation domain: a registry of participants, a
// garbage queue and a driver goroutine that advances the epoch clock and
// destroys expired garbage.
//
// A Collector value is a shared reference; copies compare equal and drive
// the same domain. Participants of different collectors never synchronize
// with each other.
//
// Features:
//   - Register participants and pin them for lock-free read sections.
//   - Defer destruction of removed garbage units while pinned.
//   - Deterministic shutdown: Close runs every still-queued deferred call
//     exactly once before returning.
//
// Example:
//
//	c := NewCollector()
//	h := c.Register()
//
//	g := h.Pin()
//	g.Defer(func() { buffers.release(old) })
//	g.Unpin()
//
//	h.Close()
//	c.Close()
type Collector struct {
	global *global
}

// NewCollector starts a reclamation domain with a dedicated driver
// goroutine. Call Close to stop it.
func NewCollector() Collector {
	g := newGlobal()
	go g.run()
	return Collector{global: g}
}

// Register joins a fresh participant to the collector. The returned handle
// must be used by at most one goroutine at a time and closed when its
// reader is done.
func (c Collector) Register() *Handle {
	return c.global.register()
}

// Close shuts the domain down: the driver drains every queued block, runs
// the remaining deferred calls exactly once and exits. Close blocks until
// that has happened and is idempotent.
//
// The caller must make the domain quiescent first: no guard held, no Pin,
// Defer or Register afterwards.
func (c Collector) Close() {
	c.global.close()
}

// Handle is one participant's owner token.
type Handle struct {
	local *participant
}

// Pin marks the start of a read-side critical section and returns its
// guard. Pins nest; the snapshot is taken by the outermost one.
func (h *Handle) Pin() Guard {
	h.local.pin()
	return Guard{local: h.local}
}

// IsPinned reports whether the handle is inside at least one pin.
func (h *Handle) IsPinned() bool {
	return h.local.depth > 0
}

// Collector returns the collector this handle belongs to.
func (h *Handle) Collector() Collector {
	return Collector{global: h.local.owner}
}

// Close retires the participant. Its registry entry is reclaimed through
// the garbage queue like any other unit, so closing is safe while the
// driver is mid epoch wait. Idempotent; the handle must not be pinned and
// is unusable afterwards.
func (h *Handle) Close() {
	if h.local == nil {
		return
	}
	h.local.close()
	h.local = nil
}
