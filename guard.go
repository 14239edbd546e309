package ebr

// Guard is the token of one pin. While any guard is held, no garbage unit
// queued after its pin can be destroyed, so references read from an
// epoch-protected structure stay valid until Unpin.
//
// A Guard is a plain value, owned by the goroutine that pinned. Unpin must
// be called exactly once; the zero Guard is not pinned and has no use.
//
// Example:
//
//	g := h.Pin()
//	n := list.head.Load()    // protected traversal
//	if list.remove(n) {
//		g.Defer(n.release)   // runs once no reader can still see n
//	}
//	g.Unpin()
type Guard struct {
	local  *participant
	pooled *Handle
}

// Defer queues fn to run after every participant pinned right now has
// unpinned or repinned. The collector runs fn exactly once, on the driver
// goroutine; fn must not itself pin this collector or queue further
// garbage.
//
// panic if the guard is no longer pinned or fn is nil.
func (g *Guard) Defer(fn func()) {
	p := g.local
	if p == nil {
		panic("ebr: Defer on an unpinned guard")
	}
	if fn == nil {
		panic("ebr: nil deferred call")
	}
	p.owner.queue.Push(fn)
}

// Unpin releases the pin. On the outermost unpin the participant's
// snapshot reverts to the sentinel and epoch waits stop considering it.
func (g *Guard) Unpin() {
	p := g.local
	if p == nil {
		panic("ebr: guard already unpinned")
	}
	g.local = nil
	outermost := p.unpin()
	if h := g.pooled; h != nil {
		g.pooled = nil
		if outermost {
			handlePool.Put(h)
		}
	}
}

// Repin refreshes the snapshot to the current clock value, letting
// reclamation advance past everything this pin was protecting. It only
// takes effect when no other pin is nested on the participant; references
// read before Repin must not be used after it.
func (g *Guard) Repin() {
	p := g.local
	if p == nil {
		panic("ebr: Repin on an unpinned guard")
	}
	if p.depth == 1 {
		p.unpin()
		p.pin()
	}
}
