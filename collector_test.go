package ebr

import (
	"sync/atomic"
	"testing"
)

func TestCollectorIdentity(t *testing.T) {
	c := NewCollector()
	defer c.Close()

	c2 := c
	if c2 != c {
		t.Error("copies of a collector must compare equal")
	}

	other := NewCollector()
	defer other.Close()
	if other == c {
		t.Error("distinct collectors must not compare equal")
	}

	h := c.Register()
	defer h.Close()
	if h.Collector() != c {
		t.Error("handle must point back at its collector")
	}
}

func TestHandlePinNesting(t *testing.T) {
	c := NewCollector()
	defer c.Close()
	h := c.Register()
	defer h.Close()

	if h.IsPinned() {
		t.Fatal("fresh handle reads pinned")
	}
	outer := h.Pin()
	inner := h.Pin()
	if !h.IsPinned() {
		t.Fatal("nested pins lost the pinned state")
	}
	inner.Unpin()
	if !h.IsPinned() {
		t.Fatal("the inner unpin must keep the outer pin")
	}
	outer.Unpin()
	if h.IsPinned() {
		t.Fatal("the outer unpin must clear the pinned state")
	}
}

func TestGuardDoubleUnpinPanics(t *testing.T) {
	c := NewCollector()
	defer c.Close()
	h := c.Register()
	defer h.Close()

	g := h.Pin()
	g.Unpin()
	defer func() {
		if recover() == nil {
			t.Error("second Unpin did not panic")
		}
	}()
	g.Unpin()
}

func TestGuardDeferNilPanics(t *testing.T) {
	c := NewCollector()
	defer c.Close()
	h := c.Register()
	defer h.Close()

	g := h.Pin()
	defer g.Unpin()
	defer func() {
		if recover() == nil {
			t.Error("Defer(nil) did not panic")
		}
	}()
	g.Defer(nil)
}

func TestGuardRepin(t *testing.T) {
	c := NewCollector()
	defer c.Close()
	h := c.Register()
	defer h.Close()

	g := h.Pin()
	g.Repin()
	if !h.IsPinned() {
		t.Fatal("Repin dropped the pin")
	}

	// With another pin nested, Repin must leave the snapshot alone.
	inner := h.Pin()
	snap := h.local.epoch.Load()
	g.Repin()
	if got := h.local.epoch.Load(); got != snap {
		t.Fatalf("Repin under nesting changed the snapshot: %d -> %d", snap, got)
	}
	inner.Unpin()
	g.Unpin()
}

func TestDeferRunsExactlyOnceOnClose(t *testing.T) {
	c := NewCollector()
	h := c.Register()

	const n = 500
	var runs [n]atomic.Int32
	g := h.Pin()
	for i := range n {
		g.Defer(func() { runs[i].Add(1) })
	}
	g.Unpin()
	h.Close()
	c.Close()

	for i := range n {
		if got := runs[i].Load(); got != 1 {
			t.Fatalf("deferred call %d ran %d times", i, got)
		}
	}
}

func TestHandleCloseUnregisters(t *testing.T) {
	c := NewCollector()
	h := c.Register()
	h.Close()
	h.Close() // idempotent
	c.Close()

	// Teardown must have run the queued registry removals, the driver's
	// own included.
	count := 0
	c.global.locals.Range(func(_ uint64, _ *participant) bool {
		count++
		return true
	})
	if count != 0 {
		t.Fatalf("%d participants left registered after close", count)
	}
}

func TestPinAfterClosePanics(t *testing.T) {
	c := NewCollector()
	defer c.Close()
	h := c.Register()
	h.Close()

	defer func() {
		if recover() == nil {
			t.Error("Pin on a closed handle did not panic")
		}
	}()
	h.Pin()
}

func TestCollectorCloseIdempotent(t *testing.T) {
	c := NewCollector()
	c.Close()
	c.Close()
}
