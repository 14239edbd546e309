package ebr

import (
	"runtime"
	"sync/atomic"
	"testing"
	"time"
)

func TestDefaultIsShared(t *testing.T) {
	if Default() != Default() {
		t.Fatal("Default must hand out one collector")
	}
}

func TestPackagePin(t *testing.T) {
	g := Pin()
	inner := Pin() // a second pooled participant, not a nested pin
	inner.Unpin()
	g.Unpin()
}

func TestPackagePinRegistersOnDefault(t *testing.T) {
	g := Pin()
	h := g.pooled
	if h == nil {
		t.Fatal("package Pin must draw a pooled handle")
	}
	if h.Collector() != Default() {
		t.Fatal("pooled handle belongs to the wrong collector")
	}
	if !h.IsPinned() {
		t.Fatal("the drawn handle must be pinned until Unpin")
	}
	g.Unpin()
}

func TestPackagePinDefer(t *testing.T) {
	var ran atomic.Int32

	// Seal enough blocks past the slack window for the default driver to
	// reclaim the first one without any teardown.
	for range reclaimSlack + 2 {
		g := Pin()
		for range blockCap {
			g.Defer(func() { ran.Add(1) })
		}
		g.Unpin()
	}

	if !eventually(t, 5*time.Second, func() bool { return ran.Load() >= blockCap }) {
		t.Fatalf("no reclamation on the default collector: %d", ran.Load())
	}
}

func TestPooledHandleRetiredOnCollection(t *testing.T) {
	g := Pin()
	p := g.local
	g.Unpin()

	if !p.live.Load() {
		t.Fatal("pooled participant must stay registered while cached")
	}

	// Collection cycles first empty the pool's caches and then strand the
	// handle itself; its cleanup retires the participant so evictions do
	// not pile dead records into the registry.
	if !eventually(t, 5*time.Second, func() bool {
		runtime.GC()
		return !p.live.Load()
	}) {
		t.Fatal("evicted pooled handle left its participant live")
	}
}
