package ebr

import "sync/atomic"

// participant is one registered reader's record in a collector's registry.
//
// The epoch cell is the only cross-goroutine state: the owner publishes a
// snapshot of the global clock when pin nesting enters depth one and
// restores EpochStarting when it leaves. The driver reads snapshots to
// decide how far reclamation may advance, and reads live to skip records
// whose owners are gone. depth is owner-private and needs no atomics.
type participant struct {
	epoch AtomicEpoch
	live  atomic.Bool
	depth int
	id    uint64
	owner *global
}

// pin enters one level of nesting, publishing a snapshot on the outermost
// level. The transition must start from the sentinel; anything else means
// the record is shared between goroutines, which the registry forbids.
func (p *participant) pin() {
	p.depth++
	if p.depth == 1 {
		snap := p.owner.epoch.Load()
		if prev := p.epoch.CompareAndSwap(EpochStarting, snap); prev != EpochStarting {
			panic("ebr: participant was expected to be unpinned")
		}
	}
}

// unpin leaves one level of nesting and reports whether it was the
// outermost one, which restores the sentinel and releases the record from
// epoch waits.
func (p *participant) unpin() bool {
	p.depth--
	if p.depth == 0 {
		p.epoch.Store(EpochStarting)
		return true
	}
	if p.depth < 0 {
		panic("ebr: unpin without a matching pin")
	}
	return false
}

// close retires the participant. The registry entry is removed through the
// garbage queue itself, so a driver iterating the registry never has the
// record deleted out from under an epoch wait; the liveness flag excludes
// it from future waits as soon as the final unpin lands.
func (p *participant) close() {
	g := p.owner
	id := p.id
	p.pin()
	g.queue.Push(func() { g.locals.Delete(id) })
	p.unpin()
	p.live.Store(false)
}
