package ebr

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/llxisdsh/pb"
)

// notifyBuffer is the capacity of the sealed-block channel between
// producers and the reclamation driver. Sends never block, so the buffer
// only needs to smooth bursts; ids are cumulative counts and any later id
// covers a dropped one.
const notifyBuffer = 128

// global is the shared state of one collector: the epoch clock, the
// participant registry and the garbage queue, plus the channel feeding the
// driver and the teardown latch.
type global struct {
	// epoch is written by the driver only and read on every pin; keep it
	// off the cache lines of everything else here.
	epoch AtomicEpoch
	_     [(cacheLineSize - unsafe.Sizeof(AtomicEpoch{})%cacheLineSize) % cacheLineSize]byte

	// locals maps participant id to record. Records are inserted by
	// register and deleted only by the driver, through deferred calls the
	// records themselves queue when closing.
	locals pb.MapOf[uint64, *participant]
	seq    atomic.Uint64

	queue  *BlockQueue[func()]
	blocks chan uint64

	shutdown sync.Once
	done     chan struct{}
}

func newGlobal() *global {
	g := &global{
		blocks: make(chan uint64, notifyBuffer),
		done:   make(chan struct{}),
	}
	g.queue = NewBlockQueue[func()](g.blocks)
	return g
}

// register adds a fresh participant to the registry and hands back its
// owner handle.
func (g *global) register() *Handle {
	p := &participant{id: g.seq.Add(1), owner: g}
	p.epoch.Store(EpochStarting)
	p.live.Store(true)
	g.locals.Store(p.id, p)
	return &Handle{local: p}
}

// tryUntilEpoch returns once every live participant is either not pinned
// at all or pinned at a snapshot at or above target. This is the only gate
// between a sealed block and its destruction: a participant pinned below
// target may still hold references into that block, so the driver waits it
// out. The wait spins with escalation and never times out; a guard held
// forever stalls reclamation but never makes it unsafe.
func (g *global) tryUntilEpoch(target Epoch) {
	var spins int
	for {
		ready := true
		g.locals.Range(func(_ uint64, p *participant) bool {
			if !p.live.Load() {
				return true
			}
			if snap := p.epoch.Load(); snap.IsPinned() && snap < target {
				ready = false
				return false
			}
			return true
		})
		if ready {
			return
		}
		delay(&spins)
	}
}

// close stops feeding the driver and waits for it to finish draining.
// Safe to call more than once.
func (g *global) close() {
	g.shutdown.Do(func() { close(g.blocks) })
	<-g.done
}
