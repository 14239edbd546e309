package ebr

import "sync/atomic"

// Epoch is a point on a collector's reclamation clock.
//
// The clock starts at EpochZero and only moves forward, one tick per
// sealed-block notification. A pinned participant publishes the Epoch it
// observed when it pinned; EpochStarting marks a participant with no pin
// at all. Ordering is plain integer comparison, and wraparound of the
// 64-bit counter is treated as never happening.
type Epoch uint64

const (
	// EpochZero is the first value of the clock.
	EpochZero Epoch = 0

	// EpochStarting is the sentinel published by unpinned participants.
	// It is not a clock value and never takes part in ordering.
	EpochStarting Epoch = ^Epoch(0)
)

// IsPinned reports whether e is a published snapshot rather than the
// unpinned sentinel.
func (e Epoch) IsPinned() bool {
	return e != EpochStarting
}

// Next returns the clock value one tick after e.
func (e Epoch) Next() Epoch {
	return e + 1
}

// AtomicEpoch is an Epoch cell with atomic access.
// It is zero-value usable and holds EpochZero.
type AtomicEpoch struct {
	v atomic.Uint64
}

// Load returns the current value.
func (a *AtomicEpoch) Load() Epoch {
	return Epoch(a.v.Load())
}

// Store unconditionally overwrites the current value.
func (a *AtomicEpoch) Store(e Epoch) {
	a.v.Store(uint64(e))
}

// CompareAndSwap installs new if the current value is old. It returns the
// value held just before it took effect: old on success, the competing
// value otherwise. Contention is resolved by the caller retrying, never
// reported as an error.
func (a *AtomicEpoch) CompareAndSwap(old, new Epoch) Epoch {
	for {
		if a.v.CompareAndSwap(uint64(old), uint64(new)) {
			return old
		}
		if cur := Epoch(a.v.Load()); cur != old {
			return cur
		}
	}
}
