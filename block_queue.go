package ebr

import (
	"sync/atomic"
)

// blockCap is the number of slots per queue block. A block is the unit of
// sealing, notification and reclamation.
const blockCap = 32

// block is one fixed-capacity segment of the queue's linked list.
type block[T any] struct {
	// startIndex is the global sequence index of slots[0]; a producer
	// turns its reserved index into a slot offset without branching.
	startIndex uint64
	next       atomic.Pointer[block[T]]
	slots      [blockCap]T
}

// position is one end of the queue. Head belongs to the single consumer,
// tail is shared by all producers; the padding keeps the two ends off each
// other's cache line.
type position[T any] struct {
	index atomic.Uint64
	block atomic.Pointer[block[T]]
	_     [cacheLineSize]byte
}

// BlockQueue is an unbounded lock-free FIFO of fixed-size blocks for many
// producers and exactly one consumer.
//
// Features:
//   - Push never blocks: the only arbiter between producers is a single
//     CAS on the tail index, and a full block is handed over by an
//     idempotent successor install that any number of producers may help
//     with.
//   - Whichever producer fills a block's final slot seals it and emits
//     exactly one notification carrying the running count of sealed
//     blocks.
//   - The consumer takes whole blocks (DrainBlock) once it has proven no
//     reader can still hold a reference into them, or everything at once
//     on teardown (DrainAll).
//
// A producer must keep its participant pinned across Push; the consumer's
// epoch wait is what establishes visibility of the slot write. Pushing
// into a queue whose collector has shut down is a programming defect, not
// a reportable error.
type BlockQueue[T any] struct {
	_      noCopy
	head   position[T]
	tail   position[T]
	notify chan<- uint64
}

// NewBlockQueue returns an empty queue. Each time a block fills, its id
// (the count of blocks sealed so far, starting at 1) is sent on notify
// without blocking; when notify is full the send is dropped, which is safe
// because ids are cumulative and any later id covers a lost one. A nil
// notify disables notifications entirely.
func NewBlockQueue[T any](notify chan<- uint64) *BlockQueue[T] {
	q := &BlockQueue[T]{notify: notify}
	first := &block[T]{}
	q.head.block.Store(first)
	q.tail.block.Store(first)
	return q
}

// Push appends v to the tail.
func (q *BlockQueue[T]) Push(v T) {
	for {
		tail := q.tail.block.Load()
		index := q.tail.index.Load()
		offset := index - tail.startIndex

		if offset >= blockCap {
			// The block filled but its successor is not linked in yet.
			// Help whoever sealed it, then retry on the fresh tail.
			q.installNext(tail)
			continue
		}
		if !q.tail.index.CompareAndSwap(index, index+1) {
			continue
		}

		// The CAS handed this producer exclusive ownership of the slot.
		tail.slots[offset] = v

		if offset+1 == blockCap {
			// Final slot: link the successor first, then announce the
			// sealed block. Exactly one producer runs this per block.
			q.installNext(tail)
			q.sealed((index + 1) / blockCap)
		}
		return
	}
}

// installNext links a successor after full and swings the tail pointer to
// it. Any number of producers may call this for the same block; the first
// CAS wins and the rest adopt the winner's successor.
func (q *BlockQueue[T]) installNext(full *block[T]) {
	next := full.next.Load()
	if next == nil {
		fresh := &block[T]{startIndex: full.startIndex + blockCap}
		if full.next.CompareAndSwap(nil, fresh) {
			next = fresh
		} else {
			next = full.next.Load()
		}
	}
	q.tail.block.CompareAndSwap(full, next)
}

// sealed emits one sealed-block notification without ever blocking the
// producer.
func (q *BlockQueue[T]) sealed(id uint64) {
	select {
	case q.notify <- id:
	default:
	}
}

// DrainBlock hands every slot of the head block to fn in push order and
// unlinks the block, making it collectable. Only the consumer may call it,
// and only for a block it has proven sealed and expired; the successor is
// guaranteed to exist because sealing links it before notifying.
func (q *BlockQueue[T]) DrainBlock(fn func(T)) {
	head := q.head.block.Load()
	for i := range head.slots {
		fn(head.slots[i])
	}
	q.head.block.Store(head.next.Load())
	q.head.index.Add(blockCap)
}

// DrainAll hands every remaining item to fn and leaves the queue spent.
// This is the teardown path; the caller must guarantee no producer is
// left. The final block is usually part-filled, so the walk is bounded by
// the tail index rather than block capacity.
func (q *BlockQueue[T]) DrainAll(fn func(T)) {
	index := q.tail.index.Load()
	for head := q.head.block.Load(); head != nil; head = head.next.Load() {
		n := min(index-head.startIndex, blockCap)
		for i := range n {
			fn(head.slots[i])
		}
		q.head.index.Store(head.startIndex + n)
	}
	q.head.block.Store(nil)
}

// Len reports the number of buffered items. It is exact while the queue is
// quiescent and approximate while producers are pushing.
func (q *BlockQueue[T]) Len() int {
	return int(q.tail.index.Load() - q.head.index.Load())
}
