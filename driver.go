package ebr

import "github.com/eapache/queue"

// reclaimSlack is how many clock ticks a sealed block must age before the
// driver tries to destroy it. A larger value batches more destruction per
// epoch wait; a smaller one returns memory sooner.
const reclaimSlack = 16

// reclaimBatch is the driver's bookkeeping for a burst of sealed blocks:
// how many became known at one clock tick. Bursts merge into one entry, so
// the pending list stays short even when producers outrun the driver.
type reclaimBatch struct {
	blocks uint64
	epoch  Epoch
}

// run is the reclamation driver: sole consumer of sealed-block
// notifications, sole writer of the clock and sole caller of the queue's
// drain side. One iteration per notification:
//
//  1. tick the clock,
//  2. pin, so registry records closing concurrently cannot vanish from
//     under the epoch wait,
//  3. account newly sealed blocks; ids are cumulative counts, so the
//     delta against the highest id seen is the burst size and stale or
//     dropped ids cost nothing,
//  4. once the oldest batch has aged past reclaimSlack ticks, wait out
//     every participant pinned before it sealed, then destroy exactly
//     that batch. At most one batch per iteration keeps the epoch wait
//     amortized.
//
// When the channel closes, the driver drains whatever is left and signals
// done; Close relies on that for its exactly-once guarantee.
func (g *global) run() {
	h := g.register()
	pending := queue.New()
	var maxID uint64
	var now Epoch

	for id := range g.blocks {
		now = now.Next()
		g.epoch.Store(now)

		guard := h.Pin()
		if id > maxID {
			pending.Add(reclaimBatch{blocks: id - maxID, epoch: now})
			maxID = id
		}
		if pending.Length() > 0 {
			oldest := pending.Peek().(reclaimBatch)
			if now-oldest.epoch > reclaimSlack {
				g.tryUntilEpoch(oldest.epoch)
				for range oldest.blocks {
					g.queue.DrainBlock(invoke)
				}
				pending.Remove()
			}
		}
		guard.Unpin()
	}

	// Once the loop exits no producer is left and the notify channel is
	// closed, so the driver's record must not leave through the queue:
	// one more push could seal a block and send on the closed channel.
	// With no concurrent registry scan possible, delete it in place.
	g.locals.Delete(h.local.id)
	g.queue.DrainAll(invoke)
	close(g.done)
}

func invoke(fn func()) {
	fn()
}
