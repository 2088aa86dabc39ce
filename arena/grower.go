package arena

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// growGate is the background grower's wakeup signal, grounded on
// core::arena_allocator's binary_semaphore-gated grower thread
// (spec.md §4.4.2 step 3) and on
// hupe1980-vecgo/resource/controller.go's semaphore-gated background
// worker shape — wired here to the real ecosystem semaphore instead
// of a hand-rolled one. It starts fully acquired (no permits
// available), so the grower blocks until the first release wakes it.
//
// semaphore.Weighted.Release panics if called without a matching
// outstanding Acquire, but spec.md §4.4.4 step 1 calls for release()
// on every Allocate that observes free_slots at or below the threshold —
// which, under concurrent allocators, means many callers can race to
// wake an already-pending grower. pending coalesces those into a
// single real Release per grower wakeup cycle, exactly like the
// binary semaphore the original describes (a release while already
// signaled is a no-op, not a second signal).
type growGate struct {
	sem     *semaphore.Weighted
	pending atomic.Bool
}

func newGrowGate() *growGate {
	g := &growGate{sem: semaphore.NewWeighted(1)}
	g.sem.Acquire(context.Background(), 1)
	return g
}

// release wakes the grower. A release that arrives while a wakeup is
// already pending is harmless: it is coalesced into the one pending
// wakeup instead of being forwarded to the semaphore.
func (g *growGate) release() {
	if g.pending.CompareAndSwap(false, true) {
		g.sem.Release(1)
	}
}

func (g *growGate) acquire() {
	g.sem.Acquire(context.Background(), 1)
	g.pending.Store(false)
}
