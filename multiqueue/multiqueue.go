// Package multiqueue fans a set of independent FIFOs out behind one
// handle, grounded on _examples/original_source/include/multi_queue.h
// — an array of independent queue_t instances, each with its own
// free list.
package multiqueue

import (
	"math"
	"sync/atomic"

	"github.com/fe-dagostino/lockfree-go/queue"
	"github.com/fe-dagostino/lockfree-go/registry"
	"github.com/fe-dagostino/lockfree-go/result"
	"golang.org/x/exp/constraints"
)

// MultiQueue routes pushes and pops across n independent queues.
// push(id, v)/pop(id, &out) address a specific sub-queue directly;
// the id-less forms route through the router (push) or a round-robin
// cursor (pop), matching spec.md §4.8.
type MultiQueue[T any, Size constraints.Unsigned] struct {
	queues []*queue.Queue[T, Size]
	cursor atomic.Uint64

	router *registry.ThreadMap[string]
}

// New creates a MultiQueue with n independent sub-queues, each backed
// by an arena chunked in groups of chunkSize.
func New[T any, Size constraints.Unsigned](impl queue.Impl, n int, chunkSize Size) (*MultiQueue[T, Size], result.Code) {
	if n < 1 {
		return nil, result.Failure
	}
	mq := &MultiQueue[T, Size]{
		queues: make([]*queue.Queue[T, Size], n),
		router: registry.NewThreadMap[string](math.MaxInt),
	}
	for i := range mq.queues {
		q, code := queue.New[T, Size](impl, chunkSize)
		if code != result.Success {
			return nil, code
		}
		mq.queues[i] = q
	}
	return mq, result.Success
}

// Queues returns the number of independent sub-queues.
func (mq *MultiQueue[T, Size]) Queues() int { return len(mq.queues) }

// PushTo routes v directly to sub-queue id.
func (mq *MultiQueue[T, Size]) PushTo(id int, v T) result.Code {
	if id < 0 || id >= len(mq.queues) {
		return result.Failure
	}
	return mq.queues[id].Push(v)
}

// Push routes v to a sub-queue chosen by key: the router gives each
// distinct key a stable index on first sight, and that index modulo
// Queues() picks the sub-queue. The original
// library hashes the calling OS thread id; Go has no portable
// equivalent, so the routing key is an explicit caller-supplied
// parameter (see the module's design notes on Open Question O2).
func (mq *MultiQueue[T, Size]) Push(key string, v T) result.Code {
	idx, ok := mq.router.IndexOf(key)
	if !ok {
		return result.Failure
	}
	return mq.queues[idx%len(mq.queues)].Push(v)
}

// PopFrom removes an element from sub-queue id directly.
func (mq *MultiQueue[T, Size]) PopFrom(id int, out *T) result.Code {
	if id < 0 || id >= len(mq.queues) {
		return result.Failure
	}
	return mq.queues[id].Pop(out)
}

// Pop removes an element from the sub-queue identified by a
// round-robin cursor, advancing the cursor by one (mod the number of
// sub-queues) regardless of outcome, matching spec.md §4.8.
func (mq *MultiQueue[T, Size]) Pop(out *T) result.Code {
	idx := mq.cursor.Add(1) - 1
	slot := int(idx % uint64(len(mq.queues)))
	return mq.queues[slot].Pop(out)
}

// Size sums the length of every sub-queue.
func (mq *MultiQueue[T, Size]) Size() Size {
	var total Size
	for _, q := range mq.queues {
		total += q.Size()
	}
	return total
}

// Empty reports whether every sub-queue is currently empty.
func (mq *MultiQueue[T, Size]) Empty() bool {
	for _, q := range mq.queues {
		if !q.Empty() {
			return false
		}
	}
	return true
}

// Clear drains every sub-queue.
func (mq *MultiQueue[T, Size]) Clear() {
	for _, q := range mq.queues {
		q.Clear()
	}
}
