// Package queue implements a FIFO over the arena allocator, grounded
// on _examples/original_source/include/queue.h and, for the Go CAS
// idiom, on other_examples/ahrav-go-lockfree-queue__queue.go — a
// Michael & Scott queue over a pre-allocated node pool, the exact
// shape this package generalizes to use arena.Arena instead of a flat
// node slice.
package queue

import (
	"sync"
	"sync/atomic"

	"github.com/fe-dagostino/lockfree-go/arena"
	"github.com/fe-dagostino/lockfree-go/result"
	"github.com/fe-dagostino/lockfree-go/syncutil"
	"golang.org/x/exp/constraints"
)

// Impl selects the synchronization strategy, mirroring the original
// library's compile-time ds_impl_t tag.
type Impl int

const (
	Raw Impl = iota
	Mutex
	Spinlock
	Lockfree
)

type node[T any] struct {
	value T
	next  arena.Handle
}

// Queue is a FIFO of values of type T. Size is the unsigned counter
// type used for Size(), mirroring the original template's
// data_size_t parameter.
type Queue[T any, Size constraints.Unsigned] struct {
	impl Impl
	a    *arena.Arena[node[T], Size]

	mu   sync.Mutex
	spin syncutil.SpinMutex

	head atomic.Uint64 // arena.Handle, 0 == nil
	tail atomic.Uint64

	length atomic.Int64
}

// New creates a Queue using impl as its synchronization strategy.
func New[T any, Size constraints.Unsigned](impl Impl, chunkSize Size) (*Queue[T, Size], result.Code) {
	a, code := arena.New[node[T], Size](arena.Config[Size]{ChunkSize: chunkSize, InitialSize: chunkSize})
	if code != result.Success {
		return nil, code
	}
	return &Queue[T, Size]{impl: impl, a: a}, result.Success
}

func (q *Queue[T, Size]) loadHead() arena.Handle { return arena.Handle(q.head.Load()) }
func (q *Queue[T, Size]) loadTail() arena.Handle { return arena.Handle(q.tail.Load()) }

func (q *Queue[T, Size]) casHead(old, new arena.Handle) bool {
	return q.head.CompareAndSwap(uint64(old), uint64(new))
}
func (q *Queue[T, Size]) casTail(old, new arena.Handle) bool {
	return q.tail.CompareAndSwap(uint64(old), uint64(new))
}

// Push appends v to the tail of the queue.
func (q *Queue[T, Size]) Push(v T) result.Code {
	switch q.impl {
	case Mutex:
		q.mu.Lock()
		defer q.mu.Unlock()
		return q.pushLocked(v)
	case Spinlock:
		q.spin.Lock()
		defer q.spin.Unlock()
		return q.pushLocked(v)
	case Raw:
		return q.pushLocked(v)
	default:
		return q.pushLockfree(v)
	}
}

func (q *Queue[T, Size]) pushLocked(v T) result.Code {
	n, h, code := q.a.Allocate()
	if code != result.Success {
		return code
	}
	n.value = v
	n.next = 0

	tail := q.loadTail()
	if tail.IsNil() {
		q.head.Store(uint64(h))
		q.tail.Store(uint64(h))
	} else {
		tp := q.payloadAt(tail)
		tp.next = h
		q.tail.Store(uint64(h))
	}
	q.length.Add(1)
	return result.Success
}

// payloadAt resolves a handle back to its *node[T]. Arena handles are
// cheap to re-resolve since Arena.PayloadAt only walks the (short,
// append-only) chunk list under a read lock, so the queue keeps no
// shadow index of its own.
func (q *Queue[T, Size]) payloadAt(h arena.Handle) *node[T] {
	return q.a.PayloadAt(h)
}

func (q *Queue[T, Size]) pushLockfree(v T) result.Code {
	n, h, code := q.a.Allocate()
	if code != result.Success {
		return code
	}
	n.value = v
	n.next = 0 // unpublished node, not yet reachable by any other goroutine

	for {
		oldTail := q.loadTail()
		oldHead := q.loadHead()

		if oldHead.IsNil() && !oldTail.IsNil() {
			q.casTail(oldTail, 0)
			continue
		}

		if oldTail.IsNil() {
			if q.casTail(0, h) {
				q.casHead(0, h)
				q.length.Add(1)
				return result.Success
			}
			continue
		}

		tailNode := q.payloadAt(oldTail)
		if tailNode == nil {
			continue
		}
		if !q.loadNext(tailNode).IsNil() {
			continue
		}
		if q.compareAndSwapNext(tailNode, 0, h) {
			q.tail.Store(uint64(h))
			q.length.Add(1)
			return result.Success
		}
	}
}

// loadNext and storeNext read/write a node's next link under q.spin.
// node.next is not itself atomic (it is payload, not the arena's link
// word), so every access to it from the lock-free push/pop paths goes
// through these — including reads — because when the queue holds
// exactly one element, head and tail name the same node and a
// concurrent push and pop touch its next field together.
func (q *Queue[T, Size]) loadNext(n *node[T]) arena.Handle {
	q.spin.Lock()
	defer q.spin.Unlock()
	return n.next
}

func (q *Queue[T, Size]) storeNext(n *node[T], h arena.Handle) {
	q.spin.Lock()
	defer q.spin.Unlock()
	n.next = h
}

func (q *Queue[T, Size]) compareAndSwapNext(n *node[T], old, new arena.Handle) bool {
	q.spin.Lock()
	defer q.spin.Unlock()
	if n.next != old {
		return false
	}
	n.next = new
	return true
}

// Pop removes and returns the value at the head of the queue.
func (q *Queue[T, Size]) Pop(out *T) result.Code {
	switch q.impl {
	case Mutex:
		q.mu.Lock()
		defer q.mu.Unlock()
		return q.popLocked(out)
	case Spinlock:
		q.spin.Lock()
		defer q.spin.Unlock()
		return q.popLocked(out)
	case Raw:
		return q.popLocked(out)
	default:
		return q.popLockfree(out)
	}
}

func (q *Queue[T, Size]) popLocked(out *T) result.Code {
	head := q.loadHead()
	if head.IsNil() {
		return result.Empty
	}
	n := q.payloadAt(head)
	if n == nil {
		return result.Failure
	}
	*out = n.value

	q.head.Store(uint64(n.next))
	if n.next.IsNil() {
		q.tail.Store(0)
	}
	q.length.Add(-1)
	return q.a.Deallocate(head)
}

func (q *Queue[T, Size]) popLockfree(out *T) result.Code {
	for {
		oldHead := q.loadHead()
		if oldHead.IsNil() {
			return result.Empty
		}
		n := q.payloadAt(oldHead)
		if n == nil {
			return result.Failure
		}
		next := q.loadNext(n)

		if !q.casHead(oldHead, next) {
			continue
		}

		*out = n.value
		q.storeNext(n, 0)
		q.length.Add(-1)
		return q.a.Deallocate(oldHead)
	}
}

// Size returns the number of elements currently queued.
func (q *Queue[T, Size]) Size() Size { return Size(q.length.Load()) }

// Empty reports whether the queue currently holds no elements.
func (q *Queue[T, Size]) Empty() bool { return q.length.Load() == 0 }

// Clear drains and discards every element.
func (q *Queue[T, Size]) Clear() {
	var discard T
	for q.Pop(&discard) == result.Success {
	}
}

// Lock acquires the queue's lock; only meaningful for the Mutex and
// Spinlock variants, matching spec.md §6 (Raw/Lockfree return
// NotImplemented).
func (q *Queue[T, Size]) Lock() result.Code {
	switch q.impl {
	case Mutex:
		q.mu.Lock()
	case Spinlock:
		q.spin.Lock()
	default:
		return result.NotImplemented
	}
	return result.Success
}

// Unlock releases the queue's lock; see Lock.
func (q *Queue[T, Size]) Unlock() result.Code {
	switch q.impl {
	case Mutex:
		q.mu.Unlock()
	case Spinlock:
		q.spin.Unlock()
	default:
		return result.NotImplemented
	}
	return result.Success
}
