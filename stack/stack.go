// Package stack implements a LIFO over the arena allocator, grounded
// on _examples/original_source/include/stack.h (the Treiber stack)
// and mirroring queue's variant-tag structure and arena reuse.
package stack

import (
	"sync"
	"sync/atomic"

	"github.com/fe-dagostino/lockfree-go/arena"
	"github.com/fe-dagostino/lockfree-go/result"
	"github.com/fe-dagostino/lockfree-go/syncutil"
	"golang.org/x/exp/constraints"
)

// Impl selects the synchronization strategy, same tag set as queue.Impl.
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

// Stack is a LIFO of values of type T.
type Stack[T any, Size constraints.Unsigned] struct {
	impl Impl
	a    *arena.Arena[node[T], Size]

	mu   sync.Mutex
	spin syncutil.SpinMutex

	head   atomic.Uint64
	length atomic.Int64
}

// New creates a Stack using impl as its synchronization strategy.
func New[T any, Size constraints.Unsigned](impl Impl, chunkSize Size) (*Stack[T, Size], result.Code) {
	a, code := arena.New[node[T], Size](arena.Config[Size]{ChunkSize: chunkSize, InitialSize: chunkSize})
	if code != result.Success {
		return nil, code
	}
	return &Stack[T, Size]{impl: impl, a: a}, result.Success
}

func (s *Stack[T, Size]) loadHead() arena.Handle { return arena.Handle(s.head.Load()) }

func (s *Stack[T, Size]) casHead(old, new arena.Handle) bool {
	return s.head.CompareAndSwap(uint64(old), uint64(new))
}

// Push adds v to the top of the stack.
func (s *Stack[T, Size]) Push(v T) result.Code {
	switch s.impl {
	case Mutex:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.pushLocked(v)
	case Spinlock:
		s.spin.Lock()
		defer s.spin.Unlock()
		return s.pushLocked(v)
	case Raw:
		return s.pushLocked(v)
	default:
		return s.pushLockfree(v)
	}
}

func (s *Stack[T, Size]) pushLocked(v T) result.Code {
	n, h, code := s.a.Allocate()
	if code != result.Success {
		return code
	}
	n.value = v
	n.next = s.loadHead()
	s.head.Store(uint64(h))
	s.length.Add(1)
	return result.Success
}

func (s *Stack[T, Size]) pushLockfree(v T) result.Code {
	n, h, code := s.a.Allocate()
	if code != result.Success {
		return code
	}
	n.value = v
	for {
		old := s.loadHead()
		n.next = old
		if s.casHead(old, h) {
			s.length.Add(1)
			return result.Success
		}
	}
}

// Pop removes and returns the value at the top of the stack.
func (s *Stack[T, Size]) Pop(out *T) result.Code {
	switch s.impl {
	case Mutex:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.popLocked(out)
	case Spinlock:
		s.spin.Lock()
		defer s.spin.Unlock()
		return s.popLocked(out)
	case Raw:
		return s.popLocked(out)
	default:
		return s.popLockfree(out)
	}
}

func (s *Stack[T, Size]) popLocked(out *T) result.Code {
	head := s.loadHead()
	if head.IsNil() {
		return result.Empty
	}
	n := s.a.PayloadAt(head)
	if n == nil {
		return result.Failure
	}
	*out = n.value
	s.head.Store(uint64(n.next))
	s.length.Add(-1)
	return s.a.Deallocate(head)
}

func (s *Stack[T, Size]) popLockfree(out *T) result.Code {
	for {
		old := s.loadHead()
		if old.IsNil() {
			return result.Empty
		}
		n := s.a.PayloadAt(old)
		if n == nil {
			return result.Failure
		}
		next := n.next
		if !s.casHead(old, next) {
			continue
		}
		*out = n.value
		s.length.Add(-1)
		return s.a.Deallocate(old)
	}
}

// Size returns the number of elements currently on the stack.
func (s *Stack[T, Size]) Size() Size { return Size(s.length.Load()) }

// Empty reports whether the stack currently holds no elements.
func (s *Stack[T, Size]) Empty() bool { return s.length.Load() == 0 }

// Clear discards every element on the stack.
func (s *Stack[T, Size]) Clear() {
	var discard T
	for s.Pop(&discard) == result.Success {
	}
}

// Lock acquires the stack's lock; only meaningful for the Mutex and
// Spinlock variants (Raw/Lockfree return NotImplemented, matching
// queue.Lock).
func (s *Stack[T, Size]) Lock() result.Code {
	switch s.impl {
	case Mutex:
		s.mu.Lock()
	case Spinlock:
		s.spin.Lock()
	default:
		return result.NotImplemented
	}
	return result.Success
}

// Unlock releases the stack's lock; see Lock.
func (s *Stack[T, Size]) Unlock() result.Code {
	switch s.impl {
	case Mutex:
		s.mu.Unlock()
	case Spinlock:
		s.spin.Unlock()
	default:
		return result.NotImplemented
	}
	return result.Success
}
