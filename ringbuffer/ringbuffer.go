// Package ringbuffer implements a fixed-capacity, slot-status-CAS
// ring buffer, grounded on
// _examples/original_source/include/ring_buffer.h. Grounded also on
// joeycumines-go-utilpkg/catrate/ring.go for making the index counter
// type a generic parameter, and on the same corpus entry's plain
// []T backing slice idiom.
package ringbuffer

import (
	"sync/atomic"

	"github.com/fe-dagostino/lockfree-go/result"
	"golang.org/x/exp/constraints"
)

// status is the state of one ring slot: Empty, BusyWrite, Full or
// BusyRead — transitions exactly as spec.md §4.7 describes.
type status int32

const (
	statusEmpty status = iota
	statusBusyWrite
	statusFull
	statusBusyRead
)

type cell[T any] struct {
	status atomic.Int32
	value  T
}

// RingBuffer is a bounded, multi-producer/multi-consumer circular
// buffer of fixed capacity N.
type RingBuffer[T any, Size constraints.Unsigned] struct {
	cells []cell[T]
	n     uint64

	writeIdx atomic.Uint64
	readIdx  atomic.Uint64
	count    atomic.Int64
}

// New creates a RingBuffer with capacity n.
func New[T any, Size constraints.Unsigned](n Size) (*RingBuffer[T, Size], result.Code) {
	if n == 0 {
		return nil, result.Failure
	}
	return &RingBuffer[T, Size]{
		cells: make([]cell[T], n),
		n:     uint64(n),
	}, result.Success
}

// slotOf maps a 1-based, ever-growing cursor value onto a 0-based
// array index. The modulo already produces the correct slot for any
// idx >= 1, so no separate local remapping of idx is needed before
// calling this.
func (r *RingBuffer[T, Size]) slotOf(idx uint64) int {
	return int((idx - 1) % r.n)
}

// nextIndex fetch-adds counter and returns the new (1-based) cursor
// value to use for this operation. When the *old* value (idx-1)
// reached capacity, it also resets the stored counter back to 1,
// mirroring the original's periodic m_ndxWrite/m_ndxRead store(1)
// (spec.md §4.7: "wrap both index and stored index back to 1"). The
// reset is a best-effort CAS against the value we just produced: if
// another goroutine has already advanced the counter further, the
// reset is simply skipped, since slotOf's modulo is correct for any
// cursor value regardless of whether the periodic reset lands.
func (r *RingBuffer[T, Size]) nextIndex(counter *atomic.Uint64) uint64 {
	idx := counter.Add(1)
	if idx-1 == r.n {
		counter.CompareAndSwap(idx, 1)
	}
	return idx
}

// Push writes v into the next available slot, or returns Failure if
// the buffer is full.
func (r *RingBuffer[T, Size]) Push(v T) result.Code {
	for {
		if r.count.Load() >= int64(r.n) {
			return result.Failure
		}

		idx := r.nextIndex(&r.writeIdx)
		c := &r.cells[r.slotOf(idx)]

		if !c.status.CompareAndSwap(int32(statusEmpty), int32(statusBusyWrite)) {
			continue
		}
		c.value = v
		c.status.Store(int32(statusFull))
		r.count.Add(1)
		return result.Success
	}
}

// Pop removes and returns the oldest available value, or returns
// Empty if the buffer currently holds nothing.
func (r *RingBuffer[T, Size]) Pop(out *T) result.Code {
	for {
		if r.count.Load() <= 0 {
			return result.Empty
		}

		idx := r.nextIndex(&r.readIdx)
		c := &r.cells[r.slotOf(idx)]

		if !c.status.CompareAndSwap(int32(statusFull), int32(statusBusyRead)) {
			continue
		}
		*out = c.value
		var zero T
		c.value = zero
		c.status.Store(int32(statusEmpty))
		r.count.Add(-1)
		return result.Success
	}
}

// Size returns the number of elements currently populated.
func (r *RingBuffer[T, Size]) Size() Size {
	n := r.count.Load()
	if n < 0 {
		n = 0
	}
	return Size(n)
}

// Capacity returns the fixed buffer capacity N.
func (r *RingBuffer[T, Size]) Capacity() Size { return Size(r.n) }

// Empty reports whether the buffer currently holds nothing.
func (r *RingBuffer[T, Size]) Empty() bool { return r.count.Load() <= 0 }

// Full reports whether the buffer is at capacity.
func (r *RingBuffer[T, Size]) Full() bool { return r.count.Load() >= int64(r.n) }
