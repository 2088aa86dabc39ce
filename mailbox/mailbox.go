// Package mailbox implements a blocking single-reader inbox over a
// queue, grounded on
// _examples/original_source/include/mailbox.h — lock_free::mailbox
// wraps a lock_free::queue with a core::event so a reader can block
// until data arrives instead of polling.
package mailbox

import (
	"context"
	"time"

	"github.com/fe-dagostino/lockfree-go/queue"
	"github.com/fe-dagostino/lockfree-go/result"
	"github.com/fe-dagostino/lockfree-go/syncutil"
	"golang.org/x/exp/constraints"
	"golang.org/x/sync/semaphore"
)

// Mailbox is a named, blocking-read inbox: Write pushes and signals,
// Read drains or waits up to a timeout. backpressure is nil for an
// unbounded mailbox (the original library's default); NewBounded
// installs one so Write blocks instead of growing the queue without
// limit.
type Mailbox[T any, Size constraints.Unsigned] struct {
	name         string
	q            *queue.Queue[T, Size]
	event        *syncutil.Event
	backpressure *semaphore.Weighted
}

// New creates a Mailbox named name, backed by a Lockfree queue chunked
// in groups of chunkSize.
func New[T any, Size constraints.Unsigned](name string, chunkSize Size) (*Mailbox[T, Size], result.Code) {
	q, code := queue.New[T, Size](queue.Lockfree, chunkSize)
	if code != result.Success {
		return nil, code
	}
	return &Mailbox[T, Size]{name: name, q: q, event: syncutil.NewEvent()}, result.Success
}

// NewBounded creates a Mailbox that blocks Write once capacity
// outstanding messages have been written and not yet read, grounded
// on hupe1980-vecgo/resource/controller.go's semaphore-limited
// in-flight work pattern.
func NewBounded[T any, Size constraints.Unsigned](name string, chunkSize Size, capacity int64) (*Mailbox[T, Size], result.Code) {
	mb, code := New[T, Size](name, chunkSize)
	if code != result.Success {
		return nil, code
	}
	mb.backpressure = semaphore.NewWeighted(capacity)
	return mb, result.Success
}

// Name returns the mailbox's name, matching the original's name()
// accessor.
func (m *Mailbox[T, Size]) Name() string { return m.name }

// Write pushes v and wakes any blocked Read, blocking first if a
// bounded Mailbox is already at capacity.
func (m *Mailbox[T, Size]) Write(v T) result.Code {
	if m.backpressure != nil {
		if err := m.backpressure.Acquire(context.Background(), 1); err != nil {
			return result.Failure
		}
	}
	code := m.q.Push(v)
	if code != result.Success {
		if m.backpressure != nil {
			m.backpressure.Release(1)
		}
		return code
	}
	m.event.Notify()
	return result.Success
}

// Read returns the oldest written value, blocking up to timeout if
// the mailbox is currently empty. Returns Success, Empty, Timeout or
// DoubleFree (propagated verbatim from the underlying queue's arena
// deallocation), matching spec.md §4.9.
func (m *Mailbox[T, Size]) Read(out *T, timeout time.Duration) result.Code {
	if !m.q.Empty() {
		return m.popAndRelease(out)
	}

	// The event is level-triggered and stays signaled from the last
	// Write until explicitly reset, so clear it before waiting —
	// otherwise a stale signal from an unrelated earlier Write would
	// make this wait return immediately without the queue actually
	// holding anything.
	m.event.Reset()
	if !m.q.Empty() {
		return m.popAndRelease(out)
	}

	if code := m.event.WaitTimeout(timeout); code == result.Timeout {
		return result.Timeout
	}

	return m.popAndRelease(out)
}

func (m *Mailbox[T, Size]) popAndRelease(out *T) result.Code {
	code := m.q.Pop(out)
	if code == result.Success && m.backpressure != nil {
		m.backpressure.Release(1)
	}
	return code
}

// Empty reports whether the mailbox currently holds no messages.
func (m *Mailbox[T, Size]) Empty() bool { return m.q.Empty() }

// Size returns the number of messages currently queued.
func (m *Mailbox[T, Size]) Size() Size { return m.q.Size() }
