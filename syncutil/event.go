package syncutil

import (
	"sync"
	"time"

	"github.com/fe-dagostino/lockfree-go/result"
)

// Event is a level-triggered wakeup signal, grounded on core::event
// (a mutex+condition_variable pair with a boolean "signaled" flag).
// The mailbox waits on an Event while empty rather than spinning.
//
// Signaling is expressed as a closed channel rather than a raw
// sync.Cond broadcast, grounded on
// joeycumines-go-utilpkg/eventloop/promise.go's closed-channel signal
// idiom: a timed Wait can then select on the channel and time.After
// directly, with no helper goroutine left parked on a cond.Wait that
// only a future Notify would ever unblock.
type Event struct {
	mu       sync.Mutex
	ch       chan struct{}
	signaled bool
}

// NewEvent returns an unsignaled Event.
func NewEvent() *Event {
	return &Event{ch: make(chan struct{})}
}

// Notify signals the event, waking every waiter currently blocked in
// Wait. The flag stays set until the next Reset, so a Notify that
// arrives before a Wait call is not lost.
func (e *Event) Notify() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.signaled {
		e.signaled = true
		close(e.ch)
	}
}

// Reset clears the signaled flag.
func (e *Event) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.signaled {
		e.signaled = false
		e.ch = make(chan struct{})
	}
}

// Wait blocks until Notify is called, returning result.Signaled.
func (e *Event) Wait() result.Code {
	e.mu.Lock()
	ch := e.ch
	e.mu.Unlock()
	<-ch
	return result.Signaled
}

// WaitTimeout blocks until Notify is called or timeout elapses,
// returning result.Signaled or result.Timeout respectively.
// Spurious wakeups are not possible with this implementation, but
// callers should not rely on that, matching spec.md's documented
// allowance for them.
func (e *Event) WaitTimeout(timeout time.Duration) result.Code {
	e.mu.Lock()
	ch := e.ch
	e.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return result.Signaled
	case <-timer.C:
		return result.Timeout
	}
}

// IsSignaled reports the current state without blocking.
func (e *Event) IsSignaled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.signaled
}
