package syncutil

import (
	"context"
	"sync"

	"github.com/fe-dagostino/lockfree-go/result"
)

// Semaphore is a counting semaphore bounded by a construction-time
// maximum, grounded on core::counting_semaphore<max_count>. Unlike the
// original's lock-free-ish CAS loop over an atomic counter, this
// version uses a mutex and a condition variable — acquiring goroutines
// park instead of spinning, which is the idiom golang.org/x/sync's own
// semaphore.Weighted uses internally.
type Semaphore struct {
	mu      sync.Mutex
	cond    *sync.Cond
	count   int
	max     int
}

// NewSemaphore creates a semaphore with the given maximum count,
// initially full (count == max), matching the original's constructor.
func NewSemaphore(max int) *Semaphore {
	if max < 1 {
		max = 1
	}
	s := &Semaphore{count: max, max: max}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// NewBinarySemaphore is the spec's binary_semaphore alias: a Semaphore
// with max == 1.
func NewBinarySemaphore() *Semaphore { return NewSemaphore(1) }

// Acquire blocks until a unit is available, then takes it.
func (s *Semaphore) Acquire() {
	s.mu.Lock()
	for s.count == 0 {
		s.cond.Wait()
	}
	s.count--
	s.mu.Unlock()
}

// TryAcquire makes one non-blocking attempt to take a unit.
func (s *Semaphore) TryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 {
		return false
	}
	s.count--
	return true
}

// AcquireContext blocks until a unit is available or ctx is done,
// returning result.Signaled on success and result.Timeout if ctx's
// deadline/cancellation fires first.
func (s *Semaphore) AcquireContext(ctx context.Context) result.Code {
	done := make(chan struct{})
	go func() {
		s.Acquire()
		close(done)
	}()

	select {
	case <-done:
		return result.Signaled
	case <-ctx.Done():
		// The Acquire goroutine may still succeed after this point; give
		// the unit back so it is not lost.
		go func() {
			<-done
			s.Release()
		}()
		return result.Timeout
	}
}

// Release returns a unit to the semaphore, capped at max.
func (s *Semaphore) Release() {
	s.mu.Lock()
	if s.count < s.max {
		s.count++
	}
	s.cond.Signal()
	s.mu.Unlock()
}

// Count returns the number of units currently available.
func (s *Semaphore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
