// Package syncutil implements the low-level synchronization primitives
// the rest of this module is built on: a spin mutex, a counting
// semaphore and an event (condition-variable wrapper). Grounded on
// core/mutex.h, core/semaphore.h and core/event.h in the original
// source.
package syncutil

import "sync/atomic"

// SpinMutex is a busy-wait mutex backed by a single atomic bool,
// grounded on core::mutex (which leverages atomic_exchange_explicit
// instead of a native OS mutex, trading blocking for predictable
// latency under light contention).
type SpinMutex struct {
	locked atomic.Bool
}

// Lock spins until the lock is acquired.
func (m *SpinMutex) Lock() {
	for !m.locked.CompareAndSwap(false, true) {
	}
}

// TryLock makes one non-blocking attempt to acquire the lock.
func (m *SpinMutex) TryLock() bool {
	return m.locked.CompareAndSwap(false, true)
}

// Unlock releases the lock. Unlocking an already-unlocked SpinMutex is
// a caller bug, same as sync.Mutex.
func (m *SpinMutex) Unlock() {
	m.locked.Store(false)
}
