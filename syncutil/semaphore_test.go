package syncutil

import (
	"context"
	"testing"
	"time"

	"github.com/fe-dagostino/lockfree-go/result"
)

func TestSemaphoreAcquireRelease(t *testing.T) {
	s := NewSemaphore(2)
	if got := s.Count(); got != 2 {
		t.Fatalf("Count() = %d, want 2", got)
	}

	s.Acquire()
	s.Acquire()
	if s.TryAcquire() {
		t.Fatal("TryAcquire should fail when semaphore is exhausted")
	}

	s.Release()
	if got := s.Count(); got != 1 {
		t.Fatalf("Count() after Release = %d, want 1", got)
	}
	if !s.TryAcquire() {
		t.Fatal("TryAcquire should succeed after Release")
	}
}

func TestSemaphoreReleaseCapsAtMax(t *testing.T) {
	s := NewSemaphore(1)
	s.Release()
	s.Release()
	if got := s.Count(); got != 1 {
		t.Fatalf("Count() = %d, want 1 (capped at max)", got)
	}
}

func TestBinarySemaphore(t *testing.T) {
	s := NewBinarySemaphore()
	s.Acquire()
	if s.TryAcquire() {
		t.Fatal("binary semaphore should only allow one holder")
	}
}

func TestSemaphoreAcquireContextTimeout(t *testing.T) {
	s := NewSemaphore(1)
	s.Acquire()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if got := s.AcquireContext(ctx); got != result.Timeout {
		t.Fatalf("AcquireContext() = %v, want Timeout", got)
	}
}

func TestSemaphoreAcquireContextSuccess(t *testing.T) {
	s := NewSemaphore(1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if got := s.AcquireContext(ctx); got != result.Signaled {
		t.Fatalf("AcquireContext() = %v, want Signaled", got)
	}
}
