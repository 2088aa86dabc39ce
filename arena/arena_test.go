package arena

import (
	"testing"
	"time"

	"github.com/fe-dagostino/lockfree-go/result"
)

func newTestArena(t *testing.T) *Arena[int, uint32] {
	t.Helper()
	a, code := New[int, uint32](Config[uint32]{ChunkSize: 4, InitialSize: 4})
	if code != result.Success {
		t.Fatalf("New() = %v, want Success", code)
	}
	t.Cleanup(a.Release)
	return a
}

func TestAllocateDeallocateRoundTrip(t *testing.T) {
	a := newTestArena(t)

	p, h, code := a.Allocate()
	if code != result.Success {
		t.Fatalf("Allocate() = %v, want Success", code)
	}
	*p = 42
	if !a.IsValid(h) {
		t.Fatal("IsValid() = false for a live handle")
	}

	if code := a.Deallocate(h); code != result.Success {
		t.Fatalf("Deallocate() = %v, want Success", code)
	}
}

func TestDoubleFreeIsDetected(t *testing.T) {
	a := newTestArena(t)

	_, h, _ := a.Allocate()
	if code := a.Deallocate(h); code != result.Success {
		t.Fatalf("first Deallocate() = %v, want Success", code)
	}
	if code := a.Deallocate(h); code != result.DoubleFree {
		t.Fatalf("second Deallocate() = %v, want DoubleFree", code)
	}
}

func TestAllocateGrowsPastInitialSize(t *testing.T) {
	a := newTestArena(t)

	var handles []Handle
	for i := 0; i < 10; i++ {
		_, h, code := a.Allocate()
		if code != result.Success {
			t.Fatalf("Allocate() #%d = %v, want Success", i, code)
		}
		handles = append(handles, h)
	}

	if got := a.MaxLength(); got < 10 {
		t.Fatalf("MaxLength() = %d, want >= 10", got)
	}

	seen := map[Handle]bool{}
	for _, h := range handles {
		if seen[h] {
			t.Fatalf("handle %d reused while still live", h)
		}
		seen[h] = true
	}
}

func TestFreeListReusesSlots(t *testing.T) {
	a := newTestArena(t)

	_, h1, _ := a.Allocate()
	a.Deallocate(h1)

	_, h2, code := a.Allocate()
	if code != result.Success {
		t.Fatalf("Allocate() = %v, want Success", code)
	}
	if h2 != h1 {
		t.Fatalf("expected the freed slot %d to be reused, got %d", h1, h2)
	}
}

func TestDeallocateNilHandle(t *testing.T) {
	a := newTestArena(t)
	if code := a.Deallocate(0); code != result.NullPointer {
		t.Fatalf("Deallocate(0) = %v, want NullPointer", code)
	}
}

func TestIsValidRejectsForeignHandle(t *testing.T) {
	a1 := newTestArena(t)
	a2 := newTestArena(t)

	_, h, _ := a1.Allocate()
	if a2.IsValid(h) {
		t.Fatal("IsValid() should reject a handle from another arena")
	}
}

func TestMetricsReflectUsage(t *testing.T) {
	a := newTestArena(t)

	_, _, _ = a.Allocate()
	_, h2, _ := a.Allocate()
	a.Deallocate(h2)

	m := a.Metrics()
	if m.UsedSlots != 1 {
		t.Fatalf("Metrics().UsedSlots = %d, want 1", m.UsedSlots)
	}
	if m.NumChunks < 1 {
		t.Fatal("Metrics().NumChunks should be at least 1")
	}
}

func TestClearResetsArena(t *testing.T) {
	a := newTestArena(t)
	a.Allocate()
	a.Clear()

	if got := a.MaxLength(); got != 0 {
		t.Fatalf("MaxLength() after Clear = %d, want 0", got)
	}
	if got := a.FreeSlots(); got != 0 {
		t.Fatalf("FreeSlots() after Clear = %d, want 0", got)
	}
}

func TestUnsafeAllocateDeallocate(t *testing.T) {
	a := newTestArena(t)

	p, h, code := a.UnsafeAllocate()
	if code != result.Success {
		t.Fatalf("UnsafeAllocate() = %v, want Success", code)
	}
	*p = 7

	if code := a.UnsafeDeallocate(h); code != result.Success {
		t.Fatalf("UnsafeDeallocate() = %v, want Success", code)
	}
	if code := a.UnsafeDeallocate(h); code != result.DoubleFree {
		t.Fatalf("second UnsafeDeallocate() = %v, want DoubleFree", code)
	}
}

func TestBackgroundGrowerAddsChunks(t *testing.T) {
	a, code := New[int, uint32](Config[uint32]{
		ChunkSize:      4,
		InitialSize:    4,
		AllocThreshold: 2,
	})
	if code != result.Success {
		t.Fatalf("New() = %v, want Success", code)
	}
	t.Cleanup(a.Release)

	var handles []Handle
	for i := 0; i < 3; i++ {
		_, h, code := a.Allocate()
		if code != result.Success {
			t.Fatalf("Allocate() #%d = %v, want Success", i, code)
		}
		handles = append(handles, h)
	}

	// The third allocation should have tripped AllocThreshold and woken
	// the grower; give it a moment to run.
	deadline := time.Now().Add(time.Second)
	for a.MaxLength() < 8 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := a.MaxLength(); got < 8 {
		t.Fatalf("MaxLength() = %d, want the background grower to have added a chunk", got)
	}
}
