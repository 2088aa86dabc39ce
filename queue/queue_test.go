package queue

import (
	"testing"

	"github.com/fe-dagostino/lockfree-go/result"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestQueueFIFOOrder(t *testing.T) {
	for _, impl := range []Impl{Raw, Mutex, Spinlock, Lockfree} {
		q, code := New[int, uint32](impl, 4)
		if code != result.Success {
			t.Fatalf("New(%v) = %v, want Success", impl, code)
		}

		for i := 1; i <= 5; i++ {
			if code := q.Push(i); code != result.Success {
				t.Fatalf("Push(%d) = %v, want Success", i, code)
			}
		}

		for i := 1; i <= 5; i++ {
			var out int
			if code := q.Pop(&out); code != result.Success {
				t.Fatalf("Pop() = %v, want Success", code)
			}
			if out != i {
				t.Fatalf("Pop() = %d, want %d (FIFO order)", out, i)
			}
		}

		var out int
		if code := q.Pop(&out); code != result.Empty {
			t.Fatalf("Pop() on empty queue = %v, want Empty", code)
		}
	}
}

func TestQueueSizeAndEmpty(t *testing.T) {
	q, _ := New[int, uint32](Mutex, 4)
	if !q.Empty() {
		t.Fatal("new queue should be Empty")
	}
	q.Push(1)
	q.Push(2)
	if got := q.Size(); got != 2 {
		t.Fatalf("Size() = %d, want 2", got)
	}
	q.Clear()
	if !q.Empty() {
		t.Fatal("queue should be Empty after Clear")
	}
}

func TestQueueLockUnlockOnlyOnLockingVariants(t *testing.T) {
	q, _ := New[int, uint32](Mutex, 4)
	if code := q.Lock(); code != result.Success {
		t.Fatalf("Lock() = %v, want Success", code)
	}
	q.Unlock()

	raw, _ := New[int, uint32](Raw, 4)
	if code := raw.Lock(); code != result.NotImplemented {
		t.Fatalf("Lock() on Raw queue = %v, want NotImplemented", code)
	}
}

func TestQueueLockfreeConcurrentPushPop(t *testing.T) {
	q, _ := New[int, uint32](Lockfree, 8)

	const producers = 8
	const perProducer = 200

	var g errgroup.Group
	for p := 0; p < producers; p++ {
		g.Go(func() error {
			for i := 0; i < perProducer; i++ {
				for q.Push(i) != result.Success {
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	count := 0
	var out int
	for q.Pop(&out) == result.Success {
		count++
	}
	require.Equal(t, producers*perProducer, count, "every pushed element should be drainable exactly once")
}
