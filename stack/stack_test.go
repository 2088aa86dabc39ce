package stack

import (
	"testing"

	"github.com/fe-dagostino/lockfree-go/result"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestStackLIFOOrder(t *testing.T) {
	for _, impl := range []Impl{Raw, Mutex, Spinlock, Lockfree} {
		s, code := New[int, uint32](impl, 4)
		if code != result.Success {
			t.Fatalf("New(%v) = %v, want Success", impl, code)
		}

		for i := 1; i <= 5; i++ {
			if code := s.Push(i); code != result.Success {
				t.Fatalf("Push(%d) = %v, want Success", i, code)
			}
		}

		for i := 5; i >= 1; i-- {
			var out int
			if code := s.Pop(&out); code != result.Success {
				t.Fatalf("Pop() = %v, want Success", code)
			}
			if out != i {
				t.Fatalf("Pop() = %d, want %d (LIFO order)", out, i)
			}
		}

		var out int
		if code := s.Pop(&out); code != result.Empty {
			t.Fatalf("Pop() on empty stack = %v, want Empty", code)
		}
	}
}

func TestStackSizeAndClear(t *testing.T) {
	s, _ := New[int, uint32](Mutex, 4)
	s.Push(1)
	s.Push(2)
	s.Push(3)
	if got := s.Size(); got != 3 {
		t.Fatalf("Size() = %d, want 3", got)
	}
	s.Clear()
	if !s.Empty() {
		t.Fatal("stack should be Empty after Clear")
	}
}

func TestStackLockfreeConcurrentPushPop(t *testing.T) {
	s, _ := New[int, uint32](Lockfree, 8)

	const producers = 8
	const perProducer = 200

	var g errgroup.Group
	for p := 0; p < producers; p++ {
		g.Go(func() error {
			for i := 0; i < perProducer; i++ {
				for s.Push(i) != result.Success {
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	count := 0
	var out int
	for s.Pop(&out) == result.Success {
		count++
	}
	require.Equal(t, producers*perProducer, count, "every pushed element should be drainable exactly once")
}
