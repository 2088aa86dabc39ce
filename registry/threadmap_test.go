package registry

import "testing"

func TestThreadMapAssignsStableIndices(t *testing.T) {
	m := NewThreadMap[string](4)

	a, ok := m.IndexOf("goroutine-a")
	if !ok {
		t.Fatal("IndexOf should succeed")
	}
	b, ok := m.IndexOf("goroutine-b")
	if !ok {
		t.Fatal("IndexOf should succeed")
	}
	if a == b {
		t.Fatal("distinct keys must get distinct indices")
	}

	again, ok := m.IndexOf("goroutine-a")
	if !ok || again != a {
		t.Fatalf("IndexOf(a) again = %d,%v want %d,true", again, ok, a)
	}
}

func TestThreadMapExhaustion(t *testing.T) {
	m := NewThreadMap[int](2)
	if _, ok := m.IndexOf(1); !ok {
		t.Fatal("first key should be assigned")
	}
	if _, ok := m.IndexOf(2); !ok {
		t.Fatal("second key should be assigned")
	}
	if _, ok := m.IndexOf(3); ok {
		t.Fatal("third distinct key should exceed the limit")
	}
}

func TestThreadMapRemove(t *testing.T) {
	m := NewThreadMap[string](4)
	m.IndexOf("x")
	if got := m.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}
	m.Remove("x")
	if got := m.Len(); got != 0 {
		t.Fatalf("Len() after Remove = %d, want 0", got)
	}
}
