package arena

// Backend abstracts the source of chunk memory, grounded on
// core::arena_allocator's allocator trait (allocate(bytes) → raw ptr,
// deallocate(raw, bytes)). The default HeapBackend lets the Go runtime
// and GC own chunk memory; MmapBackend (arena_unix.go, build-tagged)
// wraps golang.org/x/sys/unix.Mmap for callers that want chunks backed
// by anonymous virtual memory outside the GC heap.
type Backend interface {
	// Allocate returns n bytes of zeroed memory, or nil if the request
	// cannot be satisfied.
	Allocate(n int) []byte
	// Free releases memory previously returned by Allocate. Backends
	// that rely on the GC (HeapBackend) may treat this as a no-op.
	Free(b []byte)
}

// HeapBackend satisfies Backend with ordinary Go-heap allocations. It
// is the default for every Arena that does not specify one explicitly.
type HeapBackend struct{}

func (HeapBackend) Allocate(n int) []byte { return make([]byte, n) }

func (HeapBackend) Free(b []byte) {}
