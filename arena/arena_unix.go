//go:build linux || darwin

package arena

import "golang.org/x/sys/unix"

// MmapBackend satisfies Backend with anonymous, private virtual-memory
// mappings obtained through golang.org/x/sys/unix, grounded on the
// original library's "OS memory backend" option — a second allocator
// trait alongside the heap-aligned default, now wired to a real
// ecosystem dependency instead of a raw syscall wrapper.
type MmapBackend struct{}

func (MmapBackend) Allocate(n int) []byte {
	b, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil
	}
	return b
}

func (MmapBackend) Free(b []byte) {
	if len(b) == 0 {
		return
	}
	_ = unix.Munmap(b)
}
