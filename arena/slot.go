package arena

import (
	"sync/atomic"

	"github.com/fe-dagostino/lockfree-go/taggedptr"
)

// Handle names a slot within an Arena by its 1-based index; Handle(0)
// is never issued to a live allocation and plays the role of the
// original library's null pointer.
type Handle uint32

// IsNil reports whether h refers to no slot.
func (h Handle) IsNil() bool { return h == 0 }

// Slot is one element of a chunk: a CAS-able link word used to thread
// the free list (and, once removed from it, to carry the IN_USE flag
// for double-free detection) plus the caller's payload.
//
// The original library's memory_address.counter does double duty as
// both an instance-index stamp and an ABA counter; here those two
// concerns are split (see the module's design notes on Open Question
// O1): owner is a write-once field set when the chunk is built, and
// link.Counter() is purely the ABA stamp bumped on every deallocate.
type Slot[T any] struct {
	link    atomic.Uint64
	owner   uint32
	payload T
}

func (s *Slot[T]) loadLink() taggedptr.AddrTag {
	return taggedptr.FromBits(s.link.Load())
}

func (s *Slot[T]) storeLink(t taggedptr.AddrTag) {
	s.link.Store(t.Bits())
}

func (s *Slot[T]) casLink(old, new taggedptr.AddrTag) bool {
	return s.link.CompareAndSwap(old.Bits(), new.Bits())
}
