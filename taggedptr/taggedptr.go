// Package taggedptr implements a single machine word that packs a slot
// index, a small flag set and an ABA counter together, so that a CAS on
// the word updates all three atomically.
//
// This is the Go counterpart of the original C++ library's
// memory_address<data_t,data_size_t>: on a 64-bit host that type packs a
// 48-bit pointer, 4 flag bits and a 12-bit counter into one uint64. Go
// offers no bitfields and no safe way to stash a truncated heap pointer
// in an atomic word across a garbage collection cycle, so AddrTag packs
// a slot index instead of an address. Indices need far fewer bits than
// pointers, so the split here is 32/4/28 rather than 48/4/12 — the
// resulting word is still a single CAS-able uint64, which is the
// property that actually defeats ABA.
package taggedptr


const (
	addrBits    = 32
	flagBits    = 4
	counterBits = 64 - addrBits - flagBits

	addrMask    = (uint64(1) << addrBits) - 1
	flagMask    = (uint64(1) << flagBits) - 1
	counterMask = (uint64(1) << counterBits) - 1

	flagShift    = addrBits
	counterShift = addrBits + flagBits
)

// Flag is a bit within the flag field of an AddrTag.
type Flag uint64

// FlagInUse marks a slot as currently allocated (IN_USE in spec terms).
// It is the only mandatory flag; callers are free to define additional
// bits up to flagBits wide.
const FlagInUse Flag = 1 << 0

// MaxCounter is the largest ABA counter value representable; AddCounter
// wraps modulo MaxCounter+1.
const MaxCounter = counterMask

// AddrTag is a value type: (index, flags, counter) packed into one
// uint64. All methods here are word-local and non-atomic — wrap an
// AddrTag in an atomic.Uint64 (via its bit pattern, see Bits/FromBits)
// at the call site to get atomic semantics, exactly as the original
// header documents.
type AddrTag uint64

// Nil is the zero value: index 0 ("no slot"), no flags, counter 0.
const Nil AddrTag = 0

// New builds an AddrTag from its three fields. addr must fit in
// addrBits; addr==0 is reserved to mean "no slot" (nil).
func New(addr uint32, flags Flag, counter uint32) AddrTag {
	return AddrTag((uint64(addr) & addrMask) |
		((uint64(flags) & flagMask) << flagShift) |
		((uint64(counter) & counterMask) << counterShift))
}

// Bits returns the raw uint64 representation, for storing in an
// atomic.Uint64.
func (t AddrTag) Bits() uint64 { return uint64(t) }

// FromBits reinterprets a raw uint64 (as loaded from an atomic.Uint64)
// as an AddrTag.
func FromBits(bits uint64) AddrTag { return AddrTag(bits) }

// Addr returns the packed slot index. 0 means "no slot" (nil).
func (t AddrTag) Addr() uint32 { return uint32(uint64(t) & addrMask) }

// IsNil reports whether the address field is 0.
func (t AddrTag) IsNil() bool { return t.Addr() == 0 }

// WithAddr returns a copy of t with the address field replaced.
func (t AddrTag) WithAddr(addr uint32) AddrTag {
	return AddrTag((uint64(t) &^ addrMask) | (uint64(addr) & addrMask))
}

// Flags returns the packed flag bits.
func (t AddrTag) Flags() Flag { return Flag((uint64(t) >> flagShift) & flagMask) }

// TestFlag reports whether f is set.
func (t AddrTag) TestFlag(f Flag) bool { return t.Flags()&f != 0 }

// SetFlag returns a copy of t with f set.
func (t AddrTag) SetFlag(f Flag) AddrTag {
	return AddrTag(uint64(t) | ((uint64(f) & flagMask) << flagShift))
}

// UnsetFlag returns a copy of t with f cleared.
func (t AddrTag) UnsetFlag(f Flag) AddrTag {
	return AddrTag(uint64(t) &^ ((uint64(f) & flagMask) << flagShift))
}

// UnsetAll returns a copy of t with every flag cleared.
func (t AddrTag) UnsetAll() AddrTag {
	return AddrTag(uint64(t) &^ (flagMask << flagShift))
}

// Counter returns the ABA stamp.
func (t AddrTag) Counter() uint32 { return uint32((uint64(t) >> counterShift) & counterMask) }

// WithCounter returns a copy of t with the counter field replaced.
func (t AddrTag) WithCounter(counter uint32) AddrTag {
	return AddrTag((uint64(t) &^ (counterMask << counterShift)) |
		((uint64(counter) & counterMask) << counterShift))
}

// AddCounter returns a copy of t with the counter incremented by delta,
// wrapping modulo 2^counterBits. Used to bump the ABA stamp on every
// successful free-list push.
func (t AddrTag) AddCounter(delta uint32) AddrTag {
	c := (t.Counter() + delta) & uint32(counterMask)
	return t.WithCounter(c)
}

// SubCounter is the inverse of AddCounter.
func (t AddrTag) SubCounter(delta uint32) AddrTag {
	c := uint32((uint64(t.Counter()) - uint64(delta)) & counterMask)
	return t.WithCounter(c)
}

// Reset rewrites all three fields at once, matching memory_address::reset.
func Reset(addr uint32, flags Flag, counter uint32) AddrTag {
	return New(addr, flags, counter)
}

// BitWidths returns (addrBits, flagBits, counterBits) for callers that
// need to validate a configuration (e.g. registry table width) against
// the word layout.
func BitWidths() (addr, flag, counter int) { return addrBits, flagBits, counterBits }
