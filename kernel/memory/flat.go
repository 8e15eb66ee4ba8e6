package memory

import (
	"github.com/cubed-guy/text-os/internal/buf"
	"github.com/cubed-guy/text-os/internal/format"
)

// Flat is Memory over a contiguous byte slice that is identity-mapped at a
// fixed virtual base: virtual address base+i is byte i of the slice. It is
// the simplest stand-in for an already-mapped heap region and is what the
// allocator tests run against.
type Flat struct {
	base VirtAddr
	buf  []byte
}

// NewFlat returns Flat memory covering [base, base+len(b)).
func NewFlat(base VirtAddr, b []byte) *Flat {
	return &Flat{base: base, buf: b}
}

// Base returns the first virtual address covered by f.
func (f *Flat) Base() VirtAddr { return f.base }

// Size returns the number of bytes covered by f.
func (f *Flat) Size() uint64 { return uint64(len(f.buf)) }

// Load64 implements Memory.
func (f *Flat) Load64(addr VirtAddr) uint64 {
	return buf.U64LE(f.word(addr, false))
}

// Store64 implements Memory.
func (f *Flat) Store64(addr VirtAddr, v uint64) {
	buf.PutU64LE(f.word(addr, true), v)
}

func (f *Flat) word(addr VirtAddr, write bool) []byte {
	if uint64(addr)&format.WordAlignmentMask != 0 {
		fault(uint64(addr), write, ErrMisaligned)
	}
	if addr < f.base {
		fault(uint64(addr), write, ErrNotMapped)
	}
	off := uint64(addr - f.base)
	if off > uint64(len(f.buf)) {
		fault(uint64(addr), write, ErrNotMapped)
	}
	w, ok := buf.Slice(f.buf, int(off), format.WordSize)
	if !ok {
		fault(uint64(addr), write, ErrNotMapped)
	}
	return w
}
