package alloc

import (
	"fmt"

	"github.com/cubed-guy/text-os/internal/buf"
	"github.com/cubed-guy/text-os/internal/format"
)

// Null is the failure address. No heap region may contain it.
const Null Addr = 0

// Layout describes an allocation request: Size bytes aligned to Align.
// Align must be a non-zero power of two; allocators do not re-check it.
type Layout struct {
	Size  uint64
	Align uint64
}

// NewLayout validates align and returns the layout.
func NewLayout(size, align uint64) (Layout, error) {
	if !format.IsPowerOfTwo(align) {
		return Layout{}, fmt.Errorf("%w: %d", ErrBadAlign, align)
	}
	return Layout{Size: size, Align: align}, nil
}

// ArrayLayout returns the layout of count elements of elemSize bytes each.
// It fails with ErrNoSpace when the total size overflows.
func ArrayLayout(elemSize, count, align uint64) (Layout, error) {
	total, ok := buf.MulU64(elemSize, count)
	if !ok {
		return Layout{}, fmt.Errorf("%w: %d x %d bytes overflows", ErrNoSpace, count, elemSize)
	}
	return NewLayout(total, align)
}

func (l Layout) String() string {
	return fmt.Sprintf("layout(size=%d, align=%d)", l.Size, l.Align)
}

// Region is a heap memory region [Start, Start+Size). It is fixed once an
// allocator has been initialized with it.
type Region struct {
	Start Addr
	Size  uint64
}

// End returns the first address past the region.
func (r Region) End() Addr { return r.Start + Addr(r.Size) }

// Contains reports whether [addr, addr+n) lies inside the region.
func (r Region) Contains(addr Addr, n uint64) bool {
	if addr < r.Start {
		return false
	}
	_, err := buf.CheckRange(r.Size, uint64(addr-r.Start), n)
	return err == nil
}

// Validate reports whether the region can back a heap.
func (r Region) Validate() error {
	switch {
	case r.Size == 0:
		return fmt.Errorf("%w: empty", ErrBadRegion)
	case r.Start == Null:
		return fmt.Errorf("%w: starts at address 0", ErrBadRegion)
	}
	if _, ok := buf.AddU64(uint64(r.Start), r.Size); !ok {
		return fmt.Errorf("%w: %#x + %#x wraps", ErrBadRegion, uint64(r.Start), r.Size)
	}
	return nil
}

func (r Region) String() string {
	return fmt.Sprintf("[%#x, %#x)", uint64(r.Start), uint64(r.End()))
}
