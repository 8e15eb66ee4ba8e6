// Package memory is the paging collaborator of the kernel heap: physical
// memory with selectable backing, 4 KiB pages and frames, a boot memory map
// with frame allocators, and an x86_64-style four-level page table that maps
// virtual pages onto frames and serves word loads and stores through the
// mapping.
//
// The heap allocators only ever see the Memory interface; everything else in
// this package exists so that a heap region can be mapped once at boot and
// then used through virtual addresses.
package memory

import (
	"fmt"
	"iter"

	"github.com/cubed-guy/text-os/internal/format"
)

// VirtAddr is a 64-bit virtual address.
type VirtAddr uint64

// PhysAddr is a 64-bit physical address (an offset into Physical memory).
type PhysAddr uint64

func (a VirtAddr) String() string { return fmt.Sprintf("v%#x", uint64(a)) }
func (a PhysAddr) String() string { return fmt.Sprintf("p%#x", uint64(a)) }

// PageOffset returns the offset of a within its 4 KiB page.
func (a VirtAddr) PageOffset() uint64 {
	return uint64(a) & format.PageAlignmentMask
}

// IsCanonical reports whether a is a canonical 48-bit x86_64 address: bits
// 47..63 are either all clear or all set.
func (a VirtAddr) IsCanonical() bool {
	top := uint64(a) >> 47
	return top == 0 || top == 0x1ffff
}

// tableIndex returns the 9-bit page-table index of a for the given level
// (4 = PML4 ... 1 = page table).
func (a VirtAddr) tableIndex(level int) uint64 {
	return (uint64(a) >> (format.PageShift + 9*uint(level-1))) & (entriesPerTable - 1)
}

// Page is a 4 KiB virtual page identified by its start address.
type Page struct {
	Start VirtAddr
}

// Frame is a 4 KiB physical frame identified by its start address.
type Frame struct {
	Start PhysAddr
}

func (p Page) String() string  { return fmt.Sprintf("page(%#x)", uint64(p.Start)) }
func (f Frame) String() string { return fmt.Sprintf("frame(%#x)", uint64(f.Start)) }

// PageContaining returns the page that contains addr.
func PageContaining(addr VirtAddr) Page {
	return Page{Start: VirtAddr(format.AlignDown(uint64(addr), format.PageSize))}
}

// FrameContaining returns the frame that contains addr.
func FrameContaining(addr PhysAddr) Frame {
	return Frame{Start: PhysAddr(format.AlignDown(uint64(addr), format.PageSize))}
}

// PageRangeInclusive yields every page from first to last, both included.
// An empty sequence is produced when last precedes first.
func PageRangeInclusive(first, last Page) iter.Seq[Page] {
	return func(yield func(Page) bool) {
		if last.Start < first.Start {
			return
		}
		for start := first.Start; ; start += format.PageSize {
			if !yield(Page{Start: start}) {
				return
			}
			if start == last.Start {
				return
			}
		}
	}
}

// PagesCovering returns the inclusive page range spanning [start, start+size).
// ok is false when size is zero or the range wraps the address space.
func PagesCovering(start VirtAddr, size uint64) (first, last Page, ok bool) {
	if size == 0 {
		return Page{}, Page{}, false
	}
	end := uint64(start) + size - 1
	if end < uint64(start) {
		return Page{}, Page{}, false
	}
	return PageContaining(start), PageContaining(VirtAddr(end)), true
}
