package alloc

import (
	"iter"

	"github.com/cubed-guy/text-os/internal/buf"
	"github.com/cubed-guy/text-os/internal/format"
)

// FreeListAllocator is a first-fit allocator over a singly-linked list of
// free regions whose nodes live inside the regions themselves.
//
// Each free region begins with a node (see format.NodeSize):
//
//	0x00  size  uint64  byte length of the region, node included
//	0x08  next  uint64  address of the next free region, 0 ends the list
//
// New regions are pushed at the head. Adjacent regions are never merged, so
// the heap fragments over time.
type FreeListAllocator struct {
	mem    Memory
	region Region

	// head is the address of the first free region. The allocator itself
	// plays the role of the sentinel node, so unlinking the first region
	// and unlinking any other region share a code path.
	head Addr

	initialized bool
	stats       Stats
}

// NewFreeList returns an empty, uninitialized FreeListAllocator.
func NewFreeList() *FreeListAllocator {
	return &FreeListAllocator{}
}

// Init binds the allocator to region and seeds the list with the whole of it.
func (a *FreeListAllocator) Init(mem Memory, region Region) error {
	if a.initialized {
		return ErrAlreadyInitialized
	}
	if err := region.Validate(); err != nil {
		return err
	}
	a.mem = mem
	a.region = region
	a.initialized = true
	a.AddFreeRegion(region.Start, region.Size)
	return nil
}

// Alloc unlinks the first free region that fits the normalized layout.
//
// If the fitted block leaves a tail of at least one node it is pushed back on
// the list; a shorter tail is handed out with the block. An alignment gap at
// the front of the region is pushed back when it can hold a node and is
// otherwise lost until the heap is reinitialized.
func (a *FreeListAllocator) Alloc(layout Layout) (Addr, error) {
	if !a.initialized {
		a.stats.recordFail()
		return Null, ErrNotInitialized
	}
	size, align, ok := normalizeLayout(layout)
	if !ok {
		return a.fail(layout, "size overflow")
	}

	prev := Null
	for cur := a.head; cur != Null; {
		node := readNode(a.mem, a.region, cur)
		a.stats.RegionsScanned++

		start, end, fits := fitRegion(node, size, align)
		if !fits {
			prev, cur = cur, node.next
			continue
		}

		a.unlink(prev, node.next)
		if gap := uint64(start - node.addr); gap >= format.NodeSize {
			a.AddFreeRegion(node.addr, gap)
			a.stats.Splits++
		}
		if tail := uint64(node.end() - end); tail > 0 {
			a.AddFreeRegion(end, tail)
			a.stats.Splits++
		} else if uint64(end-start) > size {
			a.stats.WholeRegions++
		}
		a.stats.recordAlloc(layout)
		return start, nil
	}
	return a.fail(layout, "no fitting region")
}

// Dealloc pushes the block back on the list as a region of the normalized
// layout size. Any sliver handed out with the block is not recovered.
func (a *FreeListAllocator) Dealloc(ptr Addr, layout Layout) {
	size, _, ok := normalizeLayout(layout)
	assertf(ok, "dealloc of impossible %v", layout)
	a.AddFreeRegion(ptr, size)
	a.stats.recordFree(layout)
}

// AddFreeRegion pushes [addr, addr+size) onto the head of the free list.
// The region must be node aligned, at least one node long, inside the heap
// and not already free.
func (a *FreeListAllocator) AddFreeRegion(addr Addr, size uint64) {
	assertf(format.IsAligned(uint64(addr), format.NodeAlign), "free region at %#x is not node aligned", uint64(addr))
	assertf(size >= format.NodeSize, "free region of %d bytes cannot hold a node", size)
	writeNode(a.mem, a.region, freeNode{addr: addr, size: size, next: a.head})
	a.head = addr
}

// unlink makes the node after prev point at next. A Null prev is the
// sentinel head.
func (a *FreeListAllocator) unlink(prev, next Addr) {
	if prev == Null {
		a.head = next
		return
	}
	setNodeNext(a.mem, a.region, prev, next)
}

func (a *FreeListAllocator) fail(layout Layout, reason string) (Addr, error) {
	a.stats.recordFail()
	logFailure("linked_list", layout, reason)
	return Null, ErrNoSpace
}

// FreeRegions yields the free list from head to tail.
func (a *FreeListAllocator) FreeRegions() iter.Seq[Region] {
	return func(yield func(Region) bool) {
		for cur := a.head; cur != Null; {
			node := readNode(a.mem, a.region, cur)
			if !yield(Region{Start: node.addr, Size: node.size}) {
				return
			}
			cur = node.next
		}
	}
}

// FreeBytes returns the total size of all free regions.
func (a *FreeListAllocator) FreeBytes() uint64 {
	var total uint64
	for r := range a.FreeRegions() {
		total += r.Size
	}
	return total
}

// Region returns the heap region, or the zero Region before Init.
func (a *FreeListAllocator) Region() Region { return a.region }

// Stats returns a snapshot of the allocator statistics.
func (a *FreeListAllocator) Stats() Stats { return a.stats }

// normalizeLayout raises size to at least one node and rounds it to the node
// alignment, and raises align to at least the node alignment. Every block
// handed out can therefore hold a node once it is freed.
func normalizeLayout(layout Layout) (size, align uint64, ok bool) {
	size = max(layout.Size, format.NodeSize)
	size, ok = format.AlignUpChecked(size, format.NodeAlign)
	if !ok {
		return 0, 0, false
	}
	return size, max(layout.Align, format.NodeAlign), true
}

// fitRegion places size bytes at align inside node. end is the first address
// past the block handed out; it is extended to the end of the region when the
// remainder could not hold a node.
func fitRegion(node freeNode, size, align uint64) (start, end Addr, ok bool) {
	s, ok := format.AlignUpChecked(uint64(node.addr), align)
	if !ok {
		return Null, Null, false
	}
	e, ok := buf.AddU64(s, size)
	if !ok || e > uint64(node.end()) {
		return Null, Null, false
	}
	if excess := uint64(node.end()) - e; excess > 0 && excess < format.NodeSize {
		e = uint64(node.end())
	}
	return Addr(s), Addr(e), true
}
