package alloc

import (
	"github.com/cubed-guy/text-os/internal/buf"
	"github.com/cubed-guy/text-os/internal/format"
)

// BumpAllocator is an append-only allocator: allocation advances a pointer
// through the heap region and nothing is reused until every outstanding
// allocation has been returned, at which point the pointer snaps back to the
// region start.
//
// Key characteristics:
//   - O(1) initialization and allocation
//   - Zero memory overhead: no headers, no free lists
//   - Dealloc only decrements the live counter
//   - A single leaked allocation pins the whole heap
type BumpAllocator struct {
	region Region

	// next is the address where the next allocation will be attempted.
	// Invariant: region.Start <= next <= region.End().
	next Addr

	// live counts allocations not yet deallocated.
	live uint64

	initialized bool
	stats       Stats
}

// NewBump returns an empty, uninitialized BumpAllocator.
func NewBump() *BumpAllocator {
	return &BumpAllocator{}
}

// Init binds the allocator to region. The bump allocator never touches heap
// memory, so mem is accepted only to satisfy HeapAllocator.
func (ba *BumpAllocator) Init(_ Memory, region Region) error {
	if ba.initialized {
		return ErrAlreadyInitialized
	}
	if err := region.Validate(); err != nil {
		return err
	}
	ba.region = region
	ba.next = region.Start
	ba.initialized = true
	return nil
}

// Alloc carves layout.Size bytes at the next layout.Align boundary.
func (ba *BumpAllocator) Alloc(layout Layout) (Addr, error) {
	if !ba.initialized {
		ba.stats.recordFail()
		return Null, ErrNotInitialized
	}

	start, ok := format.AlignUpChecked(uint64(ba.next), layout.Align)
	if !ok {
		return ba.fail(layout, "align overflow")
	}
	end, ok := buf.AddU64(start, layout.Size)
	if !ok {
		return ba.fail(layout, "size overflow")
	}
	if end > uint64(ba.region.End()) {
		return ba.fail(layout, "exhausted")
	}

	ba.next = Addr(end)
	ba.live++
	ba.stats.recordAlloc(layout)
	return Addr(start), nil
}

// Dealloc records the release of one allocation. When no allocations remain
// the whole region becomes available again. ptr and layout are ignored.
func (ba *BumpAllocator) Dealloc(_ Addr, layout Layout) {
	ba.stats.recordFree(layout)
	if ba.live == 0 {
		// Unbalanced dealloc; nothing is live so there is nothing to release.
		return
	}
	ba.live--
	if ba.live == 0 {
		ba.next = ba.region.Start
		ba.stats.Resets++
	}
}

func (ba *BumpAllocator) fail(layout Layout, reason string) (Addr, error) {
	ba.stats.recordFail()
	logFailure("bump", layout, reason)
	return Null, ErrNoSpace
}

// Next returns the current bump pointer.
func (ba *BumpAllocator) Next() Addr { return ba.next }

// Live returns the number of outstanding allocations.
func (ba *BumpAllocator) Live() uint64 { return ba.live }

// Region returns the heap region, or the zero Region before Init.
func (ba *BumpAllocator) Region() Region { return ba.region }

// Stats returns a snapshot of the allocator statistics.
func (ba *BumpAllocator) Stats() Stats { return ba.stats }
