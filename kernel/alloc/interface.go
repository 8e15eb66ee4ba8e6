package alloc

import "github.com/cubed-guy/text-os/kernel/memory"

// Addr is a type alias for the canonical virtual address type defined in kernel/memory.
type Addr = memory.VirtAddr

// Memory is a type alias for the canonical word accessor defined in kernel/memory.
// Allocators read and write their intrusive headers only through it.
type Memory = memory.Memory

// Allocator is the allocation contract every heap strategy implements.
//
// Implementations:
//   - BumpAllocator: monotonic pointer, bulk reclamation when nothing is live
//   - FreeListAllocator: first-fit over an intrusive LIFO free list
//   - SegregatedAllocator: power-of-two size classes with a free-list fallback
//   - NullAllocator: refuses every allocation
//
// Contract violations (non-power-of-two alignment, double free, freeing a
// pointer this allocator did not return) are undefined behaviour.
type Allocator interface {
	// Alloc returns the address of a block of at least layout.Size bytes
	// aligned to layout.Align. On exhaustion or address-arithmetic overflow
	// it returns (Null, ErrNoSpace) and leaves the allocator unchanged.
	Alloc(layout Layout) (Addr, error)

	// Dealloc returns a block obtained from Alloc with the same layout.
	Dealloc(ptr Addr, layout Layout)
}

// HeapAllocator is an Allocator that must be bound to a memory region once
// before use.
type HeapAllocator interface {
	Allocator

	// Init binds the allocator to region, accessed through mem. Every byte
	// of the region must be mapped, writable and otherwise unused. A second
	// call returns ErrAlreadyInitialized.
	Init(mem Memory, region Region) error
}

// StatsReporter is implemented by allocators that keep Stats.
type StatsReporter interface {
	Stats() Stats
}
