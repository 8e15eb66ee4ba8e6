// Package alloc provides the kernel heap allocators.
//
// # Overview
//
// Every allocator manages a single contiguous Region of virtual memory that
// is already mapped and writable. Allocators never hold Go pointers into the
// heap: bookkeeping that lives inside free memory is read and written as
// 64-bit little-endian words through the Memory interface, so a heap can be
// backed by a simulated page table or by a flat byte slice in tests.
//
// # Implementations
//
// BumpAllocator: monotonic pointer
//
//   - O(1) allocation, no per-block overhead
//   - Memory is reclaimed only when every allocation has been freed
//
// FreeListAllocator: first-fit linked list
//
//   - Free regions carry a 16-byte node (size, next) at their start
//   - Tails that can hold a node are split off and pushed back
//   - No coalescing; fragmentation accumulates
//
// SegregatedAllocator: power-of-two size classes
//
//   - O(1) allocation and deallocation on a class hit
//   - Freed blocks carry an 8-byte link and stay in their class
//   - Misses and requests above the largest class use a FreeListAllocator
//
// NullAllocator: refuses every allocation
//
// # Sharing
//
// The allocators are not safe for concurrent use. Wrap one in Locked to
// share it; Locked serializes every call with a SpinLock.
//
//	heap := alloc.NewLocked(alloc.NewFreeList())
//	if err := heap.Init(mem, alloc.Region{Start: start, Size: size}); err != nil {
//	    return err
//	}
//	ptr, err := heap.Alloc(alloc.Layout{Size: 64, Align: 8})
//	if err != nil {
//	    return err // alloc.ErrNoSpace
//	}
//	defer heap.Dealloc(ptr, alloc.Layout{Size: 64, Align: 8})
//
// # Failure
//
// Exhaustion and address-arithmetic overflow both return (Null, ErrNoSpace)
// and leave the allocator unchanged. Corrupt bookkeeping and contract
// violations detected on the way (misaligned headers, headers outside the
// region, class blocks too small for the freed layout) panic.
//
// # Debugging
//
// Set TEXTOS_LOG_ALLOC=1 to log every failed allocation at debug level.
package alloc
