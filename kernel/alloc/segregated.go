package alloc

import (
	"iter"
	"slices"
)

// SegregatedAllocator keeps one LIFO list of free blocks per size class and
// falls back to a FreeListAllocator for list misses and oversized requests.
//
// A request is served by the smallest class whose block size covers both its
// size and alignment. Blocks always come from the fallback with
// Layout{block, block}, so every block is aligned to its own size and the
// alignment guarantee holds for any request the class accepts.
//
// Freed class blocks return to their class list, never to the fallback, so
// memory once taken by a class stays with that class.
type SegregatedAllocator struct {
	classes  *sizeClassTable
	heads    []Addr // head of each class list, Null when empty
	fallback *FreeListAllocator

	mem         Memory
	region      Region
	initialized bool
	stats       Stats
}

// NewSegregated creates an uninitialized SegregatedAllocator with the given
// size class configuration. If config is nil, uses DefaultConfig.
func NewSegregated(config *SizeClassConfig) (*SegregatedAllocator, error) {
	cfg := DefaultConfig
	if config != nil {
		cfg = *config
	}
	table, err := newSizeClassTable(cfg)
	if err != nil {
		return nil, err
	}
	return &SegregatedAllocator{
		classes:  table,
		heads:    make([]Addr, table.NumClasses()),
		fallback: NewFreeList(),
	}, nil
}

// Init initializes the fallback with region. Class lists start empty.
func (a *SegregatedAllocator) Init(mem Memory, region Region) error {
	if a.initialized {
		return ErrAlreadyInitialized
	}
	if err := a.fallback.Init(mem, region); err != nil {
		return err
	}
	a.mem = mem
	a.region = region
	a.initialized = true
	return nil
}

// Alloc pops the class list for layout, or obtains a fresh block from the
// fallback when the list is empty or the request is oversized.
func (a *SegregatedAllocator) Alloc(layout Layout) (Addr, error) {
	if !a.initialized {
		a.stats.recordFail()
		return Null, ErrNotInitialized
	}

	idx, ok := a.classes.classFor(layout.Size, layout.Align)
	if !ok {
		a.stats.Oversized++
		return a.fromFallback(layout, layout)
	}

	if head := a.heads[idx]; head != Null {
		a.heads[idx] = readLink(a.mem, a.region, head)
		a.stats.ClassHits++
		a.stats.recordAlloc(layout)
		return head, nil
	}

	a.stats.ClassMisses++
	block := a.classes.blockSize(idx)
	return a.fromFallback(layout, Layout{Size: block, Align: block})
}

func (a *SegregatedAllocator) fromFallback(layout, request Layout) (Addr, error) {
	ptr, err := a.fallback.Alloc(request)
	if err != nil {
		a.stats.recordFail()
		logFailure("fixed_size", layout, err.Error())
		return Null, err
	}
	a.stats.recordAlloc(layout)
	return ptr, nil
}

// Dealloc pushes a class-sized block onto its class list and hands
// oversized blocks back to the fallback.
func (a *SegregatedAllocator) Dealloc(ptr Addr, layout Layout) {
	idx, ok := a.classes.classFor(layout.Size, layout.Align)
	if !ok {
		a.fallback.Dealloc(ptr, layout)
		a.stats.recordFree(layout)
		return
	}

	block := a.classes.blockSize(idx)
	assertf(layout.Size <= block, "size %d exceeds class block %d", layout.Size, block)
	assertf(layout.Align <= block, "align %d exceeds class block %d", layout.Align, block)
	writeLink(a.mem, a.region, ptr, a.heads[idx])
	a.heads[idx] = ptr
	a.stats.recordFree(layout)
}

// ClassFor returns the block size that would serve layout. ok is false when
// the request bypasses the classes and goes to the fallback.
func (a *SegregatedAllocator) ClassFor(layout Layout) (block uint64, ok bool) {
	idx, ok := a.classes.classFor(layout.Size, layout.Align)
	if !ok {
		return 0, false
	}
	return a.classes.blockSize(idx), true
}

// BlockSizes returns the block size of every class, smallest first.
func (a *SegregatedAllocator) BlockSizes() []uint64 {
	return slices.Clone(a.classes.sizes)
}

// FreeBlocks yields the free blocks of the class with the given block size,
// most recently freed first. It yields nothing for an unknown block size.
func (a *SegregatedAllocator) FreeBlocks(block uint64) iter.Seq[Addr] {
	return func(yield func(Addr) bool) {
		idx := slices.Index(a.classes.sizes, block)
		if idx < 0 {
			return
		}
		for cur := a.heads[idx]; cur != Null; cur = readLink(a.mem, a.region, cur) {
			if !yield(cur) {
				return
			}
		}
	}
}

// Fallback returns the general-purpose allocator behind the classes.
func (a *SegregatedAllocator) Fallback() *FreeListAllocator { return a.fallback }

// Config returns the size class configuration.
func (a *SegregatedAllocator) Config() SizeClassConfig { return a.classes.config }

// Region returns the heap region, or the zero Region before Init.
func (a *SegregatedAllocator) Region() Region { return a.region }

// Stats returns a snapshot of the allocator statistics.
func (a *SegregatedAllocator) Stats() Stats { return a.stats }
