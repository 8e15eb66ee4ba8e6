// Package heap maps the kernel heap region and routes allocation requests to
// the configured allocator.
package heap

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/phuslu/log"

	"github.com/cubed-guy/text-os/kernel/alloc"
	"github.com/cubed-guy/text-os/kernel/memory"
)

// Lifecycle states of a Heap.
const (
	stateEmpty int32 = iota
	stateInitializing
	stateReady
)

// Heap owns one heap region and the allocator serving it.
//
// A Heap starts empty. Init maps the region and initializes the allocator
// exactly once; until it has succeeded, Alloc fails with ErrNotInitialized.
// A failed Init may be retried. Alloc and Dealloc are safe for concurrent use.
type Heap struct {
	state atomic.Int32

	config    Config
	allocator alloc.HeapAllocator
	mem       memory.Memory
	pages     int
}

// New returns an empty heap with the given configuration.
func New(config Config) (*Heap, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Heap{config: config}, nil
}

// Configure replaces the configuration of a heap that has not been
// initialized.
func (h *Heap) Configure(config Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	if !h.state.CompareAndSwap(stateEmpty, stateInitializing) {
		return h.busy()
	}
	h.config = config
	h.state.Store(stateEmpty)
	return nil
}

func (h *Heap) busy() error {
	if h.state.Load() == stateInitializing {
		return ErrInitInProgress
	}
	return ErrAlreadyInitialized
}

// Init maps every page of the heap region as present and writable, taking
// frames from frames, then initializes the allocator over the region.
//
// The first mapping failure aborts Init and is returned; pages mapped before
// it stay mapped. The heap remains uninitialized after any failure.
// A call made while another Init runs returns ErrInitInProgress.
func (h *Heap) Init(space memory.AddressSpace, frames memory.FrameAllocator) error {
	if !h.state.CompareAndSwap(stateEmpty, stateInitializing) {
		return h.busy()
	}
	ready := false
	defer func() {
		if ready {
			h.state.Store(stateReady)
		} else {
			h.state.Store(stateEmpty)
		}
	}()

	region := h.config.Region()
	pages, err := mapRegion(space, frames, region)
	if err != nil {
		return fmt.Errorf("heap: map %v: %w", region, err)
	}

	allocator, err := h.config.newAllocator()
	if err != nil {
		return err
	}
	if err := allocator.Init(space, region); err != nil {
		return fmt.Errorf("heap: init %s allocator: %w", h.config.Allocator, err)
	}

	h.allocator = allocator
	h.mem = space
	h.pages = pages
	ready = true

	log.Info().
		Str("allocator", string(h.config.Allocator)).
		Str("region", region.String()).
		Int("pages", pages).
		Msg("heap initialized")
	return nil
}

// mapRegion maps every page touching region and returns how many it mapped.
func mapRegion(space memory.Mapper, frames memory.FrameAllocator, region alloc.Region) (int, error) {
	first, last, ok := memory.PagesCovering(region.Start, region.Size)
	if !ok {
		return 0, fmt.Errorf("%w: %v", alloc.ErrBadRegion, region)
	}
	mapped := 0
	for page := range memory.PageRangeInclusive(first, last) {
		frame, ok := frames.AllocateFrame()
		if !ok {
			return mapped, fmt.Errorf("%v: %w", page, memory.ErrFrameAllocationFailed)
		}
		if err := space.MapTo(page, frame, memory.FlagPresent|memory.FlagWritable, frames); err != nil {
			return mapped, err
		}
		mapped++
	}
	return mapped, nil
}

// Alloc allocates from the heap. It returns (alloc.Null, ErrNotInitialized)
// before Init has succeeded and (alloc.Null, alloc.ErrNoSpace) on exhaustion.
func (h *Heap) Alloc(layout alloc.Layout) (alloc.Addr, error) {
	if h.state.Load() != stateReady {
		return alloc.Null, ErrNotInitialized
	}
	return h.allocator.Alloc(layout)
}

// Dealloc returns a block obtained from Alloc with the same layout.
func (h *Heap) Dealloc(ptr alloc.Addr, layout alloc.Layout) {
	if h.state.Load() != stateReady {
		panic("heap: dealloc before init")
	}
	h.allocator.Dealloc(ptr, layout)
}

// Initialized reports whether Init has succeeded.
func (h *Heap) Initialized() bool { return h.state.Load() == stateReady }

// Config returns the heap configuration.
func (h *Heap) Config() Config { return h.config }

// Region returns the heap region.
func (h *Heap) Region() alloc.Region { return h.config.Region() }

// Pages returns the number of pages mapped by Init.
func (h *Heap) Pages() int { return h.pages }

// Memory returns the address space the heap lives in, or nil before Init.
func (h *Heap) Memory() memory.Memory {
	if !h.Initialized() {
		return nil
	}
	return h.mem
}

// Stats returns allocator statistics, or the zero Stats before Init.
func (h *Heap) Stats() alloc.Stats {
	if !h.Initialized() {
		return alloc.Stats{}
	}
	if r, ok := h.allocator.(alloc.StatsReporter); ok {
		return r.Stats()
	}
	return alloc.Stats{}
}

var global = sync.OnceValue(func() *Heap {
	return &Heap{config: DefaultConfig()}
})

// Global returns the process-wide heap.
func Global() *Heap { return global() }

// Init initializes the process-wide heap.
func Init(space memory.AddressSpace, frames memory.FrameAllocator) error {
	return Global().Init(space, frames)
}

// Alloc allocates from the process-wide heap.
func Alloc(layout alloc.Layout) (alloc.Addr, error) {
	return Global().Alloc(layout)
}

// Dealloc returns a block to the process-wide heap.
func Dealloc(ptr alloc.Addr, layout alloc.Layout) {
	Global().Dealloc(ptr, layout)
}
