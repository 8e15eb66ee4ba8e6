// Package boot assembles a simulated machine and brings up the kernel heap
// on it: physical memory, the boot memory map, a frame allocator, a page
// table and finally the heap mapped into that page table.
package boot

import (
	"fmt"

	"github.com/phuslu/log"

	"github.com/cubed-guy/text-os/kernel/heap"
	"github.com/cubed-guy/text-os/kernel/memory"
)

// Machine is a booted machine.
type Machine struct {
	Phys      *memory.Physical
	MemoryMap memory.MemoryMap
	Frames    *memory.BootInfoFrameAllocator
	PageTable *memory.PageTable
	Heap      *heap.Heap
}

// Boot builds a machine from opts and initializes its heap. On failure every
// resource acquired so far is released.
func Boot(opts Options) (m *Machine, err error) {
	phys, err := memory.NewPhysical(opts.PhysicalSize, opts.Backing)
	if err != nil {
		return nil, fmt.Errorf("boot: physical memory: %w", err)
	}
	booted := false
	defer func() {
		if !booted {
			_ = phys.Close()
		}
	}()

	memMap := opts.MemoryMap
	if memMap == nil {
		memMap = memory.DefaultMemoryMap(opts.PhysicalSize)
	}
	frames := memory.NewBootInfoFrameAllocator(memMap)

	pt, err := memory.NewPageTable(phys, frames)
	if err != nil {
		return nil, fmt.Errorf("boot: page table: %w", err)
	}
	log.Debug().
		Uint64("phys_size", opts.PhysicalSize).
		Str("backing", string(phys.Backing())).
		Uint64("root", uint64(pt.Root().Start)).
		Msg("page table ready")

	h, err := selectHeap(opts)
	if err != nil {
		return nil, fmt.Errorf("boot: %w", err)
	}
	if err := h.Init(pt, frames); err != nil {
		return nil, fmt.Errorf("boot: %w", err)
	}

	log.Info().
		Int("frames_used", frames.Allocated()).
		Int("page_tables", pt.Tables()).
		Msg("boot complete")

	booted = true
	return &Machine{
		Phys:      phys,
		MemoryMap: memMap,
		Frames:    frames,
		PageTable: pt,
		Heap:      h,
	}, nil
}

func selectHeap(opts Options) (*heap.Heap, error) {
	if !opts.Global {
		return heap.New(opts.Heap)
	}
	h := heap.Global()
	if err := h.Configure(opts.Heap); err != nil {
		return nil, err
	}
	return h, nil
}

// Close releases physical memory. The machine must not be used afterwards.
func (m *Machine) Close() error {
	return m.Phys.Close()
}
