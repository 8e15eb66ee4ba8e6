package memory

import (
	"fmt"
	"iter"

	"github.com/cubed-guy/text-os/internal/format"
)

// RegionKind classifies a physical memory region in the boot memory map.
type RegionKind int

const (
	RegionUsable RegionKind = iota
	RegionReserved
	RegionBootloader
	RegionKernel
)

func (k RegionKind) String() string {
	switch k {
	case RegionUsable:
		return "usable"
	case RegionReserved:
		return "reserved"
	case RegionBootloader:
		return "bootloader"
	case RegionKernel:
		return "kernel"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseRegionKind converts a configuration string into a RegionKind.
func ParseRegionKind(s string) (RegionKind, error) {
	switch s {
	case "usable":
		return RegionUsable, nil
	case "reserved":
		return RegionReserved, nil
	case "bootloader":
		return RegionBootloader, nil
	case "kernel":
		return RegionKernel, nil
	default:
		return 0, fmt.Errorf("memory: unknown region kind %q", s)
	}
}

// MemoryRegion is one entry of the boot memory map: [Start, End).
type MemoryRegion struct {
	Start PhysAddr
	End   PhysAddr
	Kind  RegionKind
}

// MemoryMap is the bootloader's description of physical memory.
type MemoryMap []MemoryRegion

// lowMemoryEnd is the end of the low megabyte, which the default map keeps
// reserved for the bootloader and kernel image.
const lowMemoryEnd = 0x10_0000

// DefaultMemoryMap describes physSize bytes of physical memory: the first
// megabyte (or less, for tiny machines) is reserved and the rest is usable.
func DefaultMemoryMap(physSize uint64) MemoryMap {
	reserved := uint64(lowMemoryEnd)
	if physSize <= reserved {
		reserved = format.AlignDown(physSize/4, format.PageSize)
	}
	m := MemoryMap{}
	if reserved > 0 {
		m = append(m, MemoryRegion{Start: 0, End: PhysAddr(reserved), Kind: RegionBootloader})
	}
	if physSize > reserved {
		m = append(m, MemoryRegion{Start: PhysAddr(reserved), End: PhysAddr(physSize), Kind: RegionUsable})
	}
	return m
}

// UsableFrames yields every frame that lies entirely inside a usable region,
// in map order.
func (m MemoryMap) UsableFrames() iter.Seq[Frame] {
	return func(yield func(Frame) bool) {
		for _, r := range m {
			if r.Kind != RegionUsable {
				continue
			}
			start := format.AlignPage(uint64(r.Start))
			for addr := start; addr < uint64(r.End) && uint64(r.End)-addr >= format.PageSize; addr += format.PageSize {
				if !yield(Frame{Start: PhysAddr(addr)}) {
					return
				}
			}
		}
	}
}

// BootInfoFrameAllocator returns usable frames from a boot memory map in
// order. Frames are never returned to it.
type BootInfoFrameAllocator struct {
	regions MemoryMap
	region  int    // index of the region being consumed
	next    uint64 // next candidate frame address within regions[region]
	count   int
}

// NewBootInfoFrameAllocator creates a frame allocator over the usable regions
// of m. The caller must guarantee that those frames are really unused.
func NewBootInfoFrameAllocator(m MemoryMap) *BootInfoFrameAllocator {
	a := &BootInfoFrameAllocator{regions: m}
	if len(m) > 0 {
		a.next = format.AlignPage(uint64(m[0].Start))
	}
	return a
}

// AllocateFrame implements FrameAllocator.
func (a *BootInfoFrameAllocator) AllocateFrame() (Frame, bool) {
	for a.region < len(a.regions) {
		r := a.regions[a.region]
		if r.Kind == RegionUsable && a.next < uint64(r.End) && uint64(r.End)-a.next >= format.PageSize {
			f := Frame{Start: PhysAddr(a.next)}
			a.next += format.PageSize
			a.count++
			return f, true
		}
		a.region++
		if a.region < len(a.regions) {
			a.next = format.AlignPage(uint64(a.regions[a.region].Start))
		}
	}
	return Frame{}, false
}

// Allocated returns the number of frames handed out so far.
func (a *BootInfoFrameAllocator) Allocated() int { return a.count }

// EmptyFrameAllocator never has a frame to give.
type EmptyFrameAllocator struct{}

// AllocateFrame implements FrameAllocator.
func (EmptyFrameAllocator) AllocateFrame() (Frame, bool) { return Frame{}, false }
