package memory

import (
	"fmt"

	"github.com/phuslu/log"

	"github.com/cubed-guy/text-os/internal/format"
)

// entriesPerTable is the number of 8-byte entries in a 4 KiB table.
const entriesPerTable = format.PageSize / format.WordSize

// PageTable is an x86_64-style four-level page table whose tables live in
// physical memory. Intermediate tables are allocated on demand from the frame
// allocator passed to MapTo. There is no TLB, so a new mapping is visible
// immediately.
//
// PageTable implements AddressSpace: Load64 and Store64 translate every
// access through the tables and fault on unmapped or read-only pages.
type PageTable struct {
	phys   *Physical
	root   Frame
	tables int // page-table frames in use, root included
	mapped int // present leaf entries
}

// NewPageTable allocates an empty PML4 from frames.
func NewPageTable(phys *Physical, frames FrameAllocator) (*PageTable, error) {
	root, ok := frames.AllocateFrame()
	if !ok {
		return nil, fmt.Errorf("memory: allocate root table: %w", ErrFrameAllocationFailed)
	}
	if !phys.ContainsFrame(root) {
		return nil, fmt.Errorf("memory: root table %v: %w", root, ErrOutOfRange)
	}
	phys.ZeroFrame(root)
	return &PageTable{phys: phys, root: root, tables: 1}, nil
}

// Root returns the frame holding the level-4 table.
func (pt *PageTable) Root() Frame { return pt.root }

// Tables returns how many frames the table hierarchy occupies.
func (pt *PageTable) Tables() int { return pt.tables }

// Mapped returns how many 4 KiB pages are currently mapped.
func (pt *PageTable) Mapped() int { return pt.mapped }

// MapTo maps page to frame with the given flags. FlagPresent is always added.
// Missing intermediate tables are allocated from frames and linked as
// present and writable.
func (pt *PageTable) MapTo(page Page, frame Frame, flags Flags, frames FrameAllocator) error {
	if !page.Start.IsCanonical() {
		return fmt.Errorf("map %v: %w", page, ErrNonCanonical)
	}
	if !pt.phys.ContainsFrame(frame) {
		return fmt.Errorf("map %v to %v: %w", page, frame, ErrOutOfRange)
	}

	table := pt.root
	for level := 4; level > 1; level-- {
		slot := entryAddr(table, page.Start.tableIndex(level))
		entry := pt.phys.ReadU64(slot)
		switch {
		case Flags(entry).Has(FlagPresent | FlagHugePage):
			return fmt.Errorf("map %v: level %d: %w", page, level, ErrParentEntryHugePage)
		case Flags(entry).Has(FlagPresent):
			table = Frame{Start: PhysAddr(entry & entryAddrMask)}
		default:
			next, ok := frames.AllocateFrame()
			if !ok {
				return fmt.Errorf("map %v: level %d table: %w", page, level-1, ErrFrameAllocationFailed)
			}
			if !pt.phys.ContainsFrame(next) {
				return fmt.Errorf("map %v: level %d table %v: %w", page, level-1, next, ErrOutOfRange)
			}
			pt.phys.ZeroFrame(next)
			pt.phys.WriteU64(slot, uint64(next.Start)|uint64(FlagPresent|FlagWritable))
			pt.tables++
			log.Trace().Int("level", level-1).Uint64("frame", uint64(next.Start)).Msg("allocated page table")
			table = next
		}
	}

	slot := entryAddr(table, page.Start.tableIndex(1))
	if entry := pt.phys.ReadU64(slot); Flags(entry).Has(FlagPresent) {
		return fmt.Errorf("map %v: already mapped to frame %#x: %w",
			page, entry&entryAddrMask, ErrPageAlreadyMapped)
	}
	pt.phys.WriteU64(slot, uint64(frame.Start)|uint64(flags|FlagPresent)&entryFlagMask)
	pt.mapped++
	return nil
}

// Translate returns the physical address that addr maps to.
func (pt *PageTable) Translate(addr VirtAddr) (PhysAddr, error) {
	entry, err := pt.leaf(addr)
	if err != nil {
		return 0, err
	}
	return PhysAddr(entry&entryAddrMask + addr.PageOffset()), nil
}

// FlagsOf returns the leaf flags of the page containing addr.
func (pt *PageTable) FlagsOf(addr VirtAddr) (Flags, error) {
	entry, err := pt.leaf(addr)
	if err != nil {
		return 0, err
	}
	return Flags(entry & entryFlagMask), nil
}

// Load64 implements Memory.
func (pt *PageTable) Load64(addr VirtAddr) uint64 {
	return pt.phys.ReadU64(pt.resolve(addr, false))
}

// Store64 implements Memory.
func (pt *PageTable) Store64(addr VirtAddr, v uint64) {
	pt.phys.WriteU64(pt.resolve(addr, true), v)
}

func (pt *PageTable) resolve(addr VirtAddr, write bool) PhysAddr {
	if uint64(addr)&format.WordAlignmentMask != 0 {
		fault(uint64(addr), write, ErrMisaligned)
	}
	entry, err := pt.leaf(addr)
	if err != nil {
		fault(uint64(addr), write, err)
	}
	if write && !Flags(entry).Has(FlagWritable) {
		fault(uint64(addr), write, ErrReadOnly)
	}
	return PhysAddr(entry&entryAddrMask + addr.PageOffset())
}

// leaf walks the four levels for addr and returns its present level-1 entry.
func (pt *PageTable) leaf(addr VirtAddr) (uint64, error) {
	if !addr.IsCanonical() {
		return 0, ErrNonCanonical
	}
	table := pt.root
	for level := 4; level >= 1; level-- {
		entry := pt.phys.ReadU64(entryAddr(table, addr.tableIndex(level)))
		if !Flags(entry).Has(FlagPresent) {
			return 0, ErrNotMapped
		}
		if level == 1 {
			return entry, nil
		}
		if Flags(entry).Has(FlagHugePage) {
			return 0, ErrHugeFrame
		}
		table = Frame{Start: PhysAddr(entry & entryAddrMask)}
	}
	return 0, ErrNotMapped
}

func entryAddr(table Frame, index uint64) PhysAddr {
	return table.Start + PhysAddr(index*format.WordSize)
}

var _ AddressSpace = (*PageTable)(nil)
var _ Memory = (*Flat)(nil)
