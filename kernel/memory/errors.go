package memory

import (
	"errors"
	"fmt"
)

var (
	// ErrFrameAllocationFailed indicates that the frame allocator had no frame
	// left, either for the page itself or for an intermediate page table.
	ErrFrameAllocationFailed = errors.New("memory: frame allocation failed")

	// ErrPageAlreadyMapped indicates that MapTo was asked to map a page that
	// already has a present leaf entry.
	ErrPageAlreadyMapped = errors.New("memory: page already mapped")

	// ErrParentEntryHugePage indicates that a parent entry on the walk maps a
	// huge page, so no 4 KiB mapping can be installed below it.
	ErrParentEntryHugePage = errors.New("memory: parent entry is a huge page")

	// ErrHugeFrame indicates that translation hit a huge-page entry. Huge
	// pages are not supported.
	ErrHugeFrame = errors.New("memory: huge frames are not supported")

	// ErrNotMapped indicates that no present mapping exists for an address.
	ErrNotMapped = errors.New("memory: address not mapped")

	// ErrNonCanonical indicates a virtual address outside the canonical
	// 48-bit ranges.
	ErrNonCanonical = errors.New("memory: non-canonical address")

	// ErrReadOnly indicates a store through a mapping without the writable flag.
	ErrReadOnly = errors.New("memory: write to read-only page")

	// ErrMisaligned indicates a word access at an address that is not 8-byte aligned.
	ErrMisaligned = errors.New("memory: misaligned word access")

	// ErrOutOfRange indicates an access beyond the end of the backing memory.
	ErrOutOfRange = errors.New("memory: access out of range")

	// ErrBadSize indicates a physical memory size that is zero or not a
	// multiple of the page size.
	ErrBadSize = errors.New("memory: size must be a non-zero multiple of the page size")

	// ErrUnknownBacking indicates an unrecognised Backing value.
	ErrUnknownBacking = errors.New("memory: unknown backing")
)

// Fault describes an access that the memory system refused. Memory accessors
// panic with a *Fault, the way a page fault would stop a kernel that touched
// an unmapped heap address.
type Fault struct {
	Addr  uint64
	Write bool
	Err   error
}

func (f *Fault) Error() string {
	op := "read"
	if f.Write {
		op = "write"
	}
	return fmt.Sprintf("memory: fault on %s at %#x: %v", op, f.Addr, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

func fault(addr uint64, write bool, err error) {
	panic(&Fault{Addr: addr, Write: write, Err: err})
}
