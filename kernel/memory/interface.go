package memory

// Memory is word-granular access to a range of virtual addresses. Both
// addresses must be 8-byte aligned; implementations panic with a *Fault on
// misaligned, unmapped or read-only accesses.
//
// The heap allocators store their intrusive headers exclusively through this
// interface, so every reinterpretation of free memory is an explicit word
// read or write.
type Memory interface {
	Load64(addr VirtAddr) uint64
	Store64(addr VirtAddr, v uint64)
}

// FrameAllocator hands out unused physical frames. ok is false once the
// allocator is exhausted.
type FrameAllocator interface {
	AllocateFrame() (frame Frame, ok bool)
}

// Mapper installs and resolves page mappings. MapTo may draw frames from
// frames for intermediate page tables.
type Mapper interface {
	MapTo(page Page, frame Frame, flags Flags, frames FrameAllocator) error
	Translate(addr VirtAddr) (PhysAddr, error)
}

// AddressSpace is a Mapper whose mapped pages can be accessed as Memory.
type AddressSpace interface {
	Mapper
	Memory
}
