package memory

import (
	"fmt"
	"unsafe"

	"github.com/smasher164/mem"

	"github.com/cubed-guy/text-os/internal/format"
)

// Backing selects where the bytes of physical memory come from.
type Backing string

const (
	// BackingGo allocates physical memory as an ordinary Go byte slice.
	BackingGo Backing = "go"

	// BackingMalloc allocates physical memory outside the Go heap.
	BackingMalloc Backing = "malloc"

	// BackingMmap maps anonymous private memory directly from the OS. On
	// platforms without mmap support it behaves like BackingMalloc.
	BackingMmap Backing = "mmap"
)

// ParseBacking converts a configuration string into a Backing.
func ParseBacking(s string) (Backing, error) {
	switch b := Backing(s); b {
	case BackingGo, BackingMalloc, BackingMmap:
		return b, nil
	case "":
		return BackingGo, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBacking, s)
	}
}

// Physical is the machine's physical memory: a contiguous, zero-initialised
// run of bytes addressed from PhysAddr 0. It is not safe for concurrent use;
// the page table and heap serialise access above it.
type Physical struct {
	buf     []byte
	backing Backing
	release func() error
}

// NewPhysical allocates size bytes of physical memory from the given backing.
// size must be a non-zero multiple of the page size.
func NewPhysical(size uint64, backing Backing) (*Physical, error) {
	if size == 0 || size%format.PageSize != 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadSize, size)
	}
	if size > uint64(^uint(0)>>1) {
		return nil, fmt.Errorf("%w: %d", ErrBadSize, size)
	}

	var (
		buf     []byte
		release func() error
		err     error
	)
	switch backing {
	case BackingGo, "":
		backing = BackingGo
		buf = make([]byte, size)
		release = func() error { return nil }
	case BackingMalloc:
		buf, release, err = mallocBytes(int(size))
	case BackingMmap:
		buf, release, err = mapAnonymous(int(size))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBacking, backing)
	}
	if err != nil {
		return nil, fmt.Errorf("memory: allocate %d bytes (%s): %w", size, backing, err)
	}
	return &Physical{buf: buf, backing: backing, release: release}, nil
}

// mallocBytes returns size zeroed bytes allocated outside the Go heap.
func mallocBytes(size int) ([]byte, func() error, error) {
	ptr := mem.Alloc(uint(size))
	if ptr == nil {
		return nil, nil, fmt.Errorf("malloc of %d bytes returned nil", size)
	}
	buf := unsafe.Slice((*byte)(ptr), size)
	clear(buf)
	cleanup := func() error {
		mem.Free(ptr)
		return nil
	}
	return buf, cleanup, nil
}

// Size returns the number of bytes of physical memory.
func (p *Physical) Size() uint64 { return uint64(len(p.buf)) }

// Backing reports where the memory came from.
func (p *Physical) Backing() Backing { return p.backing }

// Bytes exposes the raw physical memory. Writes through the returned slice
// bypass every mapping check.
func (p *Physical) Bytes() []byte { return p.buf }

// ContainsFrame reports whether the whole of f lies inside physical memory.
func (p *Physical) ContainsFrame(f Frame) bool {
	return uint64(f.Start)%format.PageSize == 0 && uint64(f.Start) < p.Size() &&
		p.Size()-uint64(f.Start) >= format.PageSize
}

// ReadU64 loads the word at pa. It panics with a *Fault when pa is
// misaligned or out of range.
func (p *Physical) ReadU64(pa PhysAddr) uint64 {
	p.check(pa, false)
	return format.ReadU64(p.buf, int(pa))
}

// WriteU64 stores v at pa. It panics with a *Fault when pa is misaligned or
// out of range.
func (p *Physical) WriteU64(pa PhysAddr, v uint64) {
	p.check(pa, true)
	format.PutU64(p.buf, int(pa), v)
}

// ZeroFrame clears every byte of f.
func (p *Physical) ZeroFrame(f Frame) {
	if !p.ContainsFrame(f) {
		fault(uint64(f.Start), true, ErrOutOfRange)
	}
	clear(p.buf[f.Start : uint64(f.Start)+format.PageSize])
}

// Close returns the memory to its backing. The Physical must not be used
// afterwards; calling Close twice is a no-op.
func (p *Physical) Close() error {
	if p.release == nil {
		return nil
	}
	release := p.release
	p.release = nil
	p.buf = nil
	return release()
}

func (p *Physical) check(pa PhysAddr, write bool) {
	if uint64(pa)&format.WordAlignmentMask != 0 {
		fault(uint64(pa), write, ErrMisaligned)
	}
	if p.Size() < format.WordSize || uint64(pa) > p.Size()-format.WordSize {
		fault(uint64(pa), write, ErrOutOfRange)
	}
}
