package format

// Alignment utilities shared by every allocator. All alignments are powers
// of two; passing anything else to AlignUp is a caller bug and yields an
// unspecified value rather than an error.

// AlignUp returns the smallest value >= addr that is a multiple of align.
// align must be a power of two.
//
// The computation ((addr-1) | (align-1)) + 1 is total for addr == 0 but wraps
// to 0 when the rounded value does not fit in 64 bits. Use AlignUpChecked
// whenever the result is combined with a size.
//
// Example:
//
//	AlignUp(1, 8)      = 8
//	AlignUp(8, 8)      = 8
//	AlignUp(9, 8)      = 16
//	AlignUp(0x1001, 0x1000) = 0x2000
func AlignUp(addr, align uint64) uint64 {
	return ((addr - 1) | (align - 1)) + 1
}

// AlignUpChecked is AlignUp with wrap-around detection. ok is false when the
// aligned address would exceed the top of the address space.
func AlignUpChecked(addr, align uint64) (uint64, bool) {
	aligned := AlignUp(addr, align)
	if aligned < addr {
		return 0, false
	}
	return aligned, true
}

// AlignDown returns the largest multiple of align that is <= addr.
func AlignDown(addr, align uint64) uint64 {
	return addr &^ (align - 1)
}

// IsPowerOfTwo reports whether v is a non-zero power of two.
func IsPowerOfTwo(v uint64) bool {
	return v != 0 && v&(v-1) == 0
}

// IsAligned reports whether addr is a multiple of align (a power of two).
func IsAligned(addr, align uint64) bool {
	return addr&(align-1) == 0
}

// AlignPage returns n aligned up to the next 4KB boundary.
//
// Example:
//
//	AlignPage(1)    = 4096
//	AlignPage(4096) = 4096
//	AlignPage(4097) = 8192
func AlignPage(n uint64) uint64 {
	return (n + PageAlignmentMask) &^ PageAlignmentMask
}
