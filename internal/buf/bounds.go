package buf

import (
	"fmt"
	"math"
	"math/bits"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// AddU64 adds two unsigned 64-bit quantities (typically an address and a size),
// returning ok = false when the sum wraps past the top of the address space.
func AddU64(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry == 0
}

// MulU64 multiplies a and b, returning ok = false on overflow.
// Used for count * pageSize style calculations.
func MulU64(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}

// CheckRange validates that n bytes starting at off fit inside a range of
// length limit. Returns the end offset if valid, or an error describing
// the specific failure (overflow or out of bounds).
//
//	end, err := buf.CheckRange(regionSize, off, n)
//	if err != nil {
//	    return fmt.Errorf("node: %w", err)
//	}
func CheckRange(limit, off, n uint64) (uint64, error) {
	end, ok := AddU64(off, n)
	if !ok {
		return 0, fmt.Errorf("overflow: offset=%#x + size=%#x", off, n)
	}
	if end > limit {
		return 0, fmt.Errorf("bounds: end=%#x > len=%#x", end, limit)
	}
	return end, nil
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end], true
}
