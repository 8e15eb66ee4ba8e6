package memory

import "strings"

// Flags are page-table entry flags, bit-compatible with x86_64.
type Flags uint64

const (
	FlagPresent        Flags = 1 << 0
	FlagWritable       Flags = 1 << 1
	FlagUserAccessible Flags = 1 << 2
	FlagWriteThrough   Flags = 1 << 3
	FlagNoCache        Flags = 1 << 4
	FlagAccessed       Flags = 1 << 5
	FlagDirty          Flags = 1 << 6
	FlagHugePage       Flags = 1 << 7
	FlagGlobal         Flags = 1 << 8
	FlagNoExecute      Flags = 1 << 63
)

// entryAddrMask selects the frame address bits (12..51) of an entry.
const entryAddrMask = 0x000f_ffff_ffff_f000

// entryFlagMask selects every bit that is not part of the frame address.
const entryFlagMask = ^uint64(entryAddrMask)

// Has reports whether all bits of want are set in f.
func (f Flags) Has(want Flags) bool { return f&want == want }

func (f Flags) String() string {
	names := []struct {
		bit  Flags
		name string
	}{
		{FlagPresent, "PRESENT"},
		{FlagWritable, "WRITABLE"},
		{FlagUserAccessible, "USER"},
		{FlagWriteThrough, "WRITE_THROUGH"},
		{FlagNoCache, "NO_CACHE"},
		{FlagAccessed, "ACCESSED"},
		{FlagDirty, "DIRTY"},
		{FlagHugePage, "HUGE"},
		{FlagGlobal, "GLOBAL"},
		{FlagNoExecute, "NX"},
	}
	var parts []string
	for _, n := range names {
		if f.Has(n.bit) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, "|")
}
