package alloc

// Stats holds allocator statistics for testing and instrumentation.
type Stats struct {
	AllocCalls     uint64 // Total Alloc() calls
	AllocFailed    uint64 // Alloc() calls that returned ErrNoSpace
	FreeCalls      uint64 // Total Dealloc() calls
	Live           uint64 // Allocations not yet returned
	BytesAllocated uint64 // Requested bytes of successful allocations
	BytesFreed     uint64 // Requested bytes of deallocations

	Resets         uint64 // Bump: times the pointer returned to heap start
	RegionsScanned uint64 // Free list: nodes visited by first-fit searches
	Splits         uint64 // Free list: tails or gaps returned to the list
	WholeRegions   uint64 // Free list: regions consumed whole to avoid a sliver
	ClassHits      uint64 // Segregated: served from a class list
	ClassMisses    uint64 // Segregated: class list empty, block taken from fallback
	Oversized      uint64 // Segregated: requests above the largest class
}

func (s *Stats) recordAlloc(l Layout) {
	s.AllocCalls++
	s.Live++
	s.BytesAllocated += l.Size
}

func (s *Stats) recordFail() {
	s.AllocCalls++
	s.AllocFailed++
}

func (s *Stats) recordFree(l Layout) {
	s.FreeCalls++
	if s.Live > 0 {
		s.Live--
	}
	s.BytesFreed += l.Size
}
