package alloc

// NullAllocator refuses every allocation. It is useful as a placeholder
// before a real heap exists and in tests of allocation-failure paths.
type NullAllocator struct{}

// Init accepts any region and does nothing.
func (NullAllocator) Init(Memory, Region) error { return nil }

// Alloc always fails.
func (NullAllocator) Alloc(Layout) (Addr, error) { return Null, ErrNoSpace }

// Dealloc panics: no pointer can have come from this allocator.
func (NullAllocator) Dealloc(Addr, Layout) {
	panic("alloc: dealloc not allowed")
}
