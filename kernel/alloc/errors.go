package alloc

import "errors"

var (
	// ErrNoSpace indicates that no free block large enough was found, or that
	// the request could not be placed without overflowing address arithmetic.
	ErrNoSpace = errors.New("alloc: out of memory")

	// ErrNotInitialized indicates an allocation before Init.
	ErrNotInitialized = errors.New("alloc: allocator not initialized")

	// ErrAlreadyInitialized indicates a second call to Init.
	ErrAlreadyInitialized = errors.New("alloc: allocator already initialized")

	// ErrBadAlign indicates an alignment that is not a non-zero power of two.
	ErrBadAlign = errors.New("alloc: alignment must be a power of two")

	// ErrBadRegion indicates a heap region that is empty, starts at address 0,
	// or wraps the address space.
	ErrBadRegion = errors.New("alloc: invalid heap region")

	// ErrBadSizeClass indicates an invalid SizeClassConfig.
	ErrBadSizeClass = errors.New("alloc: invalid size class configuration")
)
