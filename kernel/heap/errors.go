package heap

import (
	"errors"

	"github.com/cubed-guy/text-os/kernel/alloc"
)

var (
	// ErrNotInitialized indicates use of a heap before a successful Init.
	ErrNotInitialized = alloc.ErrNotInitialized

	// ErrAlreadyInitialized indicates a second Init, or Configure after Init.
	ErrAlreadyInitialized = alloc.ErrAlreadyInitialized

	// ErrInitInProgress indicates Init or Configure while another Init is
	// still running. That Init may yet fail, so the caller may retry.
	ErrInitInProgress = errors.New("heap: init in progress")

	// ErrUnknownAllocator indicates an unrecognised AllocatorKind.
	ErrUnknownAllocator = errors.New("heap: unknown allocator kind")
)
