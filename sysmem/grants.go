// Package sysmem supplies the raw memory grants a user-space heap is built from: a single
// contiguous arena grown by moving a break pointer, and individually obtained anonymous
// mappings. Grants are page-agnostic: sizes are passed through exactly as requested.
package sysmem

import (
	"unsafe"

	"github.com/pkg/errors"
)

var (
	// ErrOutOfMemory is returned when a grant cannot be satisfied, either because the arena
	// reservation is exhausted, a configured byte limit would be exceeded, or the OS refused.
	ErrOutOfMemory = errors.New("out of memory")
	// ErrUnknownMapping is returned from Unmap when the address/size pair does not match a mapping
	// that is currently live.
	ErrUnknownMapping = errors.New("address does not refer to a live mapping")
	// ErrInvalidSize is returned when a negative or zero size is requested where it makes no sense.
	ErrInvalidSize = errors.New("invalid grant size")
)

// Grants is the set of primitive memory operations a heap needs from its environment. Every
// method is trusted: callers treat a returned error as unrecoverable.
type Grants interface {
	// ExtendArena moves the arena break forward by size bytes and returns the previous break. The
	// memory between the previous and the new break is readable and writable. Successive calls
	// return contiguous ranges. A size of 0 returns the current break.
	ExtendArena(size int) (unsafe.Pointer, error)
	// Map obtains a zero-filled, readable and writable region of at least size bytes.
	Map(size int) (unsafe.Pointer, error)
	// Unmap returns a region obtained from Map. size must be the size passed to Map.
	Unmap(addr unsafe.Pointer, size int) error
}

// GrantCallbacks receives a notification after each successful grant operation
type GrantCallbacks interface {
	ExtendArena(addr unsafe.Pointer, size int)
	Map(addr unsafe.Pointer, size int)
	// Unmap fires once the region has been returned, so addr must not be dereferenced
	Unmap(addr unsafe.Pointer, size int)
}
