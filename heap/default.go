package heap

import (
	"sync"
	"unsafe"

	"github.com/vkngwrapper/osmem/sysmem"
)

var (
	defaultOnce      sync.Once
	defaultAllocator *Allocator
)

// Default returns the process-wide synchronized Allocator backed by sysmem.NewSystemGrants, creating
// it on first use with the default thresholds.
func Default() *Allocator {
	defaultOnce.Do(func() {
		allocator, err := New(nil, sysmem.NewSystemGrants(), CreateOptions{
			Flags: AllocatorCreateSynchronized,
		})
		if err != nil {
			panic(err)
		}
		defaultAllocator = allocator
	})

	return defaultAllocator
}

// Malloc allocates size bytes from the Default allocator
func Malloc(size int) unsafe.Pointer {
	return Default().Allocate(size)
}

// Free releases memory obtained from Malloc, Calloc or Realloc
func Free(ptr unsafe.Pointer) {
	Default().Release(ptr)
}

// Calloc allocates count*size zeroed bytes from the Default allocator
func Calloc(count, size int) unsafe.Pointer {
	return Default().AllocateZeroed(count, size)
}

// Realloc resizes memory obtained from Malloc, Calloc or Realloc
func Realloc(ptr unsafe.Pointer, size int) unsafe.Pointer {
	return Default().Resize(ptr, size)
}
