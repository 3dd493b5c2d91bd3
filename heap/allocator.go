// Package heap is a user-space dynamic memory allocator. An Allocator carves allocations out of
// memory it obtains from a sysmem.Grants: a contiguous arena grown by moving a break pointer for
// small requests, and individual mappings for large ones. Every allocation, live or free, is
// preceded by an in-band header, and all headers are linked into one registry that is searched
// best-fit, split when a free block is oversized, and coalesced when neighbours are released.
//
// Memory handed out by an Allocator is invisible to the Go garbage collector. It must not be used
// to hold the only reference to a Go heap object.
package heap

import (
	"unsafe"

	"github.com/vkngwrapper/osmem/internal/utils"
	"github.com/vkngwrapper/osmem/memutils"
	"github.com/vkngwrapper/osmem/sysmem"
	"golang.org/x/exp/slog"
)

// Allocator manages a single heap. The zero value is not usable; create one with New.
type Allocator struct {
	mutex       utils.OptionalMutex
	logger      *slog.Logger
	createFlags CreateFlags

	mmapThreshold int
	pageSize      int
	fatalHandler  FatalHandler

	grants *sysmem.Tracker

	blocks     registry
	arenaReady bool
	// arenaBase and arenaTop bound the memory obtained through ExtendArena. The arena is never
	// returned, so arenaTop only moves forward.
	arenaBase uintptr
	arenaTop  uintptr
}

// Allocate returns a pointer to at least size bytes aligned to Alignment, or nil if size is not
// positive. The contents of the memory are unspecified.
func (a *Allocator) Allocate(size int) unsafe.Pointer {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.logger.Debug("Allocator::Allocate", slog.Int("Size", size))

	ptr := a.allocate(size)
	if ptr != nil {
		memutils.FillPattern(ptr, headerOf(ptr).size, memutils.CreatedFillPattern)
	}

	memutils.DebugValidate(memutils.ValidateFunc(a.validate))
	return ptr
}

// Release returns memory obtained from this allocator. Releasing nil is a no-op. Releasing any
// other pointer not returned by this allocator, or releasing a pointer twice, is undefined.
func (a *Allocator) Release(ptr unsafe.Pointer) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.logger.Debug("Allocator::Release")

	a.release(ptr)

	memutils.DebugValidate(memutils.ValidateFunc(a.validate))
}

// AllocateZeroed returns a pointer to count*size zeroed bytes, or nil if either argument is not
// positive or their product overflows.
func (a *Allocator) AllocateZeroed(count, size int) unsafe.Pointer {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.logger.Debug("Allocator::AllocateZeroed", slog.Int("Count", count), slog.Int("Size", size))

	ptr := a.allocateZeroed(count, size)

	memutils.DebugValidate(memutils.ValidateFunc(a.validate))
	return ptr
}

// Resize changes the size of the allocation at ptr, preserving its contents up to the smaller of
// the old and new sizes. It may return ptr itself or a new pointer, in which case ptr has been
// released. A nil ptr behaves like Allocate, and a newSize of 0 behaves like Release and returns
// nil. Resizing a block that has already been released returns nil.
func (a *Allocator) Resize(ptr unsafe.Pointer, newSize int) unsafe.Pointer {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.logger.Debug("Allocator::Resize", slog.Int("NewSize", newSize))

	result := a.resize(ptr, newSize)

	memutils.DebugValidate(memutils.ValidateFunc(a.validate))
	return result
}

// UsableSize returns the number of bytes that may be used at ptr, which is at least the size
// last requested for it. It returns 0 for nil or for a pointer whose block is not live.
func (a *Allocator) UsableSize(ptr unsafe.Pointer) int {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if ptr == nil {
		return 0
	}

	block := headerOf(ptr)
	if !block.isValid() || block.status == statusFree {
		return 0
	}

	return block.size
}

func (a *Allocator) allocate(size int) unsafe.Pointer {
	if size <= 0 || size > maxRequestSize {
		return nil
	}

	requested := headerSize + align(size)

	if !a.arenaReady {
		return a.initialize(requested).payload()
	}

	block := a.findFit(requested)
	if block != nil {
		block.status = statusAllocated
		return block.payload()
	}

	if requested > a.mmapThreshold {
		block = a.mapBlock(requested)
		a.blocks.pushBack(block)
		return block.payload()
	}

	// Grow the free block at the top of the arena just enough to fit
	block = a.topArenaBlock()
	if block != nil && block.status == statusFree {
		a.extendArena(requested - block.capacity())
		block.size = requested - headerSize
		block.status = statusAllocated
		return block.payload()
	}

	block = initBlock(a.extendArena(requested), requested-headerSize, statusAllocated)
	a.blocks.pushBack(block)
	return block.payload()
}

func (a *Allocator) release(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}

	block := headerOf(ptr)
	if !block.isValid() {
		a.logger.Error("attempted to release a pointer that does not refer to a live block")
		return
	}

	switch block.status {
	case statusMapped:
		prev := block.prev
		next := block.next

		a.blocks.unlink(block)
		a.unmapBlock(block)

		if a.blocks.isEmpty() {
			a.arenaReady = false
		}

		// Arena merges already skip mapped blocks, so this only fires if the registry was left with
		// two free arena neighbours by some other path. absorbNext rejects them unless they are adjacent.
		if prev != nil && next != nil && prev.status == statusFree && next.status == statusFree {
			a.absorbNext(prev)
		}
	case statusFree:
		a.logger.Debug("    Allocator::release called on a block that is already free")
	default:
		memutils.FillPattern(ptr, block.size, memutils.DestroyedFillPattern)
		block.status = statusFree
		a.coalesce(block)
	}
}
