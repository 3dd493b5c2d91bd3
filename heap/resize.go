package heap

import (
	"unsafe"

	"golang.org/x/exp/slog"
)

func (a *Allocator) resize(ptr unsafe.Pointer, newSize int) unsafe.Pointer {
	if ptr == nil {
		return a.allocate(newSize)
	}

	if newSize <= 0 {
		a.release(ptr)
		return nil
	}

	if newSize > maxRequestSize {
		return nil
	}

	requested := align(newSize)
	block := headerOf(ptr)
	if !block.isValid() || block.status == statusFree {
		a.logger.Debug("    Allocator::resize called on a block that is not live")
		return nil
	}

	oldSize := block.size

	// Mappings are never resized in place
	if block.status == statusMapped {
		if block.size == requested {
			return ptr
		}
		return a.relocate(ptr, oldSize, requested)
	}

	if block.size == requested {
		return ptr
	}

	if requested < block.size {
		remaining := block.size - requested
		if canSplit(remaining) {
			fragment := a.split(block, remaining, requested+headerSize)
			a.absorbNext(fragment)
		}
		return ptr
	}

	// The block sits at the top of the arena: move the break under it
	if requested-block.size <= a.mmapThreshold && a.topArenaBlock() == block {
		a.extendArena(requested - block.size)
		block.size = requested
		return ptr
	}

	if a.absorbNext(block) && block.size >= requested {
		remaining := block.size - requested
		if canSplit(remaining) {
			a.split(block, remaining, requested+headerSize)
		}
		return ptr
	}

	return a.relocate(ptr, oldSize, requested)
}

// relocate moves the first min(oldSize, newSize) bytes at ptr into a fresh allocation of newSize
// bytes and releases ptr
func (a *Allocator) relocate(ptr unsafe.Pointer, oldSize, newSize int) unsafe.Pointer {
	a.logger.Debug("    Allocator::relocate", slog.Int("OldSize", oldSize), slog.Int("NewSize", newSize))

	newPtr := a.allocate(newSize)
	if newPtr == nil {
		return nil
	}

	copySize := oldSize
	if newSize < copySize {
		copySize = newSize
	}
	copyMemory(newPtr, ptr, copySize)

	a.release(ptr)
	return newPtr
}
