package heap

import (
	"math/bits"
	"unsafe"
)

func (a *Allocator) allocateZeroed(count, size int) unsafe.Pointer {
	if count <= 0 || size <= 0 {
		return nil
	}

	hi, lo := bits.Mul64(uint64(count), uint64(size))
	if hi != 0 || lo > uint64(maxRequestSize) {
		return nil
	}

	total := align(int(lo))

	// Fresh mappings are already zero, so anything a page or larger skips the arena entirely
	if total+headerSize >= a.pageSize {
		block := a.mapBlock(total + headerSize)
		a.blocks.pushBack(block)
		return block.payload()
	}

	ptr := a.allocate(total)
	if ptr != nil {
		zeroMemory(ptr, total)
	}

	return ptr
}
