package heap

import "unsafe"

// canSplit reports whether a leftover of remaining bytes can host a header and a payload
func canSplit(remaining int) bool {
	return remaining >= headerSize+1
}

// split keeps the first requested bytes (header included) of block and turns the following
// remaining bytes into a new free block linked directly after it.
func (a *Allocator) split(block *blockHeader, remaining, requested int) *blockHeader {
	fragment := initBlock(unsafe.Add(block.addr(), requested), remaining-headerSize, statusFree)
	a.blocks.insertAfter(block, fragment)
	block.size = requested - headerSize

	return fragment
}

// absorbNext merges the arena block physically following block into it if that block is free.
// Only arena blocks are ever merged, and only when they are contiguous in memory.
func (a *Allocator) absorbNext(block *blockHeader) bool {
	if block == nil || !block.isArena() {
		return false
	}

	next := nextArenaBlock(block)
	if next == nil || next.status != statusFree || block.end() != next.start() {
		return false
	}

	block.size += next.capacity()
	a.blocks.unlink(next)
	next.invalidate()

	return true
}

// coalesce merges a freshly freed block with free neighbours on both sides and returns the block
// that now covers it.
func (a *Allocator) coalesce(block *blockHeader) *blockHeader {
	a.absorbNext(block)

	prev := prevArenaBlock(block)
	if prev != nil && prev.status == statusFree && a.absorbNext(prev) {
		return prev
	}

	return block
}
