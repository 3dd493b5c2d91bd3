package heap

import "math"

// findFit returns the free block whose capacity exceeds requested by the smallest amount, ties
// going to the block linked first. A block with room for another header and at least one byte
// beyond requested is split before it is returned. The result is still marked free.
func (a *Allocator) findFit(requested int) *blockHeader {
	var bestBlock *blockHeader
	minimalRemaining := math.MaxInt

	for block := a.blocks.start; block != nil; block = block.next {
		if block.status != statusFree || block.capacity() < requested {
			continue
		}

		remaining := block.capacity() - requested
		if remaining < minimalRemaining {
			minimalRemaining = remaining
			bestBlock = block

			// Perfect fit
			if remaining == 0 {
				break
			}
		}
	}

	if bestBlock == nil {
		return nil
	}

	if canSplit(minimalRemaining) {
		a.split(bestBlock, minimalRemaining, requested)
	}

	return bestBlock
}
