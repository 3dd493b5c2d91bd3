package heap

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/slog"
)

// initialize places the first request made while the arena is not ready. Small requests
// preallocate an arena of exactly mmapThreshold bytes and split the unused part off as one free
// block. Large requests get a mapping and leave the arena unready.
func (a *Allocator) initialize(requested int) *blockHeader {
	if requested > a.mmapThreshold {
		block := a.mapBlock(requested)
		a.blocks.pushBack(block)
		return block
	}

	block := initBlock(a.extendArena(a.mmapThreshold), requested-headerSize, statusAllocated)
	a.arenaReady = true
	a.blocks.pushBack(block)

	remaining := a.mmapThreshold - requested
	if canSplit(remaining) {
		a.split(block, remaining, requested)
	} else {
		// Too small to describe, so the leftover stays with the block
		block.size += remaining
	}

	a.logger.Debug("    Allocator::initialize preallocated arena",
		slog.Int("Size", a.mmapThreshold),
		slog.Int("Requested", requested),
	)

	return block
}

// extendArena moves the arena break forward by size bytes and returns the previous break
func (a *Allocator) extendArena(size int) unsafe.Pointer {
	addr, err := a.grants.ExtendArena(size)
	a.die(err != nil, errors.Wrapf(err, "extending the arena by %d bytes", size))

	if a.arenaTop == 0 {
		a.arenaBase = uintptr(addr)
	} else if uintptr(addr) != a.arenaTop {
		a.die(true, errors.AssertionFailedf(
			"the arena break moved outside of this allocator: expected %#x but the previous break was %#x",
			a.arenaTop, uintptr(addr)))
	}
	a.arenaTop = uintptr(addr) + uintptr(size)

	return addr
}

// mapBlock obtains a mapping of exactly requested bytes and writes an unlinked MAPPED header at its start
func (a *Allocator) mapBlock(requested int) *blockHeader {
	addr, err := a.grants.Map(requested)
	a.die(err != nil, errors.Wrapf(err, "mapping %d bytes", requested))

	a.logger.Debug("    Allocator::mapBlock", slog.Int("Size", requested))

	return initBlock(addr, requested-headerSize, statusMapped)
}

// unmapBlock returns an unlinked MAPPED block's memory
func (a *Allocator) unmapBlock(block *blockHeader) {
	addr := block.addr()
	size := block.capacity()
	block.invalidate()

	err := a.grants.Unmap(addr, size)
	a.die(err != nil, errors.Wrapf(err, "unmapping %d bytes", size))
}

// topArenaBlock returns the arena block that ends at the current break, found by walking back
// from the registry tail past any mapped blocks. It returns nil if the walk lands on a block that
// does not end at the break.
func (a *Allocator) topArenaBlock() *blockHeader {
	block := a.blocks.lastArenaBlock()
	if block == nil || block.end() != a.arenaTop {
		return nil
	}

	return block
}
