package heap

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/osmem/memutils"
	"golang.org/x/exp/slog"
)

// Validate performs internal consistency checks on the block registry. When the allocator is
// functioning correctly, and callers have not written outside their allocations, it should not
// be possible for this method to return an error.
func (a *Allocator) Validate() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	return a.validate()
}

func (a *Allocator) validate() error {
	if a.blocks.isEmpty() {
		if a.blocks.end != nil || a.blocks.count != 0 {
			return errors.New("the registry has no first block, but has a last block or a nonzero count")
		}
		return nil
	}

	if a.blocks.start.prev != nil {
		return errors.New("the first block in the registry has a previous block")
	}

	count := 0
	nextArenaOffset := a.arenaBase
	var prev, prevArena *blockHeader

	for block := a.blocks.start; block != nil; block = block.next {
		count++

		if !block.isValid() {
			return errors.Errorf("block at %#x has a corrupted header", block.start())
		}
		if block.prev != prev {
			return errors.Errorf("block at %#x does not link back to the block before it", block.start())
		}
		if block.size <= 0 {
			return errors.Errorf("block at %#x has a size of %d", block.start(), block.size)
		}

		err := memutils.CheckAligned(block.size, Alignment, "block size")
		if err != nil {
			return errors.Wrapf(err, "block at %#x", block.start())
		}
		err = memutils.CheckAligned(block.start(), Alignment, "block address")
		if err != nil {
			return err
		}

		switch block.status {
		case statusMapped:
			if !a.grants.IsMapped(block.addr()) {
				return errors.Errorf("mapped block at %#x does not start a live mapping", block.start())
			}
		case statusFree, statusAllocated:
			if block.start() != nextArenaOffset {
				return errors.Errorf("arena block at %#x should start at %#x, directly after the previous arena block", block.start(), nextArenaOffset)
			}
			if prevArena != nil && prevArena.status == statusFree && block.status == statusFree {
				return errors.Errorf("free arena blocks at %#x and %#x are adjacent but were not coalesced", prevArena.start(), block.start())
			}

			nextArenaOffset = block.end()
			prevArena = block
		default:
			return errors.Errorf("block at %#x has unknown status %d", block.start(), block.status)
		}

		prev = block
	}

	if a.blocks.end != prev {
		return errors.New("the registry's last block is not the final block in the list")
	}

	if count != a.blocks.count {
		return errors.Errorf("the registry has a count of %d, but %d blocks are linked", a.blocks.count, count)
	}

	if prevArena != nil && nextArenaOffset != a.arenaTop {
		return errors.Errorf("arena blocks end at %#x, but the arena break is at %#x", nextArenaOffset, a.arenaTop)
	}

	return nil
}

// Destroy unmaps every mapping still owned by the allocator and forgets every block. The arena is
// never returned to the operating system. If any block was still allocated, each is logged and an
// error is returned, but the teardown completes regardless. The allocator must not be used after
// Destroy unless it is known to be empty, in which case it can serve new requests.
func (a *Allocator) Destroy() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	unreleased := 0

	block := a.blocks.start
	for block != nil {
		next := block.next

		if block.status != statusFree {
			unreleased++
			a.logUnreleasedMemory(block)
		}

		if block.status == statusMapped {
			a.blocks.unlink(block)
			a.unmapBlock(block)
		} else {
			block.invalidate()
		}

		block = next
	}

	a.blocks.reset()
	a.arenaReady = false
	// The old arena is abandoned, a later request starts a new one at the current break
	a.arenaBase = a.arenaTop

	if unreleased > 0 {
		return errors.Newf("%d allocations were not released before the destruction of this allocator", unreleased)
	}

	return nil
}

func (a *Allocator) logUnreleasedMemory(block *blockHeader) {
	attrs := []slog.Attr{
		slog.Int("size", block.size),
		slog.String("status", block.status.String()),
	}
	if block.isArena() {
		attrs = append(attrs, slog.Int("offset", int(block.start()-a.arenaBase)))
	}

	a.logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED MEMORY] unreleased block", attrs...)
}
