package heap

import (
	"runtime"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func testBlocks(count int, statuses ...blockStatus) ([]uint64, []*blockHeader) {
	stride := headerSize/8 + 4
	buffer := make([]uint64, stride*count)

	blocks := make([]*blockHeader, count)
	for i := range blocks {
		status := statusFree
		if i < len(statuses) {
			status = statuses[i]
		}
		blocks[i] = initBlock(unsafe.Pointer(&buffer[i*stride]), 32, status)
	}

	return buffer, blocks
}

func registryOrder(r *registry) []*blockHeader {
	var order []*blockHeader
	for block := r.start; block != nil; block = block.next {
		order = append(order, block)
	}
	return order
}

func TestRegistryPushBackAndUnlink(t *testing.T) {
	buffer, blocks := testBlocks(3)
	var r registry

	require.True(t, r.isEmpty())
	r.pushBack(blocks[0])
	r.pushBack(blocks[1])
	r.pushBack(blocks[2])
	require.Equal(t, 3, r.count)
	require.Equal(t, blocks, registryOrder(&r))
	require.Equal(t, blocks[2], r.end)

	r.unlink(blocks[1])
	require.Equal(t, []*blockHeader{blocks[0], blocks[2]}, registryOrder(&r))
	require.Equal(t, blocks[0], blocks[2].prev)
	require.Nil(t, blocks[1].next)
	require.Nil(t, blocks[1].prev)

	r.unlink(blocks[2])
	require.Equal(t, blocks[0], r.end)
	r.unlink(blocks[0])
	require.True(t, r.isEmpty())
	require.Nil(t, r.end)
	require.Equal(t, 0, r.count)

	runtime.KeepAlive(buffer)
}

func TestRegistryInsertAfter(t *testing.T) {
	buffer, blocks := testBlocks(4)
	var r registry

	r.pushBack(blocks[0])
	r.insertAfter(blocks[0], blocks[2])
	r.insertAfter(blocks[0], blocks[1])
	r.insertAfter(blocks[2], blocks[3])

	require.Equal(t, blocks, registryOrder(&r))
	require.Equal(t, blocks[3], r.end)
	require.Equal(t, 4, r.count)
	require.Equal(t, blocks[1], blocks[2].prev)

	r.reset()
	require.True(t, r.isEmpty())
	require.Equal(t, 0, r.count)

	runtime.KeepAlive(buffer)
}

func TestRegistryArenaNeighbours(t *testing.T) {
	buffer, blocks := testBlocks(5, statusAllocated, statusMapped, statusFree, statusMapped, statusMapped)
	var r registry

	for _, block := range blocks {
		r.pushBack(block)
	}

	require.Equal(t, blocks[2], r.lastArenaBlock())
	require.Equal(t, blocks[2], nextArenaBlock(blocks[0]))
	require.Nil(t, nextArenaBlock(blocks[2]))
	require.Equal(t, blocks[0], prevArenaBlock(blocks[2]))
	require.Nil(t, prevArenaBlock(blocks[0]))

	r.unlink(blocks[0])
	r.unlink(blocks[2])
	require.Nil(t, r.lastArenaBlock())

	runtime.KeepAlive(buffer)
}

func TestHeaderRoundTrip(t *testing.T) {
	buffer, blocks := testBlocks(1, statusAllocated)

	block := blocks[0]
	require.Zero(t, headerSize%Alignment)
	require.Equal(t, block, headerOf(block.payload()))
	require.Equal(t, uintptr(headerSize+32), block.end()-block.start())
	require.True(t, block.isValid())
	require.Equal(t, "Allocated", block.status.String())
	require.Equal(t, "Unknown", blockStatus(99).String())

	block.invalidate()
	require.False(t, block.isValid())

	runtime.KeepAlive(buffer)
}
