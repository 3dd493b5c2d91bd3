package heap

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestResizeNilAllocates(t *testing.T) {
	allocator, _ := readyAllocator(t, CreateOptions{})

	ptr := allocator.Resize(nil, 100)
	require.NotNil(t, ptr)
	require.Equal(t, 104, allocator.UsableSize(ptr))

	require.Nil(t, allocator.Resize(nil, 0))
}

func TestResizeToZeroReleases(t *testing.T) {
	allocator, _ := readyAllocator(t, CreateOptions{})

	ptr := allocator.Allocate(100)
	require.Nil(t, allocator.Resize(ptr, 0))
	require.Equal(t, 0, allocator.UsableSize(ptr))
	require.Equal(t, 1, allocator.blocks.count)
	require.NoError(t, allocator.Validate())
}

func TestResizeSameAlignedSize(t *testing.T) {
	allocator, _ := readyAllocator(t, CreateOptions{})

	ptr := allocator.Allocate(100)
	require.Equal(t, ptr, allocator.Resize(ptr, 100))
	require.Equal(t, ptr, allocator.Resize(ptr, 97))
	require.Equal(t, 104, allocator.UsableSize(ptr))
}

func TestResizeShrinkInPlace(t *testing.T) {
	allocator, _ := readyAllocator(t, CreateOptions{})

	ptr := allocator.Allocate(1000)
	fillSequence(ptr, 1000, 3)

	require.Equal(t, ptr, allocator.Resize(ptr, 100))
	require.Equal(t, 104, allocator.UsableSize(ptr))
	requireSequence(t, ptr, 100, 3)

	// The released tail merged into the free remainder of the arena
	require.Equal(t, 2, allocator.blocks.count)
	stats := requireStatistics(t, allocator)
	require.Equal(t, 1, stats.UnusedRangeCount)
	require.Equal(t, DefaultMmapThreshold-(headerSize+104)-headerSize, stats.UnusedRangeSizeMax)
	require.NoError(t, allocator.Validate())

	// Too little is freed to describe another block
	require.Equal(t, ptr, allocator.Resize(ptr, 80))
	require.Equal(t, 104, allocator.UsableSize(ptr))
	require.NoError(t, allocator.Validate())
}

func TestResizeGrowAtTopOfArena(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	allocator, grants, backing := readyMockAllocator(t, ctrl, CreateOptions{})

	grants.EXPECT().ExtendArena(DefaultMmapThreshold).DoAndReturn(backing.ExtendArena)
	size := DefaultMmapThreshold - headerSize
	ptr := allocator.Allocate(size)
	fillSequence(ptr, size, 11)

	grants.EXPECT().ExtendArena(1000).DoAndReturn(backing.ExtendArena)
	require.Equal(t, ptr, allocator.Resize(ptr, size+1000))
	require.Equal(t, size+1000, allocator.UsableSize(ptr))
	requireSequence(t, ptr, size, 11)
	require.NoError(t, allocator.Validate())

	// Growing by more than the threshold relocates, and the result is large enough to map
	grants.EXPECT().Map(size + 1000 + 200000 + headerSize).DoAndReturn(backing.Map)
	moved := allocator.Resize(ptr, size+1000+200000)
	require.NotEqual(t, ptr, moved)
	require.Equal(t, statusMapped, headerOf(moved).status)
	requireSequence(t, moved, size, 11)
	require.Equal(t, statusFree, headerOf(ptr).status)
	require.NoError(t, allocator.Validate())
}

func TestResizeGrowIntoFreeNeighbour(t *testing.T) {
	allocator, grants := readyAllocator(t, CreateOptions{})

	ptr := allocator.Allocate(100)
	fillSequence(ptr, 100, 5)

	require.Equal(t, ptr, allocator.Resize(ptr, 1000))
	require.Equal(t, 1000, allocator.UsableSize(ptr))
	requireSequence(t, ptr, 100, 5)
	require.Equal(t, 2, allocator.blocks.count)
	require.Equal(t, DefaultMmapThreshold, grants.ArenaSize())
	require.NoError(t, allocator.Validate())
}

func TestResizeRelocates(t *testing.T) {
	allocator, _ := readyAllocator(t, CreateOptions{})

	ptr := allocator.Allocate(100)
	allocator.Allocate(100)
	fillSequence(ptr, 100, 9)

	moved := allocator.Resize(ptr, 1000)
	require.NotNil(t, moved)
	require.NotEqual(t, ptr, moved)
	require.Equal(t, 1000, allocator.UsableSize(moved))
	requireSequence(t, moved, 100, 9)
	require.Equal(t, 0, allocator.UsableSize(ptr))
	require.NoError(t, allocator.Validate())
}

func TestResizeRelocatesAfterInsufficientMerge(t *testing.T) {
	allocator, _ := readyAllocator(t, CreateOptions{})

	ptr := allocator.Allocate(100)
	neighbour := allocator.Allocate(100)
	guard := allocator.Allocate(100)
	allocator.Release(neighbour)
	fillSequence(ptr, 100, 13)

	moved := allocator.Resize(ptr, 1000)
	require.NotEqual(t, ptr, moved)
	requireSequence(t, moved, 100, 13)
	require.Equal(t, 104, allocator.UsableSize(guard))
	require.NoError(t, allocator.Validate())

	// ptr and neighbour became one free block ahead of the guard
	stats := requireStatistics(t, allocator)
	require.Equal(t, 2, stats.AllocationCount)
	require.Equal(t, 2*(headerSize+104)-headerSize, stats.UnusedRangeSizeMin)
}

func TestResizeMapped(t *testing.T) {
	allocator, grants := readyAllocator(t, CreateOptions{})

	ptr := allocator.Allocate(200000)
	fillSequence(ptr, 200000, 17)
	require.Equal(t, ptr, allocator.Resize(ptr, 200000))

	grown := allocator.Resize(ptr, 300000)
	require.NotEqual(t, ptr, grown)
	require.Equal(t, statusMapped, headerOf(grown).status)
	requireSequence(t, grown, 200000, 17)
	require.Equal(t, 1, grants.MappingCount())

	// Shrinking a mapping below the threshold moves it into the arena
	shrunk := allocator.Resize(grown, 100)
	require.Equal(t, statusAllocated, headerOf(shrunk).status)
	requireSequence(t, shrunk, 100, 17)
	require.Equal(t, 0, grants.MappingCount())
	require.True(t, allocator.arenaReady)
	require.NoError(t, allocator.Validate())
}

func TestResizeReleasedBlock(t *testing.T) {
	allocator, _ := readyAllocator(t, CreateOptions{})

	ptr := allocator.Allocate(64)
	allocator.Allocate(64)
	allocator.Release(ptr)

	require.Nil(t, allocator.Resize(ptr, 128))
	require.NoError(t, allocator.Validate())
}

func TestResizeRoundTrip(t *testing.T) {
	testCases := map[string]struct {
		original int
		resized  int
		blocked  bool
	}{
		"shrink and split": {original: 1000, resized: 200},
		"shrink in place":  {original: 1000, resized: 990},
		"grow into free":   {original: 1000, resized: 5000},
		"grow relocated":   {original: 1000, resized: 5000, blocked: true},
		"grow to mapping":  {original: 1000, resized: 300000},
		"mapping shrinks":  {original: 300000, resized: 1000},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			allocator, _ := readyAllocator(t, CreateOptions{})

			ptr := allocator.Allocate(testCase.original)
			if testCase.blocked {
				allocator.Allocate(16)
			}
			fillSequence(ptr, testCase.original, 23)

			kept := testCase.original
			if testCase.resized < kept {
				kept = testCase.resized
			}

			resized := allocator.Resize(ptr, testCase.resized)
			require.NotNil(t, resized)
			require.GreaterOrEqual(t, allocator.UsableSize(resized), testCase.resized)
			requireSequence(t, resized, kept, 23)
			require.NoError(t, allocator.Validate())

			restored := allocator.Resize(resized, testCase.original)
			require.NotNil(t, restored)
			require.GreaterOrEqual(t, allocator.UsableSize(restored), testCase.original)
			requireSequence(t, restored, kept, 23)
			require.NoError(t, allocator.Validate())
		})
	}
}
