package memutils_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/osmem/memutils"
)

func TestDetailedStatisticsAccumulate(t *testing.T) {
	var stats memutils.DetailedStatistics
	stats.Clear()

	require.Equal(t, math.MaxInt, stats.AllocationSizeMin)
	require.Equal(t, math.MaxInt, stats.UnusedRangeSizeMin)
	require.Zero(t, stats.Fragmentation())
	require.Zero(t, stats.Overhead())

	stats.AddBlock(131072)
	stats.AddAllocation(128)
	stats.AddHeader(32)
	stats.AddAllocation(4096)
	stats.AddHeader(32)
	stats.AddUnusedRange(1000)
	stats.AddHeader(32)

	require.Equal(t, memutils.DetailedStatistics{
		Statistics: memutils.Statistics{
			BlockCount:      1,
			BlockBytes:      131072,
			AllocationCount: 2,
			AllocationBytes: 4224,
			HeaderBytes:     96,
		},
		UnusedRangeCount:   1,
		UnusedRangeBytes:   1000,
		AllocationSizeMin:  128,
		AllocationSizeMax:  4096,
		UnusedRangeSizeMin: 1000,
		UnusedRangeSizeMax: 1000,
	}, stats)
	require.Equal(t, 131072-4224, stats.UnusedBytes())
	require.Zero(t, stats.Fragmentation())
	require.InDelta(t, 96.0/131072.0, stats.Overhead(), 1e-12)

	var other memutils.DetailedStatistics
	other.Clear()
	other.AddBlock(200032)
	other.AddAllocation(200000)
	other.AddHeader(32)
	other.AddUnusedRange(3000)

	stats.AddDetailedStatistics(&other)
	require.Equal(t, 2, stats.BlockCount)
	require.Equal(t, 3, stats.AllocationCount)
	require.Equal(t, 128, stats.HeaderBytes)
	require.Equal(t, 200000, stats.AllocationSizeMax)
	require.Equal(t, 128, stats.AllocationSizeMin)
	require.Equal(t, 1000, stats.UnusedRangeSizeMin)
	require.Equal(t, 3000, stats.UnusedRangeSizeMax)
	require.InDelta(t, 0.25, stats.Fragmentation(), 1e-12)

	stats.Clear()
	require.Equal(t, 0, stats.BlockCount)
	require.Equal(t, math.MaxInt, stats.AllocationSizeMin)
}
