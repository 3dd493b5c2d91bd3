package memutils

import "math"

// Statistics sums up the memory a heap has obtained from the operating system and how much of it
// is currently handed out. A "block" is one OS grant (the contiguous arena counts as a single block
// however many times it has been extended), an "allocation" is one live region handed to a caller.
type Statistics struct {
	BlockCount      int
	AllocationCount int
	BlockBytes      int
	AllocationBytes int
	// HeaderBytes is the in-band bookkeeping in front of every registered block, live or free
	HeaderBytes int
}

func (s *Statistics) Clear() {
	*s = Statistics{}
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.BlockCount += other.BlockCount
	s.AllocationCount += other.AllocationCount
	s.BlockBytes += other.BlockBytes
	s.AllocationBytes += other.AllocationBytes
	s.HeaderBytes += other.HeaderBytes
}

// UnusedBytes is the number of bytes obtained from the OS that are not part of a live allocation.
// Headers count as unused.
func (s *Statistics) UnusedBytes() int {
	return s.BlockBytes - s.AllocationBytes
}

// Overhead is the share of BlockBytes taken up by headers
func (s *Statistics) Overhead() float64 {
	if s.BlockBytes == 0 {
		return 0
	}
	return float64(s.HeaderBytes) / float64(s.BlockBytes)
}

// DetailedStatistics extends Statistics with the shape of the live and free space. Clear must be
// called before the first Add* call so the minimums start at math.MaxInt.
type DetailedStatistics struct {
	Statistics
	UnusedRangeCount   int
	UnusedRangeBytes   int
	AllocationSizeMin  int
	AllocationSizeMax  int
	UnusedRangeSizeMin int
	UnusedRangeSizeMax int
}

func (s *DetailedStatistics) Clear() {
	*s = DetailedStatistics{
		AllocationSizeMin:  math.MaxInt,
		UnusedRangeSizeMin: math.MaxInt,
	}
}

// AddBlock records one OS grant of size bytes
func (s *DetailedStatistics) AddBlock(size int) {
	s.BlockCount++
	s.BlockBytes += size
}

// AddHeader records the bookkeeping bytes of one registered block
func (s *DetailedStatistics) AddHeader(size int) {
	s.HeaderBytes += size
}

func (s *DetailedStatistics) AddAllocation(size int) {
	s.AllocationCount++
	s.AllocationBytes += size
	s.AllocationSizeMin, s.AllocationSizeMax = widen(s.AllocationSizeMin, s.AllocationSizeMax, size, size)
}

func (s *DetailedStatistics) AddUnusedRange(size int) {
	s.UnusedRangeCount++
	s.UnusedRangeBytes += size
	s.UnusedRangeSizeMin, s.UnusedRangeSizeMax = widen(s.UnusedRangeSizeMin, s.UnusedRangeSizeMax, size, size)
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)
	s.UnusedRangeCount += other.UnusedRangeCount
	s.UnusedRangeBytes += other.UnusedRangeBytes
	s.AllocationSizeMin, s.AllocationSizeMax = widen(s.AllocationSizeMin, s.AllocationSizeMax, other.AllocationSizeMin, other.AllocationSizeMax)
	s.UnusedRangeSizeMin, s.UnusedRangeSizeMax = widen(s.UnusedRangeSizeMin, s.UnusedRangeSizeMax, other.UnusedRangeSizeMin, other.UnusedRangeSizeMax)
}

// Fragmentation is 0 when all free payload bytes sit in one range and approaches 1 as they are
// scattered across many small ranges. A heap with no free ranges reports 0.
func (s *DetailedStatistics) Fragmentation() float64 {
	if s.UnusedRangeBytes == 0 {
		return 0
	}
	return 1 - float64(s.UnusedRangeSizeMax)/float64(s.UnusedRangeBytes)
}

func widen(curMin, curMax, newMin, newMax int) (int, int) {
	if newMin < curMin {
		curMin = newMin
	}
	if newMax > curMax {
		curMax = newMax
	}
	return curMin, curMax
}
