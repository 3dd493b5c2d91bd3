package heap

import (
	"fmt"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/osmem/memutils"
	"github.com/vkngwrapper/osmem/sysmem"
)

// CalculateStatistics populates stats with a snapshot of the heap. The arena counts as one block
// and every mapping as another. Allocated and mapped payloads count as allocations, free blocks as
// unused ranges. Header bytes are part of BlockBytes but of neither allocations nor unused ranges,
// they are totalled in HeaderBytes instead.
func (a *Allocator) CalculateStatistics(stats *memutils.DetailedStatistics) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.calculateStatistics(stats)
}

func (a *Allocator) calculateStatistics(stats *memutils.DetailedStatistics) {
	stats.Clear()

	if a.arenaTop > a.arenaBase {
		stats.AddBlock(int(a.arenaTop - a.arenaBase))
	}

	for block := a.blocks.start; block != nil; block = block.next {
		stats.AddHeader(headerSize)

		switch block.status {
		case statusFree:
			stats.AddUnusedRange(block.size)
		case statusAllocated:
			stats.AddAllocation(block.size)
		case statusMapped:
			stats.AddBlock(block.capacity())
			stats.AddAllocation(block.size)
		}
	}
}

// HeapBudget populates budget with the totals of memory obtained from the operating system
func (a *Allocator) HeapBudget(budget *sysmem.Budget) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.grants.Budget(budget)

	var stats memutils.DetailedStatistics
	a.calculateStatistics(&stats)
	budget.Statistics.AllocationCount = stats.AllocationCount
	budget.Statistics.AllocationBytes = stats.AllocationBytes
	budget.Statistics.HeaderBytes = stats.HeaderBytes
}

// BuildStatsString returns a JSON document describing the heap. With detailedMap set, it also
// lists every block in registry order.
func (a *Allocator) BuildStatsString(detailedMap bool) string {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	var stats memutils.DetailedStatistics
	a.calculateStatistics(&stats)

	writer := jwriter.NewWriter()
	json := writer.Object()

	total := json.Name("Total").Object()
	printStatistics(&total, &stats)
	total.End()

	arena := json.Name("Arena").Object()
	arena.Name("Ready").Bool(a.arenaReady)
	arena.Name("Bytes").Int(int(a.arenaTop - a.arenaBase))
	arena.End()

	config := json.Name("Config").Object()
	config.Name("Flags").String(a.createFlags.String())
	config.Name("MmapThreshold").Int(a.mmapThreshold)
	config.Name("PageSize").Int(a.pageSize)
	config.Name("HeaderSize").Int(headerSize)
	config.End()

	if detailedMap {
		a.printDetailedMap(&json)
	}

	json.End()

	return string(writer.Bytes())
}

func printStatistics(json *jwriter.ObjectState, stats *memutils.DetailedStatistics) {
	json.Name("BlockCount").Int(stats.BlockCount)
	json.Name("BlockBytes").Int(stats.BlockBytes)
	json.Name("AllocationCount").Int(stats.AllocationCount)
	json.Name("AllocationBytes").Int(stats.AllocationBytes)
	json.Name("HeaderBytes").Int(stats.HeaderBytes)
	json.Name("UnusedRangeCount").Int(stats.UnusedRangeCount)
	json.Name("UnusedRangeBytes").Int(stats.UnusedRangeBytes)

	if stats.AllocationCount > 0 {
		json.Name("AllocationSizeMin").Int(stats.AllocationSizeMin)
		json.Name("AllocationSizeMax").Int(stats.AllocationSizeMax)
	}

	if stats.UnusedRangeCount > 0 {
		json.Name("UnusedRangeSizeMin").Int(stats.UnusedRangeSizeMin)
		json.Name("UnusedRangeSizeMax").Int(stats.UnusedRangeSizeMax)
		json.Name("Fragmentation").Float64(stats.Fragmentation())
	}
}

func (a *Allocator) printDetailedMap(json *jwriter.ObjectState) {
	blocks := json.Name("Blocks").Array()
	defer blocks.End()

	for block := a.blocks.start; block != nil; block = block.next {
		obj := blocks.Object()

		obj.Name("Status").String(block.status.String())
		obj.Name("Size").Int(block.size)
		if block.isArena() {
			obj.Name("Offset").Int(int(block.start() - a.arenaBase))
		} else {
			obj.Name("Address").String(fmt.Sprintf("%#x", block.start()))
		}

		obj.End()
	}
}
