package sysmem

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/osmem/memutils"
)

// Budget reports how much memory has been obtained through a Tracker
type Budget struct {
	// Statistics.BlockCount is the number of live OS grants (the arena counts once),
	// Statistics.BlockBytes the bytes they span. Allocation fields are left for the consumer.
	Statistics memutils.Statistics
	// ArenaBytes is the distance the arena break has moved
	ArenaBytes int
	// MappingCount is the number of live mappings
	MappingCount int
	// MappingBytes is the total size of live mappings
	MappingBytes int
	// Usage is ArenaBytes + MappingBytes
	Usage int
	// Budget is the configured byte limit, or -1 if there is none
	Budget int
}

// TrackerOptions contains optional settings when creating a Tracker
type TrackerOptions struct {
	// ByteLimit caps the total bytes of arena plus live mappings. Grants that would exceed it fail
	// with ErrOutOfMemory. 0 means no limit.
	ByteLimit int
}

// Tracker wraps a Grants implementation with accounting, an optional byte limit, consumer
// callbacks and a table of live mappings so that unmapping an unknown region is caught before it
// reaches the OS.
type Tracker struct {
	grants    Grants
	callbacks GrantCallbacks
	byteLimit int

	arenaBytes   int64
	mappingCount int32
	mappingBytes int64

	mappings *swiss.Map[uintptr, int]
}

var _ Grants = &Tracker{}

func NewTracker(grants Grants, callbacks GrantCallbacks, options TrackerOptions) (*Tracker, error) {
	if grants == nil {
		return nil, errors.New("sysmem.NewTracker requires a non-nil Grants")
	}
	if options.ByteLimit < 0 {
		return nil, errors.Newf("sysmem.TrackerOptions.ByteLimit must not be negative, but was %d", options.ByteLimit)
	}

	return &Tracker{
		grants:    grants,
		callbacks: callbacks,
		byteLimit: options.ByteLimit,
		mappings:  swiss.NewMap[uintptr, int](16),
	}, nil
}

func (t *Tracker) usage() int64 {
	return atomic.LoadInt64(&t.arenaBytes) + atomic.LoadInt64(&t.mappingBytes)
}

func (t *Tracker) checkLimit(size int) error {
	if t.byteLimit == 0 {
		return nil
	}

	usage := t.usage()
	if usage+int64(size) > int64(t.byteLimit) {
		return errors.Wrapf(ErrOutOfMemory, "byte limit is %d, %d in use, %d requested", t.byteLimit, usage, size)
	}

	return nil
}

func (t *Tracker) ExtendArena(size int) (unsafe.Pointer, error) {
	err := t.checkLimit(size)
	if err != nil {
		return nil, err
	}

	addr, err := t.grants.ExtendArena(size)
	if err != nil {
		return nil, err
	}

	atomic.AddInt64(&t.arenaBytes, int64(size))

	if t.callbacks != nil {
		t.callbacks.ExtendArena(addr, size)
	}

	return addr, nil
}

func (t *Tracker) Map(size int) (unsafe.Pointer, error) {
	err := t.checkLimit(size)
	if err != nil {
		return nil, err
	}

	addr, err := t.grants.Map(size)
	if err != nil {
		return nil, err
	}

	t.mappings.Put(uintptr(addr), size)
	atomic.AddInt64(&t.mappingBytes, int64(size))
	atomic.AddInt32(&t.mappingCount, 1)

	if t.callbacks != nil {
		t.callbacks.Map(addr, size)
	}

	return addr, nil
}

func (t *Tracker) Unmap(addr unsafe.Pointer, size int) error {
	mappedSize, ok := t.mappings.Get(uintptr(addr))
	if !ok {
		return errors.Wrapf(ErrUnknownMapping, "address %#x was never mapped through this tracker", uintptr(addr))
	}
	if mappedSize != size {
		return errors.Wrapf(ErrUnknownMapping, "mapping at %#x is %d bytes, but %d were released", uintptr(addr), mappedSize, size)
	}

	err := t.grants.Unmap(addr, size)
	if err != nil {
		return err
	}

	if t.callbacks != nil {
		t.callbacks.Unmap(addr, size)
	}

	t.mappings.Delete(uintptr(addr))

	newBytes := atomic.AddInt64(&t.mappingBytes, int64(-size))
	if newBytes < 0 {
		panic(fmt.Sprintf("mapping bytes went negative after unmapping %d bytes", size))
	}

	// Decrement
	newCount := atomic.AddInt32(&t.mappingCount, -1)
	if newCount < 0 {
		panic("mapping count went negative")
	}

	return nil
}

// IsMapped reports whether addr is the start of a live mapping obtained through this tracker
func (t *Tracker) IsMapped(addr unsafe.Pointer) bool {
	return t.mappings.Has(uintptr(addr))
}

// Budget populates the provided Budget with the current grant totals
func (t *Tracker) Budget(budget *Budget) {
	arenaBytes := int(atomic.LoadInt64(&t.arenaBytes))
	mappingBytes := int(atomic.LoadInt64(&t.mappingBytes))
	mappingCount := int(atomic.LoadInt32(&t.mappingCount))

	budget.ArenaBytes = arenaBytes
	budget.MappingBytes = mappingBytes
	budget.MappingCount = mappingCount
	budget.Usage = arenaBytes + mappingBytes

	budget.Statistics.Clear()
	budget.Statistics.BlockCount = mappingCount
	budget.Statistics.BlockBytes = budget.Usage
	if arenaBytes > 0 {
		budget.Statistics.BlockCount++
	}

	budget.Budget = -1
	if t.byteLimit > 0 {
		budget.Budget = t.byteLimit
	}
}
