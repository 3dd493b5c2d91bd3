package heap

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/osmem/internal/utils"
	"github.com/vkngwrapper/osmem/memutils"
	"github.com/vkngwrapper/osmem/sysmem"
	"golang.org/x/exp/slog"
)

// CreateFlags indicate specific allocator behaviors to activate or deactivate
type CreateFlags int32

const (
	// AllocatorCreateSynchronized makes every public Allocator method take a single mutex covering
	// the entire block registry. Without it the consumer must guarantee the allocator is used from
	// only one goroutine at a time, or wrap every call in one lock of their own.
	AllocatorCreateSynchronized CreateFlags = 1 << iota
)

var createFlagsMapping = map[CreateFlags]string{
	AllocatorCreateSynchronized: "AllocatorCreateSynchronized",
}

func (f CreateFlags) String() string {
	if f == 0 {
		return "None"
	}

	var names []string
	for bit := CreateFlags(1); bit != 0 && bit <= f; bit <<= 1 {
		if f&bit == 0 {
			continue
		}

		name, ok := createFlagsMapping[bit]
		if !ok {
			name = "Unknown"
		}
		names = append(names, name)
	}

	return strings.Join(names, "|")
}

const (
	// DefaultMmapThreshold is the value that is used as the MmapThreshold when none is provided via
	// CreateOptions. It is equal to 128Kb.
	DefaultMmapThreshold int = 128 * 1024
	// DefaultPageSize is the value that is used as the PageSize when none is provided via
	// CreateOptions. It is equal to 4Kb.
	DefaultPageSize int = 4 * 1024
)

// CreateOptions contains optional settings when creating an allocator
type CreateOptions struct {
	// Flags indicates specific allocator behaviors to activate or deactivate
	Flags CreateFlags

	// MmapThreshold is the largest request, header included, that is placed in the arena. It is also
	// the size of the arena preallocated by the first small request. It must be a multiple of
	// Alignment large enough to hold a header and one aligned byte.
	MmapThreshold int
	// PageSize is the threshold at and above which AllocateZeroed obtains a fresh mapping rather
	// than zeroing arena memory. It must be a power of two.
	PageSize int

	// ByteLimit caps the bytes of arena and mapping the allocator may obtain. A grant beyond the
	// limit is a fatal resource failure. 0 means no limit.
	ByteLimit int

	// FatalHandler is called when the operating system refuses a memory grant. See FatalHandler.
	FatalHandler FatalHandler

	// GrantCallbackOptions is an optional set of callbacks that will be executed whenever this
	// allocator obtains or returns memory from the operating system.
	GrantCallbackOptions *GrantCallbackOptions
}

// New creates a new Allocator
//
// logger - Receives debug traces of each operation and error reports. It may be nil.
//
// grants - The source of raw memory. sysmem.NewSystemGrants() is appropriate for most consumers.
//
// options - Optional parameters: it is valid to leave all the fields blank
func New(logger *slog.Logger, grants sysmem.Grants, options CreateOptions) (*Allocator, error) {
	if grants == nil {
		return nil, errors.New("heap.New requires a non-nil sysmem.Grants")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard))
	}

	mmapThreshold := options.MmapThreshold
	if mmapThreshold == 0 {
		mmapThreshold = DefaultMmapThreshold
	}
	if mmapThreshold <= headerSize {
		return nil, errors.Newf("heap.CreateOptions.MmapThreshold must be greater than the %d byte block header, but was %d", headerSize, mmapThreshold)
	}
	err := memutils.CheckAligned(mmapThreshold, Alignment, "heap.CreateOptions.MmapThreshold")
	if err != nil {
		return nil, err
	}

	pageSize := options.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	err = memutils.CheckPow2(pageSize, "heap.CreateOptions.PageSize")
	if err != nil {
		return nil, err
	}

	allocator := &Allocator{
		mutex:         utils.OptionalMutex{UseMutex: options.Flags&AllocatorCreateSynchronized != 0},
		logger:        logger,
		createFlags:   options.Flags,
		mmapThreshold: mmapThreshold,
		pageSize:      pageSize,
		fatalHandler:  options.FatalHandler,
	}

	var callbacks sysmem.GrantCallbacks
	if options.GrantCallbackOptions != nil {
		callbacks = &grantCallbacks{
			Callbacks: options.GrantCallbackOptions,
			Allocator: allocator,
		}
	}

	allocator.grants, err = sysmem.NewTracker(grants, callbacks, sysmem.TrackerOptions{
		ByteLimit: options.ByteLimit,
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Allocator::New",
		slog.String("Flags", options.Flags.String()),
		slog.Int("MmapThreshold", mmapThreshold),
		slog.Int("PageSize", pageSize),
		slog.Int("HeaderSize", headerSize),
	)

	return allocator, nil
}
