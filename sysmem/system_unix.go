//go:build unix

package sysmem

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/osmem/memutils"
	"golang.org/x/sys/unix"
)

const (
	// DefaultReserveSize is the amount of address space UnixGrants reserves for the arena when none
	// is provided via UnixOptions. It is equal to 1Gb. Reserved pages are inaccessible and cost
	// nothing until the break moves over them.
	DefaultReserveSize int = 1024 * 1024 * 1024
)

// UnixOptions contains optional settings when creating a UnixGrants
type UnixOptions struct {
	// ReserveSize is the size of the address range the arena break may move through
	ReserveSize int
}

// UnixGrants implements Grants with anonymous mmap. The Go runtime owns the process break, so the
// arena is a private PROT_NONE reservation whose pages are made accessible with mprotect as the
// emulated break moves forward over them.
//
// UnixGrants is not safe for concurrent use.
type UnixGrants struct {
	reserveSize int
	pageSize    int

	reserved  []byte
	brk       int
	committed int

	mappings *swiss.Map[uintptr, []byte]
}

var _ Grants = &UnixGrants{}

func NewUnixGrants(options UnixOptions) *UnixGrants {
	reserveSize := options.ReserveSize
	if reserveSize <= 0 {
		reserveSize = DefaultReserveSize
	}

	pageSize := unix.Getpagesize()

	return &UnixGrants{
		reserveSize: memutils.AlignUp(reserveSize, pageSize),
		pageSize:    pageSize,
		mappings:    swiss.NewMap[uintptr, []byte](16),
	}
}

// NewSystemGrants returns the Grants implementation best suited to the host: UnixGrants here.
func NewSystemGrants() Grants {
	return NewUnixGrants(UnixOptions{})
}

func (g *UnixGrants) reserve() error {
	region, err := unix.Mmap(-1, 0, g.reserveSize, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return errors.Wrapf(ErrOutOfMemory, "reserving %d bytes of address space for the arena: %v", g.reserveSize, err)
	}

	g.reserved = region
	return nil
}

func (g *UnixGrants) ExtendArena(size int) (unsafe.Pointer, error) {
	if size < 0 {
		return nil, errors.Wrapf(ErrInvalidSize, "cannot move the arena break by %d bytes", size)
	}

	if g.reserved == nil {
		err := g.reserve()
		if err != nil {
			return nil, err
		}
	}

	newBrk := g.brk + size
	if newBrk > len(g.reserved) {
		return nil, errors.Wrapf(ErrOutOfMemory, "arena reservation is %d bytes, %d in use, %d requested", len(g.reserved), g.brk, size)
	}

	if newBrk > g.committed {
		newCommitted := memutils.AlignUp(newBrk, g.pageSize)
		err := unix.Mprotect(g.reserved[g.committed:newCommitted], unix.PROT_READ|unix.PROT_WRITE)
		if err != nil {
			return nil, errors.Wrapf(ErrOutOfMemory, "committing arena pages [%d, %d): %v", g.committed, newCommitted, err)
		}
		g.committed = newCommitted
	}

	prev := unsafe.Add(unsafe.Pointer(unsafe.SliceData(g.reserved)), g.brk)
	g.brk = newBrk
	return prev, nil
}

func (g *UnixGrants) Map(size int) (unsafe.Pointer, error) {
	if size <= 0 {
		return nil, errors.Wrapf(ErrInvalidSize, "cannot map %d bytes", size)
	}

	region, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, errors.Wrapf(ErrOutOfMemory, "mapping %d bytes: %v", size, err)
	}

	addr := unsafe.Pointer(unsafe.SliceData(region))
	g.mappings.Put(uintptr(addr), region)
	return addr, nil
}

func (g *UnixGrants) Unmap(addr unsafe.Pointer, size int) error {
	region, ok := g.mappings.Get(uintptr(addr))
	if !ok {
		return errors.Wrapf(ErrUnknownMapping, "address %#x", uintptr(addr))
	}
	if len(region) != size {
		return errors.Wrapf(ErrUnknownMapping, "mapping at %#x is %d bytes, but %d were released", uintptr(addr), len(region), size)
	}

	err := unix.Munmap(region)
	if err != nil {
		return errors.Wrapf(err, "unmapping %d bytes at %#x", size, uintptr(addr))
	}

	g.mappings.Delete(uintptr(addr))
	return nil
}

// ArenaSize returns the number of bytes between the start of the arena and the current break
func (g *UnixGrants) ArenaSize() int {
	return g.brk
}

// MappingCount returns the number of live mappings
func (g *UnixGrants) MappingCount() int {
	return g.mappings.Count()
}

// Close unmaps every live mapping and the arena reservation. Pointers handed out before Close
// must not be used afterward.
func (g *UnixGrants) Close() error {
	var result error
	g.mappings.Iter(func(addr uintptr, region []byte) bool {
		err := unix.Munmap(region)
		if err != nil {
			result = errors.CombineErrors(result, errors.Wrapf(err, "unmapping %d bytes at %#x", len(region), addr))
		}
		return false
	})
	g.mappings = swiss.NewMap[uintptr, []byte](16)

	if g.reserved != nil {
		err := unix.Munmap(g.reserved)
		if err != nil {
			result = errors.CombineErrors(result, errors.Wrap(err, "releasing the arena reservation"))
		}
		g.reserved = nil
		g.brk = 0
		g.committed = 0
	}

	return result
}
