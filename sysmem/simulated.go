package sysmem

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
)

const (
	// DefaultSimulatedArenaCapacity is the arena capacity used by SimulatedGrants when none is
	// provided via SimulatedOptions. It is equal to 16Mb.
	DefaultSimulatedArenaCapacity int = 16 * 1024 * 1024
)

// SimulatedOptions contains optional settings when creating a SimulatedGrants
type SimulatedOptions struct {
	// ArenaCapacity is the most bytes ExtendArena will ever hand out
	ArenaCapacity int
}

// SimulatedGrants implements Grants on top of Go-managed memory. The arena is one preallocated
// buffer whose break only moves forward, and each mapping is a separate zeroed buffer kept alive
// until it is unmapped. It behaves like the real primitives closely enough to exercise a heap in
// tests, and serves as the fallback on hosts without anonymous mmap.
//
// SimulatedGrants is not safe for concurrent use.
type SimulatedGrants struct {
	arenaCapacity int
	arena         []byte
	brk           int

	mappings *swiss.Map[uintptr, []byte]
}

var _ Grants = &SimulatedGrants{}

func NewSimulatedGrants(options SimulatedOptions) *SimulatedGrants {
	capacity := options.ArenaCapacity
	if capacity <= 0 {
		capacity = DefaultSimulatedArenaCapacity
	}

	return &SimulatedGrants{
		arenaCapacity: capacity,
		mappings:      swiss.NewMap[uintptr, []byte](16),
	}
}

func (g *SimulatedGrants) ExtendArena(size int) (unsafe.Pointer, error) {
	if size < 0 {
		return nil, errors.Wrapf(ErrInvalidSize, "cannot move the arena break by %d bytes", size)
	}

	if g.arena == nil {
		g.arena = make([]byte, g.arenaCapacity)
	}

	if g.brk+size > len(g.arena) {
		return nil, errors.Wrapf(ErrOutOfMemory, "arena capacity is %d bytes, %d in use, %d requested", len(g.arena), g.brk, size)
	}

	prev := unsafe.Add(unsafe.Pointer(unsafe.SliceData(g.arena)), g.brk)
	g.brk += size
	return prev, nil
}

func (g *SimulatedGrants) Map(size int) (unsafe.Pointer, error) {
	if size <= 0 {
		return nil, errors.Wrapf(ErrInvalidSize, "cannot map %d bytes", size)
	}

	region := make([]byte, size)
	addr := unsafe.Pointer(unsafe.SliceData(region))
	g.mappings.Put(uintptr(addr), region)
	return addr, nil
}

func (g *SimulatedGrants) Unmap(addr unsafe.Pointer, size int) error {
	region, ok := g.mappings.Get(uintptr(addr))
	if !ok {
		return errors.Wrapf(ErrUnknownMapping, "address %#x", uintptr(addr))
	}
	if len(region) != size {
		return errors.Wrapf(ErrUnknownMapping, "mapping at %#x is %d bytes, but %d were released", uintptr(addr), len(region), size)
	}

	// Scribble over the region so reads through stale pointers are not silently satisfied
	for i := range region {
		region[i] = 0xFF
	}

	g.mappings.Delete(uintptr(addr))
	return nil
}

// ArenaSize returns the number of bytes between the start of the arena and the current break
func (g *SimulatedGrants) ArenaSize() int {
	return g.brk
}

// MappingCount returns the number of live mappings
func (g *SimulatedGrants) MappingCount() int {
	return g.mappings.Count()
}

// Close drops every buffer. Pointers handed out before Close must not be used afterward.
func (g *SimulatedGrants) Close() error {
	g.arena = nil
	g.brk = 0
	g.mappings = swiss.NewMap[uintptr, []byte](16)
	return nil
}
