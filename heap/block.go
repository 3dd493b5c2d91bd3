package heap

import (
	"math"
	"unsafe"

	"github.com/vkngwrapper/osmem/memutils"
)

// Alignment is the boundary every payload address and every recorded size sits on
const Alignment = 8

// blockStatus is the lifecycle state of a block. FREE and ALLOCATED blocks live in the arena,
// MAPPED blocks own an individual mapping from creation until release.
type blockStatus uint32

const (
	statusFree blockStatus = iota
	statusAllocated
	statusMapped
)

var blockStatusMapping = map[blockStatus]string{
	statusFree:      "Free",
	statusAllocated: "Allocated",
	statusMapped:    "Mapped",
}

func (s blockStatus) String() string {
	str, ok := blockStatusMapping[s]
	if !ok {
		return "Unknown"
	}
	return str
}

// headerMagic is stamped into every live header and cleared when a header stops being meaningful,
// which lets Validate and the public entry points spot pointers that no longer refer to a block.
const headerMagic uint32 = 0x7F84E666

// blockHeader is the in-band metadata in front of every payload. Blocks are never moved once
// placed, so the prev/next links stay valid until the block is merged away or unmapped.
type blockHeader struct {
	size   int
	status blockStatus
	magic  uint32
	prev   *blockHeader
	next   *blockHeader
}

// headerSize is the aligned size of blockHeader, and the fixed distance from a header to its payload
const headerSize = (int(unsafe.Sizeof(blockHeader{})) + Alignment - 1) &^ (Alignment - 1)

// maxRequestSize is the largest payload size whose header and alignment padding do not overflow an int
const maxRequestSize = math.MaxInt - headerSize - Alignment

func align(size int) int {
	return memutils.AlignUp(size, Alignment)
}

// initBlock writes a fresh, unlinked header at addr
func initBlock(addr unsafe.Pointer, size int, status blockStatus) *blockHeader {
	block := (*blockHeader)(addr)
	block.size = size
	block.status = status
	block.magic = headerMagic
	block.prev = nil
	block.next = nil
	return block
}

// headerOf converts a pointer returned to a caller back into its header
func headerOf(ptr unsafe.Pointer) *blockHeader {
	return (*blockHeader)(unsafe.Add(ptr, -headerSize))
}

// payload converts a header into the pointer handed to callers
func (b *blockHeader) payload() unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(b), headerSize)
}

func (b *blockHeader) addr() unsafe.Pointer {
	return unsafe.Pointer(b)
}

func (b *blockHeader) start() uintptr {
	return uintptr(unsafe.Pointer(b))
}

// end is the address one past the last payload byte
func (b *blockHeader) end() uintptr {
	return b.start() + uintptr(b.capacity())
}

// capacity is the header plus payload footprint of the block
func (b *blockHeader) capacity() int {
	return headerSize + b.size
}

func (b *blockHeader) isValid() bool {
	return b.magic == headerMagic
}

func (b *blockHeader) isArena() bool {
	return b.status != statusMapped
}

func (b *blockHeader) bytes() []byte {
	return unsafe.Slice((*byte)(b.payload()), b.size)
}

// invalidate clears the magic so stale pointers into a merged or unmapped header are rejected
func (b *blockHeader) invalidate() {
	b.magic = 0
	b.prev = nil
	b.next = nil
}

func zeroMemory(ptr unsafe.Pointer, size int) {
	data := unsafe.Slice((*byte)(ptr), size)
	for i := range data {
		data[i] = 0
	}
}

func copyMemory(dst, src unsafe.Pointer, size int) {
	copy(unsafe.Slice((*byte)(dst), size), unsafe.Slice((*byte)(src), size))
}
