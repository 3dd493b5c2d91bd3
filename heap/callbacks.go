package heap

import "unsafe"

type ExtendArenaCallback func(
	allocator *Allocator,
	addr unsafe.Pointer,
	size int,
	userData interface{},
)

type MapCallback func(
	allocator *Allocator,
	addr unsafe.Pointer,
	size int,
	userData interface{},
)

type UnmapCallback func(
	allocator *Allocator,
	addr unsafe.Pointer,
	size int,
	userData interface{},
)

// GrantCallbackOptions is a set of optional callbacks fired when an Allocator moves the arena
// break, obtains a mapping, or has returned a mapping. They run while the allocator is in
// the middle of an operation and must not call back into it.
type GrantCallbackOptions struct {
	ExtendArena ExtendArenaCallback
	Map         MapCallback
	Unmap       UnmapCallback
	UserData    interface{}
}

type grantCallbacks struct {
	Callbacks *GrantCallbackOptions
	Allocator *Allocator
}

func (c *grantCallbacks) ExtendArena(addr unsafe.Pointer, size int) {
	if c.Callbacks != nil && c.Callbacks.ExtendArena != nil {
		c.Callbacks.ExtendArena(c.Allocator, addr, size, c.Callbacks.UserData)
	}
}

func (c *grantCallbacks) Map(addr unsafe.Pointer, size int) {
	if c.Callbacks != nil && c.Callbacks.Map != nil {
		c.Callbacks.Map(c.Allocator, addr, size, c.Callbacks.UserData)
	}
}

func (c *grantCallbacks) Unmap(addr unsafe.Pointer, size int) {
	if c.Callbacks != nil && c.Callbacks.Unmap != nil {
		c.Callbacks.Unmap(c.Allocator, addr, size, c.Callbacks.UserData)
	}
}
