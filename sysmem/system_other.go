//go:build !unix

package sysmem

// NewSystemGrants returns the Grants implementation best suited to the host. Without anonymous
// mmap support the heap lives in Go-managed memory.
func NewSystemGrants() Grants {
	return NewSimulatedGrants(SimulatedOptions{})
}
