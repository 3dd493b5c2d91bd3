//go:build !debug_mem_utils

package memutils

import "unsafe"

// FillPattern writes pattern across size bytes at data.
// This method no-ops unless the debug_mem_utils build tag is present.
func FillPattern(data unsafe.Pointer, size int, pattern uint8) {
}

// DebugValidate will call Validate on the provided object and panics if any errors are returned. This
// method no-ops unless the debug_mem_utils build tag is present
func DebugValidate(validatable Validatable) {
}
