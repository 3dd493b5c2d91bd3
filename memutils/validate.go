package memutils

// Validatable is used by the DebugValidate method to allow it to act upon
// all types with a Validate method
type Validatable interface {
	Validate() error
}

const (
	// CreatedFillPattern is written across fresh, non-zeroed payloads in debug builds so that reads of
	// uninitialized memory are easy to spot
	CreatedFillPattern uint8 = 0xDC
	// DestroyedFillPattern is written across released payloads in debug builds so that use-after-free
	// reads are easy to spot
	DestroyedFillPattern uint8 = 0xEF
)

// ValidateFunc adapts a plain function to the Validatable interface
type ValidateFunc func() error

func (f ValidateFunc) Validate() error {
	return f()
}
