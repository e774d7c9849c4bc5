package radtk

import (
	"errors"
	"fmt"

	"github.com/COMBINE-lab/radtk/radfile"
)

var (
	// ErrNoInputs is returned when an operation is given nothing to do.
	ErrNoInputs = errors.New("no input RAD files")

	// ErrInvalidTarget is returned for a non-positive or ambiguous split
	// target, before any file is touched.
	ErrInvalidTarget = errors.New("invalid split target")
)

// IncompatibleError indicates that an input's prelude differs structurally
// from the first input's prelude.
//
// The underlying *radfile.MismatchError can be accessed via errors.As.
type IncompatibleError struct {
	Path  string // the offending input
	First string // the input it was compared against
	cause error
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("RAD file %s is incompatible with %s: %v", e.Path, e.First, e.cause)
}

func (e *IncompatibleError) Unwrap() error { return e.cause }

// IsCorrupt reports whether err stems from truncated or malformed input.
func IsCorrupt(err error) bool {
	var ce *radfile.CorruptError
	return errors.As(err, &ce)
}
