package nakdan

import (
	"errors"
	"fmt"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("nakdan: invalid input")

	// ErrClosed indicates the coordinator has been closed.
	ErrClosed = errors.New("nakdan: coordinator closed")

	// ErrNoClient indicates no annotator was provided.
	ErrNoClient = errors.New("nakdan: no annotation client provided")
)

// ValidationError reports a rejected argument. It is returned before any
// state is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("nakdan: invalid %s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
