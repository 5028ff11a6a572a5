package sqlgen

import (
	"errors"
	"fmt"
)

// ErrValidationGap is returned when a clause carries text that can only
// be passed through literally and therefore cannot be bound as a parameter.
var ErrValidationGap = errors.New("value cannot be parameterized")

// ValidationGapError names the clause and value that could not be bound.
type ValidationGapError struct {
	Clause string
	Value  string
}

// Error implements the error interface.
func (e *ValidationGapError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Clause, e.Value, ErrValidationGap)
}

// Is checks if the error is ErrValidationGap.
func (e *ValidationGapError) Is(target error) bool {
	return target == ErrValidationGap
}

// IsValidationGap checks if an error is a validation gap.
func IsValidationGap(err error) bool {
	return errors.Is(err, ErrValidationGap)
}
