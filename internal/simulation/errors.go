package simulation

import (
	"errors"
	"strings"
)

// ErrValidation marks errors caused by the caller's input rather than by the engine.
var ErrValidation = errors.New("invalid simulation input")

// ValidationError lists every problem found with a request. Err, when set, is the
// underlying cause (for example community.ErrInsufficientData).
type ValidationError struct {
	Problems []string
	Err      error
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrValidation, e.Err}
	}
	return []error{ErrValidation}
}

func invalid(problems ...string) error {
	return &ValidationError{Problems: problems}
}
