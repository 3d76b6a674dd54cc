package game

import (
	"errors"
	"fmt"
)

var (
	// ErrIllegalTransition is returned when an operation is called from a
	// lifecycle state that does not allow it. Nothing is changed.
	ErrIllegalTransition = errors.New("illegal state transition")

	// ErrInvalidResults is wrapped by every ValidationError.
	ErrInvalidResults = errors.New("invalid hand results")

	// ErrInvariant means the scoring produced an impossible state.
	ErrInvariant = errors.New("invariant violated")
)

// ValidationError explains why proposed hand results were rejected.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid hand results: " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidResults
}

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func illegal(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIllegalTransition, fmt.Sprintf(format, args...))
}

func invariant(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}
