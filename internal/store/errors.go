package store

import (
	"errors"
	"fmt"

	"github.com/claude/mapty/internal/models"
)

var (
	// ErrNotFound is returned when no workout has the requested id.
	ErrNotFound = errors.New("workout not found")
	// ErrUnknownField matches every *UnknownFieldError.
	ErrUnknownField = errors.New("unknown sort field")
	// ErrSave matches every *SaveError.
	ErrSave = errors.New("workouts not saved")
)

// UnknownFieldError reports a sort on a field that does not exist, or that
// does not exist on Kind.
type UnknownFieldError struct {
	Field string
	Kind  models.Kind
}

func (e *UnknownFieldError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("unknown sort field %q for %s workouts", e.Field, e.Kind)
	}
	return fmt.Sprintf("unknown sort field %q", e.Field)
}

func (e *UnknownFieldError) Unwrap() error { return ErrUnknownField }

// SaveError is returned alongside the result of a mutation that was applied
// in memory but could not be written to the slot. A reload will lose it.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string { return fmt.Sprintf("workouts not saved: %v", e.Err) }

func (e *SaveError) Unwrap() error { return e.Err }

func (e *SaveError) Is(target error) bool { return target == ErrSave }
