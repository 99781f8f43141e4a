package todo

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks rejected input. Nothing was mutated.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a lookup or mutation of an id that does not exist.
	ErrNotFound = errors.New("item not found")

	// ErrStorage marks a failure of the persistence layer.
	ErrStorage = errors.New("storage failure")
)

// Validationf returns an error wrapping ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound returns an error wrapping ErrNotFound for the given id.
func NotFound(id int64) error {
	return fmt.Errorf("%w: id %d", ErrNotFound, id)
}

// StorageError wraps a backend error so it matches both ErrStorage and the
// original cause. Returns nil when err is nil.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
