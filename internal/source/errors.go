package source

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnopenable is returned when a source cannot be opened or listed at all.
	ErrSourceUnopenable = errors.New("source cannot be opened")
	// ErrCategoryUnavailable is matched by errors for categories that cannot be fetched.
	ErrCategoryUnavailable = errors.New("category unavailable")
)

// CategoryUnavailableError reports why one category could not be produced.
type CategoryUnavailableError struct {
	Category string
	Err      error
}

// Error implements error.
func (e *CategoryUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("category %q unavailable", e.Category)
	}

	return fmt.Sprintf("category %q unavailable: %v", e.Category, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CategoryUnavailableError) Unwrap() error {
	return e.Err
}

// Is makes every CategoryUnavailableError match ErrCategoryUnavailable.
func (e *CategoryUnavailableError) Is(target error) bool {
	return target == ErrCategoryUnavailable
}

// Unavailable wraps err as a CategoryUnavailableError for name.
func Unavailable(name string, err error) error {
	return &CategoryUnavailableError{Category: name, Err: err}
}

// Unopenable wraps err so that it matches ErrSourceUnopenable.
func Unopenable(location string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrSourceUnopenable, location)
	}

	return fmt.Errorf("%w: %s: %w", ErrSourceUnopenable, location, err)
}
