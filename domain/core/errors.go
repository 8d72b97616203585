package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound          = errors.New("resource not found")
	ErrSelectionNotFound = fmt.Errorf("%w: selection run", ErrNotFound)

	ErrMissingColumn    = errors.New("missing required column")
	ErrUnparsableValue  = errors.New("unparsable value")
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrEmptyTable       = errors.New("table has no rows")
)

// NewMissingColumnError names the column that a table lacks
func NewMissingColumnError(column string) error {
	return fmt.Errorf("%w: %q", ErrMissingColumn, column)
}

// NewUnparsableError names the row, column and raw text that failed to parse
func NewUnparsableError(row int, column, raw string, cause error) error {
	return fmt.Errorf("%w: row %d column %q value %q: %v", ErrUnparsableValue, row, column, raw, cause)
}

// NewNotFoundError reports a missing resource by id
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// IsNotFoundError checks the chain for ErrNotFound
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInputError reports table-shape and parsing failures
func IsInputError(err error) bool {
	return errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrUnparsableValue) ||
		errors.Is(err, ErrEmptyTable)
}
