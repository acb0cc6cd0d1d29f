package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is matched (via errors.Is) by every lookup of a missing book.
var ErrNotFound = errors.New("book not found")

// NotFoundError reports an update, delete or read of an id that does not exist.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("book %d not found", e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NotFound returns a *NotFoundError for id. Stores use it so callers can
// match with errors.Is(err, ErrNotFound).
func NotFound(id int64) error {
	return &NotFoundError{ID: id}
}

// ValidationError represents malformed single-record input.
type ValidationError struct {
	Field   string // Field/column name, empty when several fields failed
	Value   string // The invalid value, if any
	Message string // Human-readable error message
	Err     error  // Underlying rule errors, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
	}
	return "validation: " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// SchemaError reports an import batch that lacks required columns.
// It aborts the whole batch.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsSchema reports whether err is (or wraps) a *SchemaError.
func IsSchema(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}
