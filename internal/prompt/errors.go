package prompt

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField indicates a required input field is absent.
	ErrMissingField = errors.New("missing required field")
	// ErrKindMismatch indicates the input does not belong to the requested stage.
	ErrKindMismatch = errors.New("input does not match stage")
)

// MissingFieldError names the absent field.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMissingField, e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}

func missing(field string) error {
	return &MissingFieldError{Field: field}
}
