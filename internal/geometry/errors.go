package geometry

import (
	"errors"
	"fmt"
)

// ErrMissingField is matched by FieldError when a required key is absent.
var ErrMissingField = errors.New("missing required field")

// ErrInvalidField is matched by FieldError when a key is present but malformed.
var ErrInvalidField = errors.New("invalid field")

// FieldError reports a coordinate payload that cannot be turned into a value.
type FieldError struct {
	Shape Shape
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("geometry: %s: field %q: %v", e.Shape, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

func missing(shape Shape, field string) error {
	return &FieldError{Shape: shape, Field: field, Err: ErrMissingField}
}

func invalid(shape Shape, field string, cause error) error {
	if cause == nil {
		cause = ErrInvalidField
	} else {
		cause = fmt.Errorf("%w: %v", ErrInvalidField, cause)
	}
	return &FieldError{Shape: shape, Field: field, Err: cause}
}
