package models

import (
	"errors"
	"fmt"
)

// ValidationError is a user-correctable rejection of a write.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// PreconditionError means the record is not in a state that allows the operation.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string { return e.Message }

func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func NewPreconditionError(format string, args ...any) error {
	return &PreconditionError{Message: fmt.Sprintf(format, args...)}
}

var (
	ErrDuplicateReminder  = &ValidationError{Message: "reminder already exists for this invoice on that date"}
	ErrDuplicateTierCode  = &ValidationError{Message: "price tier code must be unique"}
	ErrDuplicateTierPrice = &ValidationError{Message: "product already has a price for this tier"}
)

// IsUserError reports whether err should be surfaced to the caller as a 4xx.
func IsUserError(err error) bool {
	var ve *ValidationError
	var pe *PreconditionError
	return errors.As(err, &ve) || errors.As(err, &pe)
}
