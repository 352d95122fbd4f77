package core

import (
	"errors"
	"fmt"
)

// ValidationError rejects an argument set before any store access.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewLimitError reports a page size above the allowed maximum.
func NewLimitError(limit, max int) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf("limit %d exceeds maximum of %d", limit, max)}
}

// NotFoundError reports an account reference that could not be resolved.
// It is raised by the lookup capability and propagated unchanged.
type NotFoundError struct {
	Ref AccountRef
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("account %q not found", string(e.Ref))
}

// StoreError wraps any failure from the underlying store. It is surfaced
// as an opaque internal error and never retried.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
