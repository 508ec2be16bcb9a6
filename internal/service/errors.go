package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrConflict indicates the write collides with existing data.
	ErrConflict = errors.New("resource already exists")
	// ErrForbidden indicates the actor may not perform the operation.
	ErrForbidden = errors.New("insufficient permissions")
	// ErrValidation marks input rejected before any remote call.
	ErrValidation = errors.New("validation failed")
	// ErrUpstream wraps failures of a remote dependency.
	ErrUpstream = errors.New("upstream service unavailable")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
