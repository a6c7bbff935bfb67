package domain

import "errors"

var (
	// ErrValidation marks input rejected before any storage mutation.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks an operation targeting a nonexistent record.
	ErrNotFound = errors.New("not found")
)
