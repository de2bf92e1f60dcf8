package domain

import "errors"

// Error kinds. Specific failures wrap one of these with %w so callers can
// assert on cause with errors.Is.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
)
