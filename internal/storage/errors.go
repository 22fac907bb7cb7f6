package storage

import "errors"

// Storage errors shared by all SignalStore implementations.
var (
	// ErrNotFound is returned when a referenced signal does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
