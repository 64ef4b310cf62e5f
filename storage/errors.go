package storage

import "errors"

var (
	// ErrNotFound indicates no body exists for the given identifier.
	ErrNotFound = errors.New("storage: transaction not found")

	// ErrIOFailure indicates a file read/write error.
	ErrIOFailure = errors.New("storage: I/O failure")

	// ErrEmptyContent indicates an attempt to store an empty body.
	ErrEmptyContent = errors.New("storage: content is empty")

	// ErrInvalidBaseDir indicates the base directory path is invalid.
	ErrInvalidBaseDir = errors.New("storage: invalid base directory")

	// ErrIDMismatch indicates a body does not hash to the identifier it is stored under.
	ErrIDMismatch = errors.New("storage: identifier does not match body")
)
