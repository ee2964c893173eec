package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist or isn't owned by the caller
	ErrNotFound = errors.New("not found")

	// ErrForeignKeyViolation is returned when a foreign key constraint fails
	ErrForeignKeyViolation = errors.New("foreign key violation")

	// ErrInvalidInput is returned when a value is rejected by a store constraint
	ErrInvalidInput = errors.New("invalid input")
)
