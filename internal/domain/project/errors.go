package project

import "errors"

var (
	// ErrProjectNotFound indicates the project doesn't exist or belongs to another user.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = errors.New("invalid project input")
)
