package alert

import "errors"

var (
	// ErrAlertNotFound indicates the alert doesn't exist or belongs to another user.
	ErrAlertNotFound = errors.New("alert not found")
	// ErrInvalidInput indicates a missing id or an unknown status.
	ErrInvalidInput = errors.New("invalid alert input")
)
