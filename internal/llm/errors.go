package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstream matches every failure to obtain an answer from the model service.
	ErrUpstream = errors.New("model service unavailable")
	// ErrNotConfigured indicates no API key was supplied.
	ErrNotConfigured = errors.New("model service not configured")
)

// UpstreamError describes a failed model service call.
type UpstreamError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: http %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrUpstream) match any UpstreamError.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}
