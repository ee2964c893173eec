package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/scopeguard/internal/domain/activity"
	"github.com/rpggio/scopeguard/internal/domain/alert"
	"github.com/rpggio/scopeguard/internal/domain/meeting"
	"github.com/rpggio/scopeguard/internal/domain/project"
	"github.com/rpggio/scopeguard/internal/llm"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. Unknown errors become
// INTERNAL without exposing their text.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, meeting.ErrInvalidInput),
		errors.Is(err, alert.ErrInvalidInput),
		errors.Is(err, activity.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, project.ErrProjectNotFound):
		return &APIError{Code: "PROJECT_NOT_FOUND", Message: "project not found", RecoveryHint: "Call list_projects for valid ids"}
	case errors.Is(err, meeting.ErrMeetingNotFound):
		return &APIError{Code: "MEETING_NOT_FOUND", Message: "meeting not found", RecoveryHint: "Call list_meetings for valid ids"}
	case errors.Is(err, alert.ErrAlertNotFound):
		return &APIError{Code: "ALERT_NOT_FOUND", Message: "alert not found", RecoveryHint: "Call list_alerts for valid ids"}
	case errors.Is(err, meeting.ErrNoScope):
		return &APIError{Code: "NO_SCOPE", Message: "project has no scope summary", RecoveryHint: "Create the project again with its contract"}
	case errors.Is(err, meeting.ErrTranscriptionFailed):
		return &APIError{Code: "TRANSCRIPTION_FAILED", Message: "audio transcription failed", RecoveryHint: "Retry later or send a transcript"}
	case errors.Is(err, llm.ErrUpstream):
		return &APIError{Code: "UPSTREAM_UNAVAILABLE", Message: "model service unavailable", RecoveryHint: "Retry later"}
	default:
		return &APIError{Code: "INTERNAL", Message: "internal error"}
	}
}
