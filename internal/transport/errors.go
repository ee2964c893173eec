package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rpggio/scopeguard/internal/domain/activity"
	"github.com/rpggio/scopeguard/internal/domain/alert"
	"github.com/rpggio/scopeguard/internal/domain/meeting"
	"github.com/rpggio/scopeguard/internal/domain/project"
	"github.com/rpggio/scopeguard/internal/llm"
	"github.com/rpggio/scopeguard/internal/repository"
)

// Error codes returned in the "code" field of error bodies.
const (
	codeUnauthorized        = "UNAUTHORIZED"
	codeInvalidInput        = "INVALID_INPUT"
	codeNotFound            = "NOT_FOUND"
	codeNoScope             = "NO_SCOPE"
	codePayloadTooLarge     = "PAYLOAD_TOO_LARGE"
	codeTranscriptionFailed = "TRANSCRIPTION_FAILED"
	codeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	codeInternal            = "INTERNAL"
)

// errBadRequest marks malformed request bodies and query strings.
var errBadRequest = errors.New("bad request")

var errPayloadTooLarge = errors.New("payload too large")

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusFor maps a service error to an HTTP status, code and public message.
func statusFor(err error) (int, string, string) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, codeUnauthorized, "unauthorized"
	case errors.Is(err, errPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, codePayloadTooLarge, err.Error()
	case errors.Is(err, errBadRequest),
		errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, meeting.ErrInvalidInput),
		errors.Is(err, alert.ErrInvalidInput),
		errors.Is(err, activity.ErrInvalidInput):
		return http.StatusBadRequest, codeInvalidInput, err.Error()
	case errors.Is(err, project.ErrProjectNotFound),
		errors.Is(err, meeting.ErrMeetingNotFound),
		errors.Is(err, alert.ErrAlertNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, codeNotFound, notFoundMessage(err)
	case errors.Is(err, meeting.ErrNoScope):
		return http.StatusConflict, codeNoScope, err.Error()
	case errors.Is(err, meeting.ErrTranscriptionFailed):
		return http.StatusBadGateway, codeTranscriptionFailed, "audio transcription failed; retry later or upload a transcript"
	case errors.Is(err, llm.ErrUpstream):
		return http.StatusBadGateway, codeUpstreamUnavailable, "model service unavailable; retry later"
	default:
		return http.StatusInternalServerError, codeInternal, "internal error"
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, project.ErrProjectNotFound):
		return project.ErrProjectNotFound.Error()
	case errors.Is(err, meeting.ErrMeetingNotFound):
		return meeting.ErrMeetingNotFound.Error()
	case errors.Is(err, alert.ErrAlertNotFound):
		return alert.ErrAlertNotFound.Error()
	default:
		return "not found"
	}
}

func writeServiceError(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	status, code, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "code", code, "error", err)
	} else {
		logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "code", code, "error", err)
	}
	writeError(w, status, code, message)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorBody{Error: message, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
