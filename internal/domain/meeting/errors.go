package meeting

import "errors"

var (
	// ErrMeetingNotFound indicates the meeting doesn't exist or belongs to another user.
	ErrMeetingNotFound = errors.New("meeting not found")
	// ErrInvalidInput indicates invalid ingestion input.
	ErrInvalidInput = errors.New("invalid meeting input")
	// ErrTranscriptionFailed indicates the audio could not be transcribed.
	ErrTranscriptionFailed = errors.New("transcription failed")
	// ErrNoScope indicates the project has no scope summary to analyze against.
	ErrNoScope = errors.New("project has no scope summary")
)
