package meeting

import (
	"time"

	"github.com/rpggio/scopeguard/internal/domain/alert"
	"github.com/rpggio/scopeguard/internal/domain/scope"
)

// DefaultTitle is used when a meeting is ingested without a title.
const DefaultTitle = "Untitled Meeting"

// AnalysisState tracks a meeting through deviation detection. A meeting left
// in StateAnalyzing or StateAnalysisFailed can be re-analyzed.
type AnalysisState string

const (
	StateCreated        AnalysisState = "created"
	StateAnalyzing      AnalysisState = "analyzing"
	StateAnalyzed       AnalysisState = "analyzed"
	StateAnalysisFailed AnalysisState = "analysis_failed"
	StateSkipped        AnalysisState = "skipped"
)

// Meeting is a transcript attached to a project.
type Meeting struct {
	ID            string        `json:"id"`
	ProjectID     string        `json:"project_id"`
	Title         string        `json:"title"`
	Transcript    *string       `json:"transcript"`
	AudioURL      *string       `json:"audio_url"`
	AnalysisState AnalysisState `json:"analysis_state"`
	AnalysisRun   int           `json:"analysis_run"`
	AnalysisNote  string        `json:"analysis_note,omitempty"`
	AnalyzedAt    *time.Time    `json:"analyzed_at"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Audio is an uploaded recording awaiting transcription.
type Audio struct {
	Data        []byte
	Filename    string
	ContentType string
}

// IngestRequest defines meeting ingestion inputs. When both Transcript and
// Audio are present the transcript is used and the audio is not transcribed.
type IngestRequest struct {
	ProjectID  string
	Title      string
	Transcript string
	Audio      *Audio
}

// IngestResult is the stored meeting plus what detection produced.
// Outcome is empty when analysis was skipped.
type IngestResult struct {
	Meeting *Meeting
	Alerts  []alert.Alert
	Outcome scope.OutcomeKind
}
