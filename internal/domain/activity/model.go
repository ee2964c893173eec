package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeProjectCreated     ActivityType = "project_created"
	TypeScopeExtracted     ActivityType = "scope_extracted"
	TypeScopeDegraded      ActivityType = "scope_degraded"
	TypeScopeFailed        ActivityType = "scope_failed"
	TypeMeetingIngested    ActivityType = "meeting_ingested"
	TypeMeetingAnalyzed    ActivityType = "meeting_analyzed"
	TypeAnalysisDegraded   ActivityType = "analysis_degraded"
	TypeAnalysisFailed     ActivityType = "analysis_failed"
	TypeAnalysisSkipped    ActivityType = "analysis_skipped"
	TypeAlertStatusChanged ActivityType = "alert_status_changed"
)

// Valid reports whether t is a known activity type.
func (t ActivityType) Valid() bool {
	switch t {
	case TypeProjectCreated, TypeScopeExtracted, TypeScopeDegraded, TypeScopeFailed,
		TypeMeetingIngested, TypeMeetingAnalyzed, TypeAnalysisDegraded, TypeAnalysisFailed,
		TypeAnalysisSkipped, TypeAlertStatusChanged:
		return true
	}
	return false
}

// ActivityEntry represents an event in the activity log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	UserID       string       `json:"-"`
	ProjectID    string       `json:"project_id"`
	MeetingID    *string      `json:"meeting_id,omitempty"`
	AlertID      *string      `json:"alert_id,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
}
