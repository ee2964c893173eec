package alert

import "time"

// Status is the review state of an alert. Any status may follow any other.
type Status string

const (
	StatusNew      Status = "new"
	StatusReviewed Status = "reviewed"
	StatusBilled   Status = "billed"
)

// Valid reports whether s is one of new, reviewed or billed.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusReviewed, StatusBilled:
		return true
	}
	return false
}

// Alert is one persisted scope deviation found in a meeting.
type Alert struct {
	ID                string    `json:"id"`
	MeetingID         string    `json:"meeting_id"`
	RequestText       string    `json:"request_text"`
	Reason            string    `json:"reason"`
	ContractReference *string   `json:"contract_reference"`
	Status            Status    `json:"status"`
	AnalysisRun       int       `json:"analysis_run"`
	CreatedAt         time.Time `json:"created_at"`
}

// ProjectRef names the project an alert belongs to.
type ProjectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MeetingRef is the meeting context embedded in alert listings.
type MeetingRef struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	Project   ProjectRef `json:"project"`
}

// View is an alert with its meeting and project context.
type View struct {
	Alert
	Meeting MeetingRef `json:"meeting"`
}

// ListOptions filters alert listings. Zero values mean "any".
type ListOptions struct {
	ProjectID string
	MeetingID string
	Status    Status
	Limit     int
}
