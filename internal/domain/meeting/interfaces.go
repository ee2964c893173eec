package meeting

import (
	"context"

	"github.com/rpggio/scopeguard/internal/domain/activity"
	"github.com/rpggio/scopeguard/internal/domain/alert"
	"github.com/rpggio/scopeguard/internal/domain/project"
	"github.com/rpggio/scopeguard/internal/domain/scope"
)

// Repository provides owner-filtered persistence for meetings.
type Repository interface {
	// Create fails with repository.ErrNotFound unless userID owns m.ProjectID.
	Create(ctx context.Context, userID string, m *Meeting) error
	Get(ctx context.Context, userID, id string) (*Meeting, error)
	List(ctx context.Context, userID, projectID string) ([]Meeting, error)
	// UpdateAnalysis stores the analysis state, note and analyzed_at.
	UpdateAnalysis(ctx context.Context, userID string, m *Meeting) error
	// CompleteAnalysis allocates the meeting's next analysis run, stamps it on
	// m and every alert, then writes the alerts and the analysis fields in one
	// transaction. Runs passed in are ignored.
	CompleteAnalysis(ctx context.Context, userID string, m *Meeting, alerts []alert.Alert) error
}

// ProjectReader loads a project owned by userID.
type ProjectReader interface {
	Get(ctx context.Context, userID, id string) (*project.Project, error)
}

// Detector finds scope deviations in a transcript.
type Detector interface {
	Detect(ctx context.Context, transcript string, summary scope.Summary) scope.Outcome[[]scope.Finding]
}

// Transcriber converts audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// ActivityRecorder writes audit entries without failing the caller.
type ActivityRecorder interface {
	Record(ctx context.Context, userID string, entry *activity.ActivityEntry)
}
