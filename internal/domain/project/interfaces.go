package project

import (
	"context"

	"github.com/rpggio/scopeguard/internal/domain/activity"
	"github.com/rpggio/scopeguard/internal/domain/scope"
)

// Repository provides persistence for projects.
type Repository interface {
	Create(ctx context.Context, userID string, proj *Project) error
	Get(ctx context.Context, userID, id string) (*Project, error)
	List(ctx context.Context, userID string) ([]ProjectSummary, error)
}

// Extractor produces the scope summary for a contract.
type Extractor interface {
	Extract(ctx context.Context, contractText string) scope.Outcome[scope.Summary]
}

// ActivityRecorder writes audit entries without failing the caller.
type ActivityRecorder interface {
	Record(ctx context.Context, userID string, entry *activity.ActivityEntry)
}
