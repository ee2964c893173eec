package alert

import (
	"context"

	"github.com/rpggio/scopeguard/internal/domain/activity"
)

// Repository provides owner-filtered persistence for alerts. Alerts are
// created by the meeting repository as part of completing an analysis.
type Repository interface {
	Get(ctx context.Context, userID, id string) (*View, error)
	List(ctx context.Context, userID string, opts ListOptions) ([]View, error)
	UpdateStatus(ctx context.Context, userID, id string, status Status) error
}

// ActivityRecorder writes audit entries without failing the caller.
type ActivityRecorder interface {
	Record(ctx context.Context, userID string, entry *activity.ActivityEntry)
}
