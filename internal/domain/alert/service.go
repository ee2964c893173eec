package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpggio/scopeguard/internal/domain/activity"
	"github.com/rpggio/scopeguard/internal/repository"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// Service handles alert listing and the review lifecycle.
type Service struct {
	repo     Repository
	activity ActivityRecorder
	logger   *slog.Logger
}

// NewService creates a new alert service. activity and logger may be nil.
func NewService(repo Repository, activity ActivityRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, activity: activity, logger: logger}
}

// List returns the current alerts visible to userID, newest first. Alerts
// superseded by a later analysis run of their meeting are excluded.
func (s *Service) List(ctx context.Context, userID string, opts ListOptions) ([]View, error) {
	if opts.Status != "" && !opts.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, opts.Status)
	}
	opts.ProjectID = strings.TrimSpace(opts.ProjectID)
	opts.MeetingID = strings.TrimSpace(opts.MeetingID)
	if opts.Limit <= 0 {
		opts.Limit = defaultListLimit
	}
	if opts.Limit > maxListLimit {
		opts.Limit = maxListLimit
	}

	alerts, err := s.repo.List(ctx, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	return alerts, nil
}

// Get fetches one alert with its context.
func (s *Service) Get(ctx context.Context, userID, id string) (*View, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	view, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, fmt.Errorf("getting alert: %w", err)
	}
	return view, nil
}

// UpdateStatusRequest carries the raw inputs of a status change.
type UpdateStatusRequest struct {
	ID     string
	Status string
}

// UpdateStatus overwrites the alert's status. Both fields are validated
// before the store is touched; ownership is enforced by the update itself.
func (s *Service) UpdateStatus(ctx context.Context, userID string, req UpdateStatusRequest) (*View, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.Status) == "" {
		return nil, fmt.Errorf("%w: status is required", ErrInvalidInput)
	}
	status := Status(strings.ToLower(strings.TrimSpace(req.Status)))
	if !status.Valid() {
		return nil, fmt.Errorf("%w: status must be one of new, reviewed, billed", ErrInvalidInput)
	}

	if err := s.repo.UpdateStatus(ctx, userID, id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, fmt.Errorf("updating alert status: %w", err)
	}

	view, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if s.activity != nil {
		alertID, meetingID := view.ID, view.MeetingID
		s.activity.Record(ctx, userID, &activity.ActivityEntry{
			ProjectID:    view.Meeting.Project.ID,
			MeetingID:    &meetingID,
			AlertID:      &alertID,
			ActivityType: activity.TypeAlertStatusChanged,
			Summary:      fmt.Sprintf("Marked alert %s", status),
			Details:      activity.Details(map[string]string{"status": string(status)}),
		})
	}
	return view, nil
}
