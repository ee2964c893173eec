package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Service handles activity log operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// LogActivity logs an activity entry with the current timestamp if missing.
func (s *Service) LogActivity(ctx context.Context, userID string, entry *ActivityEntry) error {
	if entry == nil || !entry.ActivityType.Valid() {
		return ErrInvalidInput
	}
	entry.UserID = userID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := s.repo.Log(ctx, userID, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// Record logs an entry and swallows failures. The audit trail must never
// fail the workflow step that produced it.
func (s *Service) Record(ctx context.Context, userID string, entry *ActivityEntry) {
	if err := s.LogActivity(ctx, userID, entry); err != nil {
		s.logger.Warn("activity log write failed", "type", entryType(entry), "error", err)
	}
}

// GetRecentActivity lists activity entries newest-first with filtering.
func (s *Service) GetRecentActivity(ctx context.Context, userID string, opts ListActivityOptions) ([]ActivityEntry, error) {
	if opts.ActivityType != nil && !opts.ActivityType.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidInput, *opts.ActivityType)
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultListLimit
	}
	if opts.Limit > maxListLimit {
		opts.Limit = maxListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	entries, err := s.repo.List(ctx, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	return entries, nil
}

// Details encodes v for ActivityEntry.Details, returning "" if it can't.
func Details(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func entryType(entry *ActivityEntry) ActivityType {
	if entry == nil {
		return ""
	}
	return entry.ActivityType
}
