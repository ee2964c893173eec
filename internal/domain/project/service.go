package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/scopeguard/internal/domain/activity"
	"github.com/rpggio/scopeguard/internal/domain/scope"
	"github.com/rpggio/scopeguard/internal/repository"
)

// Service handles project operations.
type Service struct {
	repo      Repository
	extractor Extractor
	activity  ActivityRecorder
	logger    *slog.Logger
}

// NewService creates a new project service. activity and logger may be nil.
func NewService(repo Repository, extractor Extractor, activity ActivityRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, extractor: extractor, activity: activity, logger: logger}
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	Name         string
	ContractText string
}

// Create validates input, extracts the scope and persists the project.
// Extraction trouble never fails creation: a degraded result stores an empty
// summary, a failed one stores none, and both record the reason.
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.ContractText) == "" {
		return nil, fmt.Errorf("%w: contract_text is required", ErrInvalidInput)
	}

	contract := req.ContractText
	proj := &Project{
		ID:           uuid.NewString(),
		UserID:       userID,
		Name:         name,
		ContractText: &contract,
		ScopeStatus:  ScopeNone,
		CreatedAt:    time.Now().UTC(),
	}

	outcome := s.extractor.Extract(ctx, contract)
	switch outcome.Kind {
	case scope.OutcomeSuccess:
		summary := outcome.Value.Normalize()
		proj.ScopeSummary = &summary
		proj.ScopeStatus = ScopeExtracted
	case scope.OutcomeDegraded:
		summary := scope.EmptySummary()
		proj.ScopeSummary = &summary
		proj.ScopeStatus = ScopeDegraded
		proj.ScopeError = outcome.Reason
	default:
		proj.ScopeStatus = ScopeFailed
		proj.ScopeError = outcome.Reason
	}

	if err := s.repo.Create(ctx, userID, proj); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.logger.Info("project created", "project_id", proj.ID, "scope_status", proj.ScopeStatus)
	s.record(ctx, userID, &activity.ActivityEntry{
		ProjectID:    proj.ID,
		ActivityType: activity.TypeProjectCreated,
		Summary:      fmt.Sprintf("Created project %q", proj.Name),
	})
	s.record(ctx, userID, scopeEntry(proj))

	return proj, nil
}

// Get fetches a project by ID.
func (s *Service) Get(ctx context.Context, userID, id string) (*Project, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: project id is required", ErrInvalidInput)
	}
	proj, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

// List returns project summaries, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]ProjectSummary, error) {
	projects, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

func (s *Service) record(ctx context.Context, userID string, entry *activity.ActivityEntry) {
	if s.activity != nil {
		s.activity.Record(ctx, userID, entry)
	}
}

func scopeEntry(proj *Project) *activity.ActivityEntry {
	entry := &activity.ActivityEntry{ProjectID: proj.ID}
	switch proj.ScopeStatus {
	case ScopeExtracted:
		entry.ActivityType = activity.TypeScopeExtracted
		entry.Summary = "Extracted contract scope"
		entry.Details = activity.Details(map[string]int{
			"deliverables": len(proj.ScopeSummary.Deliverables),
			"exclusions":   len(proj.ScopeSummary.Exclusions),
			"constraints":  len(proj.ScopeSummary.Constraints),
		})
	case ScopeDegraded:
		entry.ActivityType = activity.TypeScopeDegraded
		entry.Summary = "Scope extraction returned an unusable answer; using an empty scope"
		entry.Details = activity.Details(map[string]string{"reason": proj.ScopeError})
	default:
		entry.ActivityType = activity.TypeScopeFailed
		entry.Summary = "Scope extraction failed; meetings will not be analyzed"
		entry.Details = activity.Details(map[string]string{"reason": proj.ScopeError})
	}
	return entry
}
