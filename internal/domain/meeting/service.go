package meeting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/scopeguard/internal/domain/activity"
	"github.com/rpggio/scopeguard/internal/domain/alert"
	"github.com/rpggio/scopeguard/internal/domain/project"
	"github.com/rpggio/scopeguard/internal/domain/scope"
	"github.com/rpggio/scopeguard/internal/repository"
)

const skippedNote = "project has no scope summary"

// Service handles meeting ingestion and analysis.
type Service struct {
	repo        Repository
	projects    ProjectReader
	detector    Detector
	transcriber Transcriber
	activity    ActivityRecorder
	logger      *slog.Logger
	now         func() time.Time
}

// NewService creates a new meeting service. activity and logger may be nil.
func NewService(repo Repository, projects ProjectReader, detector Detector, transcriber Transcriber, activity ActivityRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		repo:        repo,
		projects:    projects,
		detector:    detector,
		transcriber: transcriber,
		activity:    activity,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Ingest resolves the transcript, stores the meeting and, when the project
// has a scope summary, runs deviation detection before returning.
//
// Writes happen in order: meeting, alerts, analyzed_at. A detection failure
// leaves the meeting in StateAnalysisFailed and is not an ingestion error.
func (s *Service) Ingest(ctx context.Context, userID string, req IngestRequest) (*IngestResult, error) {
	projectID := strings.TrimSpace(req.ProjectID)
	if projectID == "" {
		return nil, fmt.Errorf("%w: project_id is required", ErrInvalidInput)
	}
	hasTranscript := strings.TrimSpace(req.Transcript) != ""
	hasAudio := req.Audio != nil && len(req.Audio.Data) > 0
	if !hasTranscript && !hasAudio {
		return nil, fmt.Errorf("%w: transcript or audio is required", ErrInvalidInput)
	}

	proj, err := s.loadProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	transcript := req.Transcript
	var audioURL *string
	if !hasTranscript {
		text, err := s.transcriber.Transcribe(ctx, req.Audio.Data, req.Audio.Filename)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTranscriptionFailed, err)
		}
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("%w: audio produced an empty transcript", ErrInvalidInput)
		}
		transcript = text
		if name := strings.TrimSpace(req.Audio.Filename); name != "" {
			audioURL = &name
		}
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = DefaultTitle
	}

	m := &Meeting{
		ID:            uuid.NewString(),
		ProjectID:     proj.ID,
		Title:         title,
		Transcript:    &transcript,
		AudioURL:      audioURL,
		AnalysisState: StateAnalyzing,
		CreatedAt:     s.now(),
	}
	if !proj.HasScope() {
		m.AnalysisState = StateSkipped
		m.AnalysisNote = skippedNote
	}

	if err := s.repo.Create(ctx, userID, m); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, project.ErrProjectNotFound
		}
		return nil, fmt.Errorf("creating meeting: %w", err)
	}

	meetingID := m.ID
	s.record(ctx, userID, &activity.ActivityEntry{
		ProjectID:    proj.ID,
		MeetingID:    &meetingID,
		ActivityType: activity.TypeMeetingIngested,
		Summary:      fmt.Sprintf("Ingested meeting %q", m.Title),
		Details:      activity.Details(map[string]any{"transcribed": !hasTranscript, "characters": len(transcript)}),
	})

	if m.AnalysisState == StateSkipped {
		s.record(ctx, userID, &activity.ActivityEntry{
			ProjectID:    proj.ID,
			MeetingID:    &meetingID,
			ActivityType: activity.TypeAnalysisSkipped,
			Summary:      "Skipped analysis: " + skippedNote,
		})
		return &IngestResult{Meeting: m, Alerts: []alert.Alert{}}, nil
	}

	return s.analyze(ctx, userID, proj, m)
}

// Reanalyze runs detection again with a new analysis run. Alerts from earlier
// runs stay stored but drop out of listings once the new run completes.
func (s *Service) Reanalyze(ctx context.Context, userID, meetingID string) (*IngestResult, error) {
	m, err := s.Get(ctx, userID, meetingID)
	if err != nil {
		return nil, err
	}
	proj, err := s.loadProject(ctx, userID, m.ProjectID)
	if err != nil {
		return nil, err
	}
	if !proj.HasScope() {
		return nil, ErrNoScope
	}
	if m.Transcript == nil || strings.TrimSpace(*m.Transcript) == "" {
		return nil, fmt.Errorf("%w: meeting has no transcript", ErrInvalidInput)
	}

	m.AnalysisState = StateAnalyzing
	m.AnalysisNote = ""
	if err := s.repo.UpdateAnalysis(ctx, userID, m); err != nil {
		return nil, s.mapMeetingErr(err, "marking meeting analyzing")
	}
	return s.analyze(ctx, userID, proj, m)
}

// Get fetches a meeting by ID.
func (s *Service) Get(ctx context.Context, userID, id string) (*Meeting, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: meeting id is required", ErrInvalidInput)
	}
	m, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, s.mapMeetingErr(err, "getting meeting")
	}
	return m, nil
}

// List returns a project's meetings, newest first.
func (s *Service) List(ctx context.Context, userID, projectID string) ([]Meeting, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, fmt.Errorf("%w: project_id is required", ErrInvalidInput)
	}
	if _, err := s.loadProject(ctx, userID, projectID); err != nil {
		return nil, err
	}
	meetings, err := s.repo.List(ctx, userID, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing meetings: %w", err)
	}
	return meetings, nil
}

func (s *Service) analyze(ctx context.Context, userID string, proj *project.Project, m *Meeting) (*IngestResult, error) {
	meetingID := m.ID
	outcome := s.detector.Detect(ctx, *m.Transcript, *proj.ScopeSummary)

	if !outcome.OK() {
		m.AnalysisState = StateAnalysisFailed
		m.AnalysisNote = outcome.Reason
		m.AnalyzedAt = nil
		if err := s.repo.UpdateAnalysis(ctx, userID, m); err != nil {
			return nil, s.mapMeetingErr(err, "recording analysis failure")
		}
		s.logger.Warn("meeting analysis failed", "meeting_id", m.ID, "reason", outcome.Reason)
		s.record(ctx, userID, &activity.ActivityEntry{
			ProjectID:    proj.ID,
			MeetingID:    &meetingID,
			ActivityType: activity.TypeAnalysisFailed,
			Summary:      "Deviation detection failed",
			Details:      activity.Details(map[string]string{"reason": outcome.Reason}),
		})
		return &IngestResult{Meeting: m, Alerts: []alert.Alert{}, Outcome: outcome.Kind}, nil
	}

	now := s.now()
	alerts := make([]alert.Alert, 0, len(outcome.Value))
	for _, finding := range outcome.Value {
		alerts = append(alerts, alert.Alert{
			ID:                uuid.NewString(),
			MeetingID:         m.ID,
			RequestText:       finding.RequestText,
			Reason:            finding.Reason,
			ContractReference: finding.ContractReference,
			Status:            alert.StatusNew,
			CreatedAt:         now,
		})
	}

	m.AnalysisState = StateAnalyzed
	m.AnalysisNote = outcome.Reason
	m.AnalyzedAt = &now
	if err := s.repo.CompleteAnalysis(ctx, userID, m, alerts); err != nil {
		return nil, s.mapMeetingErr(err, "storing analysis")
	}
	run := m.AnalysisRun

	entry := &activity.ActivityEntry{
		ProjectID:    proj.ID,
		MeetingID:    &meetingID,
		ActivityType: activity.TypeMeetingAnalyzed,
		Summary:      fmt.Sprintf("Found %d out-of-scope requests", len(alerts)),
		Details:      activity.Details(map[string]int{"alerts": len(alerts), "analysis_run": run}),
	}
	if outcome.Kind == scope.OutcomeDegraded {
		entry.ActivityType = activity.TypeAnalysisDegraded
		entry.Summary = fmt.Sprintf("Detection answer was partly unusable; kept %d requests", len(alerts))
		entry.Details = activity.Details(map[string]any{"alerts": len(alerts), "analysis_run": run, "reason": outcome.Reason})
	}
	s.record(ctx, userID, entry)
	s.logger.Info("meeting analyzed", "meeting_id", m.ID, "alerts", len(alerts), "run", run, "outcome", outcome.Kind)

	return &IngestResult{Meeting: m, Alerts: alerts, Outcome: outcome.Kind}, nil
}

func (s *Service) loadProject(ctx context.Context, userID, projectID string) (*project.Project, error) {
	proj, err := s.projects.Get(ctx, userID, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, project.ErrProjectNotFound) {
			return nil, project.ErrProjectNotFound
		}
		return nil, fmt.Errorf("loading project: %w", err)
	}
	return proj, nil
}

func (s *Service) mapMeetingErr(err error, action string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrMeetingNotFound
	}
	return fmt.Errorf("%s: %w", action, err)
}

func (s *Service) record(ctx context.Context, userID string, entry *activity.ActivityEntry) {
	if s.activity != nil {
		s.activity.Record(ctx, userID, entry)
	}
}
