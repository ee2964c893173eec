package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/scopeguard/internal/domain/alert"
	"github.com/rpggio/scopeguard/internal/domain/meeting"
	"github.com/rpggio/scopeguard/internal/repository"
)

// MeetingRepository implements meeting.Repository for SQLite. Meetings have
// no owner column; every statement filters through projects.user_id.
type MeetingRepository struct {
	db *DB
}

// NewMeetingRepository creates a new MeetingRepository
func NewMeetingRepository(db *DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// Create inserts the meeting only if userID owns its project.
func (r *MeetingRepository) Create(ctx context.Context, userID string, m *meeting.Meeting) error {
	query := `
		INSERT INTO meetings (
			id, project_id, title, transcript, audio_url,
			analysis_state, analysis_run, analysis_note, analyzed_at, created_at
		)
		SELECT ?, p.id, ?, ?, ?, ?, ?, ?, ?, ?
		FROM projects p
		WHERE p.id = ? AND p.user_id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.Title,
		m.Transcript,
		m.AudioURL,
		m.AnalysisState,
		m.AnalysisRun,
		m.AnalysisNote,
		m.AnalyzedAt,
		m.CreatedAt,
		m.ProjectID,
		userID,
	)
	if err != nil {
		return mapConstraintErr(err, "failed to create meeting")
	}
	return requireAffected(result)
}

const meetingColumns = `
	m.id, m.project_id, m.title, m.transcript, m.audio_url,
	m.analysis_state, m.analysis_run, m.analysis_note, m.analyzed_at, m.created_at
`

// Get retrieves a meeting by ID
func (r *MeetingRepository) Get(ctx context.Context, userID, id string) (*meeting.Meeting, error) {
	query := `
		SELECT ` + meetingColumns + `
		FROM meetings m
		JOIN projects p ON p.id = m.project_id
		WHERE m.id = ? AND p.user_id = ?
	`

	m, err := scanMeeting(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	return m, nil
}

// List returns a project's meetings, newest first.
func (r *MeetingRepository) List(ctx context.Context, userID, projectID string) ([]meeting.Meeting, error) {
	query := `
		SELECT ` + meetingColumns + `
		FROM meetings m
		JOIN projects p ON p.id = m.project_id
		WHERE m.project_id = ? AND p.user_id = ?
		ORDER BY m.created_at DESC, m.rowid DESC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	defer rows.Close()

	meetings := []meeting.Meeting{}
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meeting: %w", err)
		}
		meetings = append(meetings, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating meeting rows: %w", err)
	}
	return meetings, nil
}

// UpdateAnalysis stores the analysis state, note and analyzed_at of m. The
// run counter is left alone; only CompleteAnalysis advances it.
func (r *MeetingRepository) UpdateAnalysis(ctx context.Context, userID string, m *meeting.Meeting) error {
	result, err := r.db.ExecContext(ctx, updateAnalysisQuery,
		m.AnalysisState, m.AnalysisNote, m.AnalyzedAt,
		m.ID, userID,
	)
	if err != nil {
		return mapConstraintErr(err, "failed to update meeting analysis")
	}
	return requireAffected(result)
}

// CompleteAnalysis bumps the meeting's analysis run, inserts alerts tagged
// with it and then updates the analysis fields in one transaction, so
// analyzed_at never precedes its alerts and concurrent analyses of the same
// meeting get distinct runs.
func (r *MeetingRepository) CompleteAnalysis(ctx context.Context, userID string, m *meeting.Meeting, alerts []alert.Alert) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var run int
	err = tx.QueryRowContext(ctx, `
		UPDATE meetings
		SET analysis_run = analysis_run + 1
		WHERE id = ? AND project_id IN (SELECT id FROM projects WHERE user_id = ?)
		RETURNING analysis_run
	`, m.ID, userID).Scan(&run)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to allocate analysis run: %w", err)
	}
	m.AnalysisRun = run
	for i := range alerts {
		alerts[i].AnalysisRun = run
	}

	if len(alerts) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO scope_alerts (
				id, meeting_id, request_text, reason, contract_reference,
				status, analysis_run, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare alert insert: %w", err)
		}
		defer stmt.Close()

		for _, a := range alerts {
			if a.MeetingID != m.ID {
				return fmt.Errorf("alert %s belongs to meeting %s, not %s: %w", a.ID, a.MeetingID, m.ID, repository.ErrInvalidInput)
			}
			if _, err := stmt.ExecContext(ctx,
				a.ID, a.MeetingID, a.RequestText, a.Reason, a.ContractReference,
				a.Status, a.AnalysisRun, a.CreatedAt,
			); err != nil {
				return mapConstraintErr(err, "failed to insert alert")
			}
		}
	}

	if _, err := tx.ExecContext(ctx, updateAnalysisQuery,
		m.AnalysisState, m.AnalysisNote, m.AnalyzedAt,
		m.ID, userID,
	); err != nil {
		return mapConstraintErr(err, "failed to update meeting analysis")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const updateAnalysisQuery = `
	UPDATE meetings
	SET analysis_state = ?, analysis_note = ?, analyzed_at = ?
	WHERE id = ? AND project_id IN (SELECT id FROM projects WHERE user_id = ?)
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeeting(row rowScanner) (*meeting.Meeting, error) {
	var m meeting.Meeting
	var title, transcript, audioURL sql.NullString
	var analyzedAt sql.NullTime
	if err := row.Scan(
		&m.ID,
		&m.ProjectID,
		&title,
		&transcript,
		&audioURL,
		&m.AnalysisState,
		&m.AnalysisRun,
		&m.AnalysisNote,
		&analyzedAt,
		&m.CreatedAt,
	); err != nil {
		return nil, err
	}
	m.Title = title.String
	if transcript.Valid {
		m.Transcript = &transcript.String
	}
	if audioURL.Valid {
		m.AudioURL = &audioURL.String
	}
	if analyzedAt.Valid {
		m.AnalyzedAt = &analyzedAt.Time
	}
	return &m, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
