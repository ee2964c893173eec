package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rpggio/scopeguard/internal/domain/alert"
	"github.com/rpggio/scopeguard/internal/repository"
)

// AlertRepository implements alert.Repository for SQLite
type AlertRepository struct {
	db *DB
}

// NewAlertRepository creates a new AlertRepository
func NewAlertRepository(db *DB) *AlertRepository {
	return &AlertRepository{db: db}
}

const alertViewSelect = `
	SELECT
		a.id, a.meeting_id, a.request_text, a.reason, a.contract_reference,
		a.status, a.analysis_run, a.created_at,
		m.title, m.created_at, p.id, p.name
	FROM scope_alerts a
	JOIN meetings m ON m.id = a.meeting_id
	JOIN projects p ON p.id = m.project_id
`

// Get retrieves an alert by ID regardless of analysis run.
func (r *AlertRepository) Get(ctx context.Context, userID, id string) (*alert.View, error) {
	query := alertViewSelect + ` WHERE a.id = ? AND p.user_id = ?`

	view, err := scanAlertView(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return view, nil
}

// List returns alerts from each meeting's current analysis run, newest
// first. Alerts from one run keep the order the model reported them in.
func (r *AlertRepository) List(ctx context.Context, userID string, opts alert.ListOptions) ([]alert.View, error) {
	conditions := []string{"p.user_id = ?", "a.analysis_run = m.analysis_run"}
	args := []any{userID}

	if opts.ProjectID != "" {
		conditions = append(conditions, "p.id = ?")
		args = append(args, opts.ProjectID)
	}
	if opts.MeetingID != "" {
		conditions = append(conditions, "m.id = ?")
		args = append(args, opts.MeetingID)
	}
	if opts.Status != "" {
		conditions = append(conditions, "a.status = ?")
		args = append(args, opts.Status)
	}

	query := alertViewSelect + " WHERE " + strings.Join(conditions, " AND ") +
		" ORDER BY a.created_at DESC, a.rowid ASC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	views := []alert.View{}
	for rows.Next() {
		view, err := scanAlertView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		views = append(views, *view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alert rows: %w", err)
	}
	return views, nil
}

// UpdateStatus overwrites the status when userID owns the alert through
// meeting and project. Reapplying the current status still matches the row.
func (r *AlertRepository) UpdateStatus(ctx context.Context, userID, id string, status alert.Status) error {
	query := `
		UPDATE scope_alerts
		SET status = ?
		WHERE id = ? AND meeting_id IN (
			SELECT m.id
			FROM meetings m
			JOIN projects p ON p.id = m.project_id
			WHERE p.user_id = ?
		)
	`

	result, err := r.db.ExecContext(ctx, query, status, id, userID)
	if err != nil {
		return mapConstraintErr(err, "failed to update alert status")
	}
	return requireAffected(result)
}

func scanAlertView(row rowScanner) (*alert.View, error) {
	var view alert.View
	var contractRef, meetingTitle sql.NullString
	if err := row.Scan(
		&view.ID,
		&view.MeetingID,
		&view.RequestText,
		&view.Reason,
		&contractRef,
		&view.Status,
		&view.AnalysisRun,
		&view.CreatedAt,
		&meetingTitle,
		&view.Meeting.CreatedAt,
		&view.Meeting.Project.ID,
		&view.Meeting.Project.Name,
	); err != nil {
		return nil, err
	}
	if contractRef.Valid {
		view.ContractReference = &contractRef.String
	}
	view.Meeting.ID = view.MeetingID
	view.Meeting.Title = meetingTitle.String
	return &view, nil
}
