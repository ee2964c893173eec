package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rpggio/scopeguard/internal/domain/project"
	"github.com/rpggio/scopeguard/internal/domain/scope"
	"github.com/rpggio/scopeguard/internal/repository"
)

// ProjectRepository implements project.Repository for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, userID string, proj *project.Project) error {
	summary, err := encodeSummary(proj.ScopeSummary)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO projects (id, user_id, name, contract_text, scope_summary, scope_status, scope_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		proj.ID,
		userID,
		proj.Name,
		proj.ContractText,
		summary,
		proj.ScopeStatus,
		proj.ScopeError,
		proj.CreatedAt,
	)
	if err != nil {
		return mapConstraintErr(err, "failed to create project")
	}

	proj.UserID = userID
	return nil
}

const projectColumns = `p.id, p.user_id, p.name, p.contract_text, p.scope_summary, p.scope_status, p.scope_error, p.created_at`

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, userID, id string) (*project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects p WHERE p.id = ? AND p.user_id = ?`

	proj, err := scanProject(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return proj, nil
}

// List returns all projects for a user, newest first, with meeting and
// open alert counts. Only alerts from each meeting's current run count.
func (r *ProjectRepository) List(ctx context.Context, userID string) ([]project.ProjectSummary, error) {
	query := `
		SELECT ` + projectColumns + `,
			(SELECT COUNT(*) FROM meetings m WHERE m.project_id = p.id) AS meeting_count,
			(SELECT COUNT(*)
				FROM scope_alerts a
				JOIN meetings m ON m.id = a.meeting_id
				WHERE m.project_id = p.id
					AND a.analysis_run = m.analysis_run
					AND a.status = 'new') AS new_alerts
		FROM projects p
		WHERE p.user_id = ?
		ORDER BY p.created_at DESC, p.rowid DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	summaries := []project.ProjectSummary{}
	for rows.Next() {
		var summary project.ProjectSummary
		var contract, scopeJSON sql.NullString
		err := rows.Scan(
			&summary.ID,
			&summary.UserID,
			&summary.Name,
			&contract,
			&scopeJSON,
			&summary.ScopeStatus,
			&summary.ScopeError,
			&summary.CreatedAt,
			&summary.MeetingCount,
			&summary.NewAlerts,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project summary: %w", err)
		}
		if err := fillProject(&summary.Project, contract, scopeJSON); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}

	return summaries, nil
}

func scanProject(row *sql.Row) (*project.Project, error) {
	var proj project.Project
	var contract, scopeJSON sql.NullString
	err := row.Scan(
		&proj.ID,
		&proj.UserID,
		&proj.Name,
		&contract,
		&scopeJSON,
		&proj.ScopeStatus,
		&proj.ScopeError,
		&proj.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := fillProject(&proj, contract, scopeJSON); err != nil {
		return nil, err
	}
	return &proj, nil
}

func fillProject(proj *project.Project, contract, scopeJSON sql.NullString) error {
	if contract.Valid {
		text := contract.String
		proj.ContractText = &text
	}
	if scopeJSON.Valid {
		var summary scope.Summary
		if err := json.Unmarshal([]byte(scopeJSON.String), &summary); err != nil {
			return fmt.Errorf("failed to decode scope summary for project %s: %w", proj.ID, err)
		}
		summary = summary.Normalize()
		proj.ScopeSummary = &summary
	}
	return nil
}

func encodeSummary(summary *scope.Summary) (*string, error) {
	if summary == nil {
		return nil, nil
	}
	data, err := json.Marshal(summary.Normalize())
	if err != nil {
		return nil, fmt.Errorf("failed to encode scope summary: %w", err)
	}
	text := string(data)
	return &text, nil
}
