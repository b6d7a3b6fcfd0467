package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"stepable/internal/model"

	"github.com/rs/zerolog"
)

// ProjectRepository covers projects and their memberships.
type ProjectRepository interface {
	ListByMember(ctx context.Context, userID string) ([]model.Project, error)
	ListNotMember(ctx context.Context, userID string) ([]model.Project, error)
	// CreateWithOwner inserts the project and the owner membership atomically.
	CreateWithOwner(ctx context.Context, p *model.Project) error
	GetByID(ctx context.Context, projectID string) (*model.Project, error)
	UpdateStatus(ctx context.Context, projectID, status string) error

	GetMember(ctx context.Context, projectID, userID string) (*model.ProjectMember, error)
	ListMembers(ctx context.Context, projectID string) ([]model.ProjectMember, error)
	AddMember(ctx context.Context, m *model.ProjectMember) error
	UpdateMemberRole(ctx context.Context, projectID, userID, role string) error
	RemoveMember(ctx context.Context, projectID, userID string) error
}

type projectRepo struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewProjectRepo(db *sql.DB, logger zerolog.Logger) ProjectRepository {
	return &projectRepo{db: db, logger: logger.With().Str("repository", "ProjectRepository").Logger()}
}

const projectColumns = `p.id, p.name, COALESCE(p.description, ''), COALESCE(p.github_repo, ''),
		COALESCE(p.project_type, ''), COALESCE(p.difficulty, ''), p.status, p.created_by, p.created_at, p.updated_at,
		(SELECT COUNT(*) FROM project_members pm2 WHERE pm2.project_id = p.id)`

func scanProject(scanner interface{ Scan(...any) error }, p *model.Project, extra ...any) error {
	dest := []any{
		&p.ID, &p.Name, &p.Description, &p.GithubRepo, &p.ProjectType, &p.Difficulty,
		&p.Status, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &p.MemberCount,
	}
	return scanner.Scan(append(dest, extra...)...)
}

func (r *projectRepo) ListByMember(ctx context.Context, userID string) ([]model.Project, error) {
	query := `
		SELECT ` + projectColumns + `, pm.role
		FROM projects p
		JOIN project_members pm ON pm.project_id = p.id
		WHERE pm.user_id = $1
		ORDER BY p.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		var p model.Project
		if err := scanProject(rows, &p, &p.MyRole); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *projectRepo) ListNotMember(ctx context.Context, userID string) ([]model.Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects p
		WHERE p.status = 'active'
		  AND NOT EXISTS (SELECT 1 FROM project_members pm WHERE pm.project_id = p.id AND pm.user_id = $1)
		ORDER BY p.name ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		var p model.Project
		if err := scanProject(rows, &p); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *projectRepo) CreateWithOwner(ctx context.Context, p *model.Project) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			r.logger.Error().Err(err).Msg("Failed to roll back project creation")
		}
	}()

	query := `
		INSERT INTO projects (name, description, github_repo, project_type, difficulty, status, created_by)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, $7)
		RETURNING id, created_at, updated_at
	`
	if err := tx.QueryRowContext(ctx, query, p.Name, p.Description, p.GithubRepo, p.ProjectType, p.Difficulty, p.Status, p.CreatedBy).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("insert project: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO project_members (project_id, user_id, role) VALUES ($1, $2, $3)`,
		p.ID, p.CreatedBy, model.MemberRoleOwner,
	); err != nil {
		return fmt.Errorf("insert owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	p.MemberCount = 1
	p.MyRole = model.MemberRoleOwner
	return nil
}

func (r *projectRepo) GetByID(ctx context.Context, projectID string) (*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects p WHERE p.id = $1`
	var p model.Project
	if err := scanProject(r.db.QueryRowContext(ctx, query, projectID), &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *projectRepo) UpdateStatus(ctx context.Context, projectID, status string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE projects SET status = $1, updated_at = NOW() WHERE id = $2`, status, projectID)
	return err
}

func (r *projectRepo) GetMember(ctx context.Context, projectID, userID string) (*model.ProjectMember, error) {
	query := `
		SELECT pm.id, pm.project_id, pm.user_id, pm.role, pm.joined_at, COALESCE(u.name, ''), COALESCE(u.email, '')
		FROM project_members pm
		LEFT JOIN users u ON u.id = pm.user_id
		WHERE pm.project_id = $1 AND pm.user_id = $2
	`
	var m model.ProjectMember
	err := r.db.QueryRowContext(ctx, query, projectID, userID).
		Scan(&m.ID, &m.ProjectID, &m.UserID, &m.Role, &m.JoinedAt, &m.Name, &m.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *projectRepo) ListMembers(ctx context.Context, projectID string) ([]model.ProjectMember, error) {
	query := `
		SELECT pm.id, pm.project_id, pm.user_id, pm.role, pm.joined_at, COALESCE(u.name, ''), COALESCE(u.email, '')
		FROM project_members pm
		LEFT JOIN users u ON u.id = pm.user_id
		WHERE pm.project_id = $1
		ORDER BY pm.joined_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []model.ProjectMember{}
	for rows.Next() {
		var m model.ProjectMember
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.UserID, &m.Role, &m.JoinedAt, &m.Name, &m.Email); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *projectRepo) AddMember(ctx context.Context, m *model.ProjectMember) error {
	query := `
		INSERT INTO project_members (project_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING id, joined_at
	`
	return r.db.QueryRowContext(ctx, query, m.ProjectID, m.UserID, m.Role).Scan(&m.ID, &m.JoinedAt)
}

func (r *projectRepo) UpdateMemberRole(ctx context.Context, projectID, userID, role string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE project_members SET role = $1 WHERE project_id = $2 AND user_id = $3`,
		role, projectID, userID)
	return err
}

func (r *projectRepo) RemoveMember(ctx context.Context, projectID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`,
		projectID, userID)
	return err
}
