package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"stepable/internal/model"
)

type IntegrationRepository interface {
	ListByProject(ctx context.Context, projectID string) ([]model.Integration, error)
	Get(ctx context.Context, projectID, integrationType string) (*model.Integration, error)
	Upsert(ctx context.Context, i *model.Integration) error
	SetActive(ctx context.Context, projectID, integrationType string, active bool) error
	Delete(ctx context.Context, projectID, integrationType string) error
}

type integrationRepo struct {
	db *sql.DB
}

func NewIntegrationRepo(db *sql.DB) IntegrationRepository {
	return &integrationRepo{db: db}
}

const integrationColumns = `id, project_id, type, COALESCE(config::text, ''), COALESCE(secret_name, ''), is_active, created_at, updated_at`

func scanIntegration(scanner interface{ Scan(...any) error }, i *model.Integration) error {
	var cfg string
	if err := scanner.Scan(&i.ID, &i.ProjectID, &i.Type, &cfg, &i.SecretName, &i.IsActive, &i.CreatedAt, &i.UpdatedAt); err != nil {
		return err
	}
	if cfg != "" {
		i.Config = json.RawMessage(cfg)
	}
	return nil
}

func (r *integrationRepo) ListByProject(ctx context.Context, projectID string) ([]model.Integration, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+integrationColumns+` FROM integrations WHERE project_id = $1 ORDER BY type ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Integration{}
	for rows.Next() {
		var i model.Integration
		if err := scanIntegration(rows, &i); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (r *integrationRepo) Get(ctx context.Context, projectID, integrationType string) (*model.Integration, error) {
	var i model.Integration
	err := scanIntegration(r.db.QueryRowContext(ctx,
		`SELECT `+integrationColumns+` FROM integrations WHERE project_id = $1 AND type = $2`,
		projectID, integrationType), &i)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &i, nil
}

func (r *integrationRepo) Upsert(ctx context.Context, i *model.Integration) error {
	var cfg any
	if len(i.Config) > 0 {
		cfg = string(i.Config)
	}
	query := `
		INSERT INTO integrations (project_id, type, config, secret_name, is_active)
		VALUES ($1, $2, $3::jsonb, NULLIF($4, ''), $5)
		ON CONFLICT (project_id, type) DO UPDATE
		SET config = EXCLUDED.config, secret_name = EXCLUDED.secret_name, is_active = EXCLUDED.is_active, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query, i.ProjectID, i.Type, cfg, i.SecretName, i.IsActive).
		Scan(&i.ID, &i.CreatedAt, &i.UpdatedAt)
}

func (r *integrationRepo) SetActive(ctx context.Context, projectID, integrationType string, active bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE integrations SET is_active = $1, updated_at = NOW() WHERE project_id = $2 AND type = $3`,
		active, projectID, integrationType)
	return err
}

func (r *integrationRepo) Delete(ctx context.Context, projectID, integrationType string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM integrations WHERE project_id = $1 AND type = $2`, projectID, integrationType)
	return err
}
