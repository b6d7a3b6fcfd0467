package repository

import (
	"context"
	"database/sql"
	"errors"

	"stepable/internal/model"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
)

type DocumentRepository interface {
	Create(ctx context.Context, d *model.Document) error
	GetByID(ctx context.Context, documentID string) (*model.Document, error)
	ListByProject(ctx context.Context, projectID string) ([]model.Document, error)
	IncrementViews(ctx context.Context, documentID string) (int, error)
	UpdateStoragePath(ctx context.Context, documentID, storagePath string) error
	Delete(ctx context.Context, documentID string) error
}

type documentRepo struct {
	db     *sql.DB
	types  *pgtype.Map
	logger zerolog.Logger
}

func NewDocumentRepo(db *sql.DB, logger zerolog.Logger) DocumentRepository {
	return &documentRepo{
		db:     db,
		types:  pgtype.NewMap(),
		logger: logger.With().Str("repository", "DocumentRepository").Logger(),
	}
}

const documentColumns = `id, project_id, title, COALESCE(description, ''), COALESCE(file_type, ''), kind, category,
		tags, COALESCE(content, ''), COALESCE(file_url, ''), COALESCE(storage_path, ''), views, rating, featured,
		created_by, created_at, updated_at`

func (r *documentRepo) scan(scanner interface{ Scan(...any) error }, d *model.Document) error {
	if err := scanner.Scan(&d.ID, &d.ProjectID, &d.Title, &d.Description, &d.FileType, &d.Kind, &d.Category,
		r.types.SQLScanner(&d.Tags), &d.Content, &d.FileURL, &d.StoragePath, &d.Views, &d.Rating, &d.Featured,
		&d.CreatedBy, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return err
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return nil
}

func (r *documentRepo) Create(ctx context.Context, d *model.Document) error {
	if d.Tags == nil {
		d.Tags = []string{}
	}
	query := `
		INSERT INTO documents (project_id, title, description, file_type, kind, category, tags, content, file_url, featured, created_by)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), $10, $11)
		RETURNING id, views, rating, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query, d.ProjectID, d.Title, d.Description, d.FileType, d.Kind, d.Category,
		d.Tags, d.Content, d.FileURL, d.Featured, d.CreatedBy).
		Scan(&d.ID, &d.Views, &d.Rating, &d.CreatedAt, &d.UpdatedAt)
}

func (r *documentRepo) GetByID(ctx context.Context, documentID string) (*model.Document, error) {
	var d model.Document
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	if err := r.scan(r.db.QueryRowContext(ctx, query, documentID), &d); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *documentRepo) ListByProject(ctx context.Context, projectID string) ([]model.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE project_id = $1 ORDER BY updated_at DESC`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []model.Document{}
	for rows.Next() {
		var d model.Document
		if err := r.scan(rows, &d); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *documentRepo) IncrementViews(ctx context.Context, documentID string) (int, error) {
	var views int
	err := r.db.QueryRowContext(ctx,
		`UPDATE documents SET views = views + 1 WHERE id = $1 RETURNING views`, documentID).Scan(&views)
	return views, err
}

func (r *documentRepo) UpdateStoragePath(ctx context.Context, documentID, storagePath string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE documents SET storage_path = $1, updated_at = NOW() WHERE id = $2`, storagePath, documentID)
	return err
}

func (r *documentRepo) Delete(ctx context.Context, documentID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, documentID)
	return err
}
