package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"stepable/internal/model"
)

// ModuleRepository reads the journey content: modules and their lessons.
type ModuleRepository interface {
	ListModulesByProject(ctx context.Context, projectID string) ([]model.Module, error)
	GetModuleByID(ctx context.Context, moduleID string) (*model.Module, error)
	CreateModule(ctx context.Context, m *model.Module) error
	ListLessonsByProject(ctx context.Context, projectID string) ([]model.Lesson, error)
	ListLessonsByModule(ctx context.Context, moduleID string) ([]model.Lesson, error)
	GetLessonByID(ctx context.Context, lessonID string) (*model.Lesson, error)
	CreateLesson(ctx context.Context, l *model.Lesson) error
}

type moduleRepo struct {
	db *sql.DB
}

func NewModuleRepo(db *sql.DB) ModuleRepository {
	return &moduleRepo{db: db}
}

const moduleColumns = `id, project_id, name, COALESCE(description, ''), order_index, status,
		COALESCE(estimated_time, ''), difficulty, created_at, updated_at`

func scanModule(scanner interface{ Scan(...any) error }, m *model.Module) error {
	return scanner.Scan(&m.ID, &m.ProjectID, &m.Name, &m.Description, &m.OrderIndex, &m.Status,
		&m.EstimatedTime, &m.Difficulty, &m.CreatedAt, &m.UpdatedAt)
}

func (r *moduleRepo) ListModulesByProject(ctx context.Context, projectID string) ([]model.Module, error) {
	query := `SELECT ` + moduleColumns + ` FROM modules WHERE project_id = $1 ORDER BY order_index ASC, created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	modules := []model.Module{}
	for rows.Next() {
		var m model.Module
		if err := scanModule(rows, &m); err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}

func (r *moduleRepo) GetModuleByID(ctx context.Context, moduleID string) (*model.Module, error) {
	var m model.Module
	query := `SELECT ` + moduleColumns + ` FROM modules WHERE id = $1`
	if err := scanModule(r.db.QueryRowContext(ctx, query, moduleID), &m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *moduleRepo) CreateModule(ctx context.Context, m *model.Module) error {
	query := `
		INSERT INTO modules (project_id, name, description, order_index, status, estimated_time, difficulty)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''), $7)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query, m.ProjectID, m.Name, m.Description, m.OrderIndex, m.Status, m.EstimatedTime, m.Difficulty).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

const lessonColumns = `l.id, l.module_id, l.title, COALESCE(l.description, ''), COALESCE(l.content, ''), l.type,
		l.order_index, COALESCE(l.duration, ''), l.status, l.xp, COALESCE(l.quiz_data::text, ''), l.created_at, l.updated_at`

func scanLesson(scanner interface{ Scan(...any) error }, l *model.Lesson) error {
	var quiz string
	if err := scanner.Scan(&l.ID, &l.ModuleID, &l.Title, &l.Description, &l.Content, &l.Type,
		&l.OrderIndex, &l.Duration, &l.Status, &l.XP, &quiz, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return err
	}
	if quiz != "" {
		l.QuizData = json.RawMessage(quiz)
	}
	return nil
}

func (r *moduleRepo) queryLessons(ctx context.Context, query string, args ...any) ([]model.Lesson, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lessons := []model.Lesson{}
	for rows.Next() {
		var l model.Lesson
		if err := scanLesson(rows, &l); err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

func (r *moduleRepo) ListLessonsByProject(ctx context.Context, projectID string) ([]model.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons l
		JOIN modules m ON m.id = l.module_id
		WHERE m.project_id = $1
		ORDER BY m.order_index ASC, l.order_index ASC
	`
	return r.queryLessons(ctx, query, projectID)
}

func (r *moduleRepo) ListLessonsByModule(ctx context.Context, moduleID string) ([]model.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons l WHERE l.module_id = $1 ORDER BY l.order_index ASC`
	return r.queryLessons(ctx, query, moduleID)
}

func (r *moduleRepo) GetLessonByID(ctx context.Context, lessonID string) (*model.Lesson, error) {
	var l model.Lesson
	query := `SELECT ` + lessonColumns + ` FROM lessons l WHERE l.id = $1`
	if err := scanLesson(r.db.QueryRowContext(ctx, query, lessonID), &l); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *moduleRepo) CreateLesson(ctx context.Context, l *model.Lesson) error {
	var quiz any
	if len(l.QuizData) > 0 {
		quiz = string(l.QuizData)
	}
	query := `
		INSERT INTO lessons (module_id, title, description, content, type, order_index, duration, status, xp, quiz_data)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, NULLIF($7, ''), $8, $9, $10::jsonb)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query, l.ModuleID, l.Title, l.Description, l.Content, l.Type,
		l.OrderIndex, l.Duration, l.Status, l.XP, quiz).
		Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}
