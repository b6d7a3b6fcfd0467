package repository

import (
	"context"
	"database/sql"
	"errors"

	"stepable/internal/model"
)

type ProgressRepository interface {
	Get(ctx context.Context, userID, lessonID string) (*model.UserProgress, error)
	// Upsert writes p and reports the status the row had before, or
	// model.ProgressNotStarted when there was no row.
	Upsert(ctx context.Context, p *model.UserProgress) (string, error)
	ListByUser(ctx context.Context, userID string) ([]model.UserProgress, error)
	RecentCompletions(ctx context.Context, userID string, limit int) ([]model.UserProgress, error)
	// CountCompletedModules counts modules with at least one lesson where
	// every lesson is completed by the user.
	CountCompletedModules(ctx context.Context, userID string) (int, error)
}

type progressRepo struct {
	db *sql.DB
}

func NewProgressRepo(db *sql.DB) ProgressRepository {
	return &progressRepo{db: db}
}

const progressColumns = `up.id, up.user_id, up.lesson_id, up.status, up.score, up.completed_at, up.created_at, up.updated_at,
		COALESCE(l.title, ''), COALESCE(l.xp, 0)`

func scanProgress(scanner interface{ Scan(...any) error }, p *model.UserProgress) error {
	var score sql.NullInt64
	var completedAt sql.NullTime
	if err := scanner.Scan(&p.ID, &p.UserID, &p.LessonID, &p.Status, &score, &completedAt, &p.CreatedAt, &p.UpdatedAt,
		&p.LessonTitle, &p.XP); err != nil {
		return err
	}
	if score.Valid {
		s := int(score.Int64)
		p.Score = &s
	}
	if completedAt.Valid {
		t := completedAt.Time
		p.CompletedAt = &t
	}
	return nil
}

func (r *progressRepo) Get(ctx context.Context, userID, lessonID string) (*model.UserProgress, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM user_progress up
		LEFT JOIN lessons l ON l.id = up.lesson_id
		WHERE up.user_id = $1 AND up.lesson_id = $2
	`
	var p model.UserProgress
	if err := scanProgress(r.db.QueryRowContext(ctx, query, userID, lessonID), &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *progressRepo) Upsert(ctx context.Context, p *model.UserProgress) (string, error) {
	// The CTE reads the previous status in the same statement as the write.
	query := `
		WITH prev AS (
			SELECT status FROM user_progress WHERE user_id = $1 AND lesson_id = $2
		)
		INSERT INTO user_progress (user_id, lesson_id, status, score, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, lesson_id) DO UPDATE
		SET status = EXCLUDED.status,
		    score = COALESCE(EXCLUDED.score, user_progress.score),
		    completed_at = COALESCE(user_progress.completed_at, EXCLUDED.completed_at),
		    updated_at = NOW()
		RETURNING id, completed_at, created_at, updated_at, COALESCE((SELECT status FROM prev), 'not_started')
	`
	var score any
	if p.Score != nil {
		score = *p.Score
	}
	var completedAt sql.NullTime
	var prev string
	err := r.db.QueryRowContext(ctx, query, p.UserID, p.LessonID, p.Status, score, p.CompletedAt).
		Scan(&p.ID, &completedAt, &p.CreatedAt, &p.UpdatedAt, &prev)
	if err != nil {
		return "", err
	}
	if completedAt.Valid {
		t := completedAt.Time
		p.CompletedAt = &t
	}
	return prev, nil
}

func (r *progressRepo) ListByUser(ctx context.Context, userID string) ([]model.UserProgress, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM user_progress up
		LEFT JOIN lessons l ON l.id = up.lesson_id
		WHERE up.user_id = $1
		ORDER BY up.updated_at DESC
	`
	return r.list(ctx, query, userID)
}

func (r *progressRepo) RecentCompletions(ctx context.Context, userID string, limit int) ([]model.UserProgress, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM user_progress up
		LEFT JOIN lessons l ON l.id = up.lesson_id
		WHERE up.user_id = $1 AND up.status = 'completed'
		ORDER BY up.completed_at DESC
		LIMIT $2
	`
	return r.list(ctx, query, userID, limit)
}

func (r *progressRepo) list(ctx context.Context, query string, args ...any) ([]model.UserProgress, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.UserProgress{}
	for rows.Next() {
		var p model.UserProgress
		if err := scanProgress(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *progressRepo) CountCompletedModules(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM (
			SELECT l.module_id
			FROM lessons l
			LEFT JOIN user_progress up ON up.lesson_id = l.id AND up.user_id = $1 AND up.status = 'completed'
			GROUP BY l.module_id
			HAVING COUNT(up.id) = COUNT(l.id)
		) done
	`
	var n int
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&n)
	return n, err
}
