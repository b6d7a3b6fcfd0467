package repository

import (
	"context"
	"database/sql"

	"stepable/internal/model"
)

type AchievementRepository interface {
	ListByUser(ctx context.Context, userID string) ([]model.Achievement, error)
	// Award reports whether the achievement was new for the user.
	Award(ctx context.Context, userID, code string) (bool, error)
}

type achievementRepo struct {
	db *sql.DB
}

func NewAchievementRepo(db *sql.DB) AchievementRepository {
	return &achievementRepo{db: db}
}

func (r *achievementRepo) ListByUser(ctx context.Context, userID string) ([]model.Achievement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, code, earned_at FROM user_achievements WHERE user_id = $1 ORDER BY earned_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Achievement{}
	for rows.Next() {
		var a model.Achievement
		if err := rows.Scan(&a.UserID, &a.Code, &a.EarnedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *achievementRepo) Award(ctx context.Context, userID, code string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO user_achievements (user_id, code) VALUES ($1, $2) ON CONFLICT (user_id, code) DO NOTHING`,
		userID, code)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
