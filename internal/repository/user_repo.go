package repository

import (
	"context"
	"database/sql"
	"errors"

	"stepable/internal/model"
)

type UserRepository interface {
	UpsertUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

type userRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) UpsertUser(ctx context.Context, u *model.User) error {
	query := `INSERT INTO users (id, email, name, avatar_url, language, company, role)
              VALUES ($1, $2, $3, $4, $5, $6, $7)
              ON CONFLICT (id) DO UPDATE
              SET email = EXCLUDED.email, name = EXCLUDED.name, avatar_url = EXCLUDED.avatar_url,
                  language = EXCLUDED.language, company = EXCLUDED.company, role = EXCLUDED.role,
                  updated_at = NOW()
              RETURNING created_at, updated_at`
	return r.db.QueryRowContext(ctx, query, u.UserID, u.Email, u.Name, u.AvatarURL, u.Language, u.Company, u.Role).
		Scan(&u.CreatedAt, &u.UpdatedAt)
}

func (r *userRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	query := `SELECT id, email, name, COALESCE(avatar_url, ''), language, COALESCE(company, ''), COALESCE(role, ''),
                     created_at, updated_at
              FROM users WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)
	if err := row.Scan(&u.UserID, &u.Email, &u.Name, &u.AvatarURL, &u.Language, &u.Company, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
