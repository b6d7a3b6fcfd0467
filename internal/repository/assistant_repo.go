package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"stepable/internal/model"
)

type AssistantRepository interface {
	CreateMessage(ctx context.Context, m *model.AssistantMessage) error
	// ListMessages returns the newest limit messages in chronological order.
	ListMessages(ctx context.Context, userID string, limit int) ([]model.AssistantMessage, error)
}

type assistantRepo struct {
	db *sql.DB
}

func NewAssistantRepo(db *sql.DB) AssistantRepository {
	return &assistantRepo{db: db}
}

func (r *assistantRepo) CreateMessage(ctx context.Context, m *model.AssistantMessage) error {
	extras, err := json.Marshal(struct {
		Suggestions []string         `json:"suggestions,omitempty"`
		CodeBlock   *model.CodeBlock `json:"code_block,omitempty"`
	}{m.Suggestions, m.CodeBlock})
	if err != nil {
		return err
	}
	query := `
		INSERT INTO assistant_messages (id, user_id, role, content, extras)
		VALUES ($1, $2, $3, $4, $5::jsonb)
		RETURNING created_at
	`
	return r.db.QueryRowContext(ctx, query, m.ID, m.UserID, m.Role, m.Content, string(extras)).Scan(&m.CreatedAt)
}

func (r *assistantRepo) ListMessages(ctx context.Context, userID string, limit int) ([]model.AssistantMessage, error) {
	query := `
		SELECT id, user_id, role, content, COALESCE(extras::text, '{}'), created_at
		FROM (
			SELECT * FROM assistant_messages WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2
		) recent
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.AssistantMessage{}
	for rows.Next() {
		var m model.AssistantMessage
		var extras string
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &extras, &m.CreatedAt); err != nil {
			return nil, err
		}
		var e struct {
			Suggestions []string         `json:"suggestions"`
			CodeBlock   *model.CodeBlock `json:"code_block"`
		}
		if err := json.Unmarshal([]byte(extras), &e); err == nil {
			m.Suggestions = e.Suggestions
			m.CodeBlock = e.CodeBlock
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
