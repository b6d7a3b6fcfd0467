package repository

import (
	"context"
	"database/sql"
	"errors"

	"stepable/internal/model"
)

type DLQRepository interface {
	Create(ctx context.Context, message *model.DeadLetterMessage) error
	ListByStatus(ctx context.Context, status string, limit int) ([]model.DeadLetterMessage, error)
}

type dlqRepository struct {
	db *sql.DB
}

func NewDLQRepository(db *sql.DB) DLQRepository {
	return &dlqRepository{db: db}
}

func (r *dlqRepository) Create(ctx context.Context, message *model.DeadLetterMessage) error {
	query := `
        INSERT INTO dead_letter_messages (subscription_name, message_id, payload, attributes, status)
        VALUES ($1, $2, $3, $4::jsonb, $5)
        ON CONFLICT (message_id) DO NOTHING
        RETURNING id, created_at, updated_at
    `
	err := r.db.QueryRowContext(
		ctx,
		query,
		message.SubscriptionName,
		message.MessageID,
		message.Payload,
		message.Attributes,
		message.Status,
	).Scan(&message.ID, &message.CreatedAt, &message.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// Redelivery of a message already stored.
		return nil
	}
	return err
}

func (r *dlqRepository) ListByStatus(ctx context.Context, status string, limit int) ([]model.DeadLetterMessage, error) {
	query := `
        SELECT id, subscription_name, message_id, payload, attributes::text, status, created_at, updated_at
        FROM dead_letter_messages
        WHERE status = $1
        ORDER BY created_at DESC
        LIMIT $2
    `
	rows, err := r.db.QueryContext(ctx, query, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.DeadLetterMessage{}
	for rows.Next() {
		var m model.DeadLetterMessage
		var attrs sql.NullString
		if err := rows.Scan(&m.ID, &m.SubscriptionName, &m.MessageID, &m.Payload, &attrs, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		if attrs.Valid {
			m.Attributes = &attrs.String
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
