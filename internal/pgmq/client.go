package pgmq

import (
	"context"
	"database/sql"
	"fmt"
)

// Queue is the subset of pgmq the services depend on.
type Queue interface {
	Send(ctx context.Context, queue string, payload []byte) error
}

// Client wraps a Postgres DB for pgmq queue operations.
type Client struct {
	db *sql.DB
}

// New returns a new PGMQ client backed by the given DB connection.
func New(db *sql.DB) *Client {
	return &Client{db: db}
}

type Message struct {
	ID      int64
	ReadCnt int
	Data    []byte
}

// Send pushes a JSON payload into the given queue.
func (c *Client) Send(ctx context.Context, queue string, payload []byte) error {
	query := "SELECT pgmq.send($1, $2::jsonb, 0)"
	if _, err := c.db.ExecContext(ctx, query, queue, string(payload)); err != nil {
		return fmt.Errorf("pgmq send failed: %w", err)
	}
	return nil
}

// ReadWithPoll reads up to maxMessages from the queue, blocking up to timeoutSec seconds.
// Messages stay invisible for visibilitySec seconds after being read.
func (c *Client) ReadWithPoll(ctx context.Context, queue string, visibilitySec, timeoutSec, maxMessages int) ([]*Message, error) {
	query := "SELECT msg_id, read_ct, message::text FROM pgmq.read_with_poll($1, $2, $3, $4)"
	rows, err := c.db.QueryContext(ctx, query, queue, visibilitySec, maxMessages, timeoutSec)
	if err != nil {
		return nil, fmt.Errorf("pgmq read_with_poll failed: %w", err)
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		var m Message
		var data string
		if err := rows.Scan(&m.ID, &m.ReadCnt, &data); err != nil {
			return nil, fmt.Errorf("pgmq read scan failed: %w", err)
		}
		m.Data = []byte(data)
		msgs = append(msgs, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgmq read rows error: %w", err)
	}
	return msgs, nil
}

// Delete removes messages by their IDs from the specified queue.
func (c *Client) Delete(ctx context.Context, queue string, msgIDs []int64) error {
	query := "SELECT pgmq.delete($1, $2::bigint[])"
	if _, err := c.db.ExecContext(ctx, query, queue, msgIDs); err != nil {
		return fmt.Errorf("pgmq delete failed: %w", err)
	}
	return nil
}
