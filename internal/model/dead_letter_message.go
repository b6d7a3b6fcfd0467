package model

import "time"

const (
	DeadLetterUnprocessed = "unprocessed"
	DeadLetterResolved    = "resolved"
)

// DeadLetterMessage is a Pub/Sub message that exhausted its delivery attempts.
type DeadLetterMessage struct {
	ID               string    `db:"id" json:"id"`
	SubscriptionName string    `db:"subscription_name" json:"subscription_name"`
	MessageID        string    `db:"message_id" json:"message_id"`
	Payload          string    `db:"payload" json:"payload"`
	Attributes       *string   `db:"attributes" json:"attributes,omitempty"` // JSON object
	Status           string    `db:"status" json:"status"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
