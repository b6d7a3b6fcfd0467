package model

import (
	"encoding/json"
	"time"
)

// Integration connects a project to an external tool. Credentials never live
// in the row, only the name of the secret holding them.
type Integration struct {
	ID         string          `db:"id" json:"id"`
	ProjectID  string          `db:"project_id" json:"project_id"`
	Type       string          `db:"type" json:"type"`
	Config     json.RawMessage `db:"config" json:"config,omitempty"`
	SecretName string          `db:"secret_name" json:"-"`
	IsActive   bool            `db:"is_active" json:"is_active"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}
