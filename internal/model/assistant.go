package model

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type CodeBlock struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// AssistantMessage is one turn of a user's conversation with the assistant.
type AssistantMessage struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"user_id"`
	Role        string     `db:"role" json:"role"`
	Content     string     `db:"content" json:"content"`
	Suggestions []string   `db:"suggestions" json:"suggestions,omitempty"`
	CodeBlock   *CodeBlock `db:"code_block" json:"code_block,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}
