package model

import "time"

const (
	FileTypeMarkdown = "markdown"
	FileTypePDF      = "pdf"
	FileTypeTemplate = "template"
)

// Document is an entry of a project's library.
type Document struct {
	ID          string    `db:"id" json:"id"`
	ProjectID   string    `db:"project_id" json:"project_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description,omitempty"`
	FileType    string    `db:"file_type" json:"file_type,omitempty"`
	Kind        string    `db:"kind" json:"kind"`
	Category    string    `db:"category" json:"category"`
	Tags        []string  `db:"tags" json:"tags"`
	Content     string    `db:"content" json:"content,omitempty"`
	FileURL     string    `db:"file_url" json:"file_url,omitempty"`
	StoragePath string    `db:"storage_path" json:"-"`
	Views       int       `db:"views" json:"views"`
	Rating      float64   `db:"rating" json:"rating"`
	Featured    bool      `db:"featured" json:"featured"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
