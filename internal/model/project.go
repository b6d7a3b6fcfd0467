package model

import "time"

const (
	ProjectStatusActive    = "active"
	ProjectStatusCompleted = "completed"
	ProjectStatusArchived  = "archived"
)

// Project groups the onboarding modules and documents of one team.
type Project struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	GithubRepo  string    `db:"github_repo" json:"github_repo,omitempty"`
	ProjectType string    `db:"project_type" json:"project_type,omitempty"`
	Difficulty  string    `db:"difficulty" json:"difficulty,omitempty"`
	Status      string    `db:"status" json:"status"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	// Populated by list queries
	MemberCount int    `db:"member_count" json:"member_count"`
	MyRole      string `db:"my_role" json:"my_role,omitempty"`
}

const (
	MemberRoleOwner  = "owner"
	MemberRoleAdmin  = "admin"
	MemberRoleMember = "member"
)

type ProjectMember struct {
	ID        string    `db:"id" json:"id"`
	ProjectID string    `db:"project_id" json:"project_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Role      string    `db:"role" json:"role"`
	JoinedAt  time.Time `db:"joined_at" json:"joined_at"`

	// Joined from the profile table
	Name  string `db:"name" json:"name,omitempty"`
	Email string `db:"email" json:"email,omitempty"`
}

// CanManage reports whether the role may change the membership of a project.
func (m ProjectMember) CanManage() bool {
	return m.Role == MemberRoleOwner || m.Role == MemberRoleAdmin
}
