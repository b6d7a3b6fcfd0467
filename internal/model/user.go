package model

import "time"

// User is the profile row kept next to the hosted auth user.
type User struct {
	UserID    string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	AvatarURL string    `db:"avatar_url" json:"avatar_url,omitempty"`
	Language  string    `db:"language" json:"language"`
	Company   string    `db:"company" json:"company,omitempty"`
	Role      string    `db:"role" json:"role,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
