package dto

import "time"

// UserUpsertDTO is used for incoming profile writes
type UserUpsertDTO struct {
	Name      string `json:"name" validate:"required,max=120"`
	Email     string `json:"email" validate:"required,email"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
	Language  string `json:"language" validate:"omitempty,oneof=es en"`
	Company   string `json:"company" validate:"max=120"`
	Role      string `json:"role" validate:"max=120"`
}

// UserResponseDTO is returned in API responses
type UserResponseDTO struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Language  string    `json:"language"`
	Company   string    `json:"company,omitempty"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
