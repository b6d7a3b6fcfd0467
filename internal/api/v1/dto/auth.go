package dto

// SignUpRequestDTO is the registration form.
type SignUpRequestDTO struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Company   string `json:"company"`
	Role      string `json:"role"`
}

type SignInRequestDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// EmailRequestDTO is used by password reset and confirmation resend.
type EmailRequestDTO struct {
	Email string `json:"email" validate:"required,email"`
}

type RefreshRequestDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type AuthUserDTO struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	EmailConfirmed bool   `json:"email_confirmed"`
}

type SessionResponseDTO struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at,omitempty"`
	User         *AuthUserDTO `json:"user,omitempty"`
}

type SignUpResponseDTO struct {
	User                 *AuthUserDTO        `json:"user,omitempty"`
	Session              *SessionResponseDTO `json:"session,omitempty"`
	ConfirmationRequired bool                `json:"confirmation_required"`
}

// ErrorResponseDTO carries a message meant to be shown to the user as is.
type ErrorResponseDTO struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type MessageResponseDTO struct {
	Message string `json:"message"`
}
