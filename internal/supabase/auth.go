package supabase

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// User is the identity record of the hosted auth service.
type User struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at,omitempty"`
	UserMetadata     map[string]any `json:"user_metadata,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

// Name returns the display name stored in the user's metadata.
func (u *User) Name() string {
	if u == nil {
		return ""
	}
	if name, ok := u.UserMetadata["name"].(string); ok {
		return name
	}
	return ""
}

type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// AuthResponse is what sign-up returns: a session when the project
// auto-confirms emails, otherwise only the pending user.
type AuthResponse struct {
	User    *User    `json:"user"`
	Session *Session `json:"session,omitempty"`
}

const authPath = "/auth/v1"

func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*AuthResponse, error) {
	// GoTrue answers with either a session (user nested) or a bare user.
	var raw struct {
		Session
		ID           string         `json:"id"`
		Email        string         `json:"email"`
		UserMetadata map[string]any `json:"user_metadata"`
		CreatedAt    time.Time      `json:"created_at"`
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   authPath + "/signup",
		body: map[string]any{
			"email":    email,
			"password": password,
			"data":     metadata,
		},
	}, &raw)
	if err != nil {
		return nil, err
	}

	if raw.AccessToken != "" {
		s := raw.Session
		return &AuthResponse{User: s.User, Session: &s}, nil
	}
	return &AuthResponse{User: &User{
		ID:           raw.ID,
		Email:        raw.Email,
		UserMetadata: raw.UserMetadata,
		CreatedAt:    raw.CreatedAt,
	}}, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   authPath + "/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   map[string]string{"email": email, "password": password},
	}, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	var s Session
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   authPath + "/token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": refreshToken},
	}, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   authPath + "/logout",
		bearer: accessToken,
	}, nil)
}

func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	req := request{
		method: http.MethodPost,
		path:   authPath + "/recover",
		body:   map[string]string{"email": email},
	}
	if redirectTo != "" {
		req.query = url.Values{"redirect_to": {redirectTo}}
	}
	return c.do(ctx, req, nil)
}

// Resend sends the confirmation email of kind (signup, email_change) again.
func (c *Client) Resend(ctx context.Context, kind, email string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   authPath + "/resend",
		body:   map[string]string{"type": kind, "email": email},
	}, nil)
}

func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var u User
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   authPath + "/user",
		bearer: accessToken,
	}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
