package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stepable/internal/supabase"
	"stepable/internal/util"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
)

const (
	DemoUserID   = "demo-user"
	DemoUserName = "Demo User"
	demoTokenTTL = time.Hour
)

// AuthError carries the localized message next to the hosted-service cause.
type AuthError struct {
	Message string
	Key     MessageKey
	Cause   error
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Unwrap() error { return e.Cause }

// AuthClient is the subset of the hosted auth API the service uses.
type AuthClient interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*supabase.AuthResponse, error)
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*supabase.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	Resend(ctx context.Context, kind, email string) error
	GetUser(ctx context.Context, accessToken string) (*supabase.User, error)
}

type SignUpInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Company   string
	Role      string
}

type AuthService interface {
	SignUp(ctx context.Context, lang language.Tag, in SignUpInput) (*supabase.AuthResponse, error)
	SignIn(ctx context.Context, lang language.Tag, email, password string) (*supabase.Session, error)
	SignOut(ctx context.Context, lang language.Tag, accessToken string) error
	ResetPassword(ctx context.Context, lang language.Tag, email string) error
	ResendConfirmation(ctx context.Context, lang language.Tag, email string) error
	CurrentUser(ctx context.Context, lang language.Tag, accessToken string) (*supabase.User, error)
	Refresh(ctx context.Context, lang language.Tag, refreshToken string) (*supabase.Session, error)
}

type DemoLogin struct {
	Enabled  bool
	Email    string
	Password string
	// Secret signs the demo access token so the API accepts it.
	Secret string
}

type authService struct {
	client     AuthClient
	messages   *AuthMessages
	demo       DemoLogin
	redirectTo string
	logger     zerolog.Logger
}

func NewAuthService(client AuthClient, messages *AuthMessages, demo DemoLogin, redirectTo string, logger zerolog.Logger) AuthService {
	return &authService{
		client:     client,
		messages:   messages,
		demo:       demo,
		redirectTo: redirectTo,
		logger:     logger.With().Str("service", "AuthService").Logger(),
	}
}

func (s *authService) fail(lang language.Tag, err error) error {
	msg := s.messages.Translate(lang, err)
	key, _ := Classify(err.Error())
	if errors.Is(err, supabase.ErrNetwork) {
		key = MsgConnection
	}
	return &AuthError{Message: msg, Key: key, Cause: err}
}

func (s *authService) SignUp(ctx context.Context, lang language.Tag, in SignUpInput) (*supabase.AuthResponse, error) {
	metadata := map[string]any{
		"name":    strings.TrimSpace(in.FirstName + " " + in.LastName),
		"company": in.Company,
		"role":    in.Role,
	}
	resp, err := s.client.SignUp(ctx, in.Email, in.Password, metadata)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Sign-up rejected")
		return nil, s.fail(lang, err)
	}
	return resp, nil
}

func (s *authService) SignIn(ctx context.Context, lang language.Tag, email, password string) (*supabase.Session, error) {
	session, err := s.client.SignInWithPassword(ctx, email, password)
	if err == nil {
		return session, nil
	}
	s.logger.Warn().Err(err).Msg("Login error")

	if key, _ := Classify(err.Error()); key == MsgEmailNotConfirmed {
		return nil, s.fail(lang, err)
	}
	if s.isDemo(email, password) {
		demo, demoErr := s.demoSession()
		if demoErr != nil {
			s.logger.Error().Err(demoErr).Msg("Failed to sign demo session")
			return nil, s.fail(lang, err)
		}
		s.logger.Info().Msg("Accepted demo credentials")
		return demo, nil
	}
	return nil, s.fail(lang, err)
}

func (s *authService) isDemo(email, password string) bool {
	return s.demo.Enabled && s.demo.Email != "" &&
		strings.EqualFold(email, s.demo.Email) && password == s.demo.Password
}

func (s *authService) demoSession() (*supabase.Session, error) {
	token, err := util.SignHS256(s.demo.Secret, DemoUserID, s.demo.Email, DemoUserName, demoTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("signing demo token: %w", err)
	}
	return &supabase.Session{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(demoTokenTTL.Seconds()),
		ExpiresAt:   time.Now().Add(demoTokenTTL).Unix(),
		User: &supabase.User{
			ID:           DemoUserID,
			Email:        s.demo.Email,
			UserMetadata: map[string]any{"name": DemoUserName},
		},
	}, nil
}

func (s *authService) SignOut(ctx context.Context, lang language.Tag, accessToken string) error {
	if err := s.client.SignOut(ctx, accessToken); err != nil {
		return s.fail(lang, err)
	}
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, lang language.Tag, email string) error {
	if err := s.client.ResetPasswordForEmail(ctx, email, s.redirectTo); err != nil {
		return s.fail(lang, err)
	}
	return nil
}

func (s *authService) ResendConfirmation(ctx context.Context, lang language.Tag, email string) error {
	if err := s.client.Resend(ctx, "signup", email); err != nil {
		return s.fail(lang, err)
	}
	return nil
}

func (s *authService) CurrentUser(ctx context.Context, lang language.Tag, accessToken string) (*supabase.User, error) {
	u, err := s.client.GetUser(ctx, accessToken)
	if err != nil {
		return nil, s.fail(lang, err)
	}
	return u, nil
}

func (s *authService) Refresh(ctx context.Context, lang language.Tag, refreshToken string) (*supabase.Session, error) {
	session, err := s.client.RefreshSession(ctx, refreshToken)
	if err != nil {
		return nil, s.fail(lang, err)
	}
	return session, nil
}
