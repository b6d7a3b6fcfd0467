package service

import (
	"errors"
	"fmt"
	"testing"

	"stepable/internal/supabase"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestClassifyKnownMessages(t *testing.T) {
	tests := []struct {
		raw  string
		want MessageKey
	}{
		{"Email not confirmed", MsgEmailNotConfirmed},
		{"EMAIL NOT CONFIRMED", MsgEmailNotConfirmed},
		{"User already registered", MsgAlreadyRegistered},
		{"A user with this email address has already been registered", MsgAlreadyRegistered},
		{"Unable to validate email address: invalid format", MsgInvalidEmail},
		{"Invalid email", MsgInvalidEmail},
		{"Email rate limit exceeded", MsgRateLimited},
		{"For security purposes, you can only request this after 42 seconds.", MsgRateLimited},
		{"Too Many Requests", MsgRateLimited},
		{"Invalid login credentials", MsgInvalidCredentials},
		{"Password should be at least 6 characters.", MsgWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := Classify(tt.raw)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyUnknown(t *testing.T) {
	_, ok := Classify("Database error saving new user")
	assert.False(t, ok)
}

func TestCatalogIsTotal(t *testing.T) {
	keys := []MessageKey{
		MsgEmailNotConfirmed, MsgAlreadyRegistered, MsgInvalidEmail, MsgRateLimited,
		MsgInvalidCredentials, MsgWeakPassword, MsgConnection, MsgUnexpected,
	}
	for tag, catalog := range authCatalog {
		for _, k := range keys {
			assert.NotEmpty(t, catalog[k], "missing %s in %s", k, tag)
		}
	}
	for _, p := range authPatterns {
		assert.NotEmpty(t, authCatalog[language.Spanish][p.key])
	}
}

func TestTranslate(t *testing.T) {
	m := NewAuthMessages("es")

	es := m.Translate(language.Spanish, &supabase.APIError{Status: 400, Message: "Email not confirmed"})
	assert.Equal(t, "Por favor, revisa tu email y confirma tu cuenta antes de iniciar sesión.", es)

	en := m.Translate(language.English, &supabase.APIError{Status: 400, Message: "Email not confirmed"})
	assert.Equal(t, "Please check your email and confirm your account before signing in.", en)

	wrapped := fmt.Errorf("sign in: %w", &supabase.APIError{Message: "User already registered"})
	assert.Equal(t, authCatalog[language.Spanish][MsgAlreadyRegistered], m.Translate(language.Spanish, wrapped))

	net := fmt.Errorf("%w: dial tcp: refused", supabase.ErrNetwork)
	assert.Equal(t, authCatalog[language.Spanish][MsgConnection], m.Translate(language.Spanish, net))

	assert.Equal(t, "Database error saving new user",
		m.Translate(language.Spanish, &supabase.APIError{Message: "Database error saving new user"}))
	assert.Equal(t, "boom", m.Translate(language.English, errors.New("boom")))
	assert.Empty(t, m.Translate(language.English, nil))
}

func TestTranslateIsStable(t *testing.T) {
	m := NewAuthMessages("es")
	err := &supabase.APIError{Message: "Email rate limit exceeded"}
	first := m.Translate(language.Spanish, err)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, m.Translate(language.Spanish, err))
	}
}

func TestLang(t *testing.T) {
	m := NewAuthMessages("es")
	assert.Equal(t, language.English, m.Lang("en-US,en;q=0.9"))
	assert.Equal(t, language.Spanish, m.Lang("es-MX"))
	assert.Equal(t, language.Spanish, m.Lang("fr-FR"))
	assert.Equal(t, language.Spanish, m.Lang(""))

	en := NewAuthMessages("en")
	assert.Equal(t, language.English, en.Lang(""))
	assert.Equal(t, language.Spanish, en.Lang("es"))
}
