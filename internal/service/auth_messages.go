package service

import (
	"errors"
	"strings"

	"stepable/internal/supabase"

	"golang.org/x/text/language"
)

// MessageKey identifies a user-facing authentication message.
type MessageKey string

const (
	MsgEmailNotConfirmed  MessageKey = "email_not_confirmed"
	MsgAlreadyRegistered  MessageKey = "already_registered"
	MsgInvalidEmail       MessageKey = "invalid_email"
	MsgRateLimited        MessageKey = "rate_limited"
	MsgInvalidCredentials MessageKey = "invalid_credentials"
	MsgWeakPassword       MessageKey = "weak_password"
	MsgConnection         MessageKey = "connection"
	MsgUnexpected         MessageKey = "unexpected"
)

// authPatterns is checked in order; the first rule with a matching substring
// wins. Matching ignores case.
var authPatterns = []struct {
	key        MessageKey
	substrings []string
}{
	{MsgEmailNotConfirmed, []string{"email not confirmed"}},
	{MsgAlreadyRegistered, []string{"user already registered", "already been registered"}},
	{MsgInvalidEmail, []string{"invalid format", "invalid email"}},
	{MsgRateLimited, []string{"rate limit", "for security purposes", "too many requests"}},
	{MsgInvalidCredentials, []string{"invalid login credentials"}},
	{MsgWeakPassword, []string{"password should be at least"}},
}

var authCatalog = map[language.Tag]map[MessageKey]string{
	language.Spanish: {
		MsgEmailNotConfirmed:  "Por favor, revisa tu email y confirma tu cuenta antes de iniciar sesión.",
		MsgAlreadyRegistered:  "Este email ya está registrado. Intenta iniciar sesión o recuperar tu contraseña.",
		MsgInvalidEmail:       "El formato del email no es válido.",
		MsgRateLimited:        "Demasiados intentos. Espera unos minutos antes de volver a intentarlo.",
		MsgInvalidCredentials: "Email o contraseña incorrectos.",
		MsgWeakPassword:       "La contraseña debe tener al menos 6 caracteres.",
		MsgConnection:         "Error de conexión. Por favor, verifica tu conexión a internet.",
		MsgUnexpected:         "Error inesperado. Inténtalo de nuevo.",
	},
	language.English: {
		MsgEmailNotConfirmed:  "Please check your email and confirm your account before signing in.",
		MsgAlreadyRegistered:  "This email is already registered. Try signing in or resetting your password.",
		MsgInvalidEmail:       "The email address format is not valid.",
		MsgRateLimited:        "Too many attempts. Please wait a few minutes before trying again.",
		MsgInvalidCredentials: "Invalid email or password.",
		MsgWeakPassword:       "The password must be at least 6 characters long.",
		MsgConnection:         "Connection error. Please check your internet connection.",
		MsgUnexpected:         "Unexpected error. Please try again.",
	},
}

// AuthMessages translates hosted-auth failures into localized strings.
type AuthMessages struct {
	matcher   language.Matcher
	supported []language.Tag
	fallback  language.Tag
}

// NewAuthMessages builds a translator whose fallback is defaultLang, or
// Spanish when defaultLang is unknown.
func NewAuthMessages(defaultLang string) *AuthMessages {
	fallback := language.Spanish
	if tag, err := language.Parse(defaultLang); err == nil {
		if base, _ := tag.Base(); base.String() == "en" {
			fallback = language.English
		}
	}
	supported := []language.Tag{fallback}
	for _, tag := range []language.Tag{language.Spanish, language.English} {
		if tag != fallback {
			supported = append(supported, tag)
		}
	}
	return &AuthMessages{
		matcher:   language.NewMatcher(supported),
		supported: supported,
		fallback:  fallback,
	}
}

// Lang resolves an Accept-Language header to a supported language.
func (m *AuthMessages) Lang(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return m.fallback
	}
	_, idx, conf := m.matcher.Match(tags...)
	if conf == language.No {
		return m.fallback
	}
	return m.supported[idx]
}

// Text returns the catalog entry for key in lang.
func (m *AuthMessages) Text(lang language.Tag, key MessageKey) string {
	catalog, ok := authCatalog[lang]
	if !ok {
		catalog = authCatalog[m.fallback]
	}
	return catalog[key]
}

// Classify finds the known message a raw hosted-auth message belongs to.
func Classify(raw string) (MessageKey, bool) {
	lower := strings.ToLower(raw)
	for _, p := range authPatterns {
		for _, sub := range p.substrings {
			if strings.Contains(lower, sub) {
				return p.key, true
			}
		}
	}
	return "", false
}

// Translate maps err to the text shown to the user. Unknown hosted-service
// messages pass through unchanged.
func (m *AuthMessages) Translate(lang language.Tag, err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, supabase.ErrNetwork) {
		return m.Text(lang, MsgConnection)
	}
	raw := err.Error()
	var apiErr *supabase.APIError
	if errors.As(err, &apiErr) {
		raw = apiErr.Message
	}
	if key, ok := Classify(raw); ok {
		return m.Text(lang, key)
	}
	return raw
}
