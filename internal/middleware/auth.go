package middleware

import (
	"context"
	"net/http"
	"strings"

	"stepable/internal/util"

	"github.com/rs/zerolog"
)

// Injected key type to avoid context collisions
type contextKey string

const (
	UserContextKey   = contextKey("user")
	TokenContextKey  = contextKey("access_token")
	ClaimsContextKey = contextKey("claims")
)

// AuthMiddleware accepts requests carrying an access token issued by the hosted
// auth service (or a demo session) and stores the user ID, raw token and claims
// in the request context.
func AuthMiddleware(jwtSecret string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := BearerToken(r)
			if !ok {
				logger.Debug().Str("path", r.URL.Path).Msg("Missing or invalid authorization header")
				http.Error(w, "Authorization header missing or invalid", http.StatusUnauthorized)
				return
			}
			claims, err := util.ValidateJWT(tokenString, jwtSecret)
			if err != nil {
				logger.Warn().Err(err).Msg("Invalid token")
				http.Error(w, "Invalid token: "+err.Error(), http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), UserContextKey, claims.Subject)
			ctx = context.WithValue(ctx, TokenContextKey, tokenString)
			ctx = context.WithValue(ctx, ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserContextKey).(string)
	return id, ok && id != ""
}

func AccessToken(ctx context.Context) string {
	token, _ := ctx.Value(TokenContextKey).(string)
	return token
}

func Claims(ctx context.Context) *util.Claims {
	claims, _ := ctx.Value(ClaimsContextKey).(*util.Claims)
	return claims
}
