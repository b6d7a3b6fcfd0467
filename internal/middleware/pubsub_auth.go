package middleware

import (
	"net/http"

	"github.com/rs/zerolog"
	"google.golang.org/api/idtoken"
)

// PubSubAuthMiddleware validates the OIDC token Pub/Sub attaches to push
// requests. It bypasses authentication if isLocalDev is true.
func PubSubAuthMiddleware(isLocalDev bool, audience, expectedEmail string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isLocalDev {
				logger.Debug().Msg("Skipping Pub/Sub authentication for local environment")
				next.ServeHTTP(w, r)
				return
			}

			if audience == "" || expectedEmail == "" {
				logger.Error().Msg("Pub/Sub auth middleware configured without an audience or expected email; requests will be denied")
				http.Error(w, "Configuration error: audience or email not set", http.StatusInternalServerError)
				return
			}

			tokenString, ok := BearerToken(r)
			if !ok {
				logger.Warn().Msg("Missing or malformed Authorization header in Pub/Sub push request")
				http.Error(w, "Unauthorized: missing authorization header", http.StatusUnauthorized)
				return
			}

			payload, err := idtoken.Validate(r.Context(), tokenString, audience)
			if err != nil {
				logger.Error().Err(err).Msg("Failed to validate Pub/Sub JWT")
				http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
				return
			}

			email, _ := payload.Claims["email"].(string)
			if email != expectedEmail {
				logger.Warn().
					Str("token_email", email).
					Str("expected_email", expectedEmail).
					Msg("Pub/Sub JWT email does not match expected service account")
				http.Error(w, "Forbidden: token email does not match expected service account", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
