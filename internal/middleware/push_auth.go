package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/api/idtoken"
)

// PushAuthMiddleware validates the Google-signed ID token on settings pushed
// by the config service. It bypasses authentication when isLocalDev is true.
func PushAuthMiddleware(isLocalDev bool, audience, expectedEmail string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isLocalDev {
				logger.Debug().Msg("Skipping push authentication for local environment")
				next.ServeHTTP(w, r)
				return
			}

			if audience == "" || expectedEmail == "" {
				logger.Error().Msg("Push auth middleware configured without an audience or expected email; requests will be denied")
				http.Error(w, "Configuration error: audience or email not set", http.StatusInternalServerError)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn().Msg("Missing Authorization header in settings push request")
				http.Error(w, "Unauthorized: missing authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				logger.Warn().Msg("Malformed Authorization header in settings push request")
				http.Error(w, "Unauthorized: malformed authorization header", http.StatusUnauthorized)
				return
			}
			tokenString := parts[1]

			payload, err := idtoken.Validate(context.Background(), tokenString, audience)
			if err != nil {
				logger.Error().Err(err).Msg("Failed to validate push token")
				http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
				return
			}

			email, ok := payload.Claims["email"].(string)
			if !ok || email == "" {
				logger.Error().Msg("Email claim missing or invalid in push token")
				http.Error(w, "Forbidden: invalid email claim in token", http.StatusForbidden)
				return
			}

			if email != expectedEmail {
				logger.Warn().
					Str("token_email", email).
					Str("expected_email", expectedEmail).
					Msg("Push token email does not match expected service account")
				http.Error(w, "Forbidden: token email does not match expected service account", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
