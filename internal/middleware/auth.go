package middleware

import (
	"context"
	"net/http"
	"strings"

	"clientzap/internal/logger"
	"clientzap/internal/util"
)

// Injected key type to avoid context collisions
type contextKey string

const UserContextKey = contextKey("user")

// ClaimsContextKey carries the full token claims for handlers that need the
// email or name (user provisioning).
const ClaimsContextKey = contextKey("claims")

func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := logger.New()
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header missing", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}
			claims, err := util.ValidateJWT(parts[1], jwtSecret)
			if err != nil {
				logger.Error().Err(err).Msg("Invalid token")
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), UserContextKey, claims.Subject)
			ctx = context.WithValue(ctx, ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
