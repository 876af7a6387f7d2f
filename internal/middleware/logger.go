package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// LoggerMiddleware logs incoming HTTP requests.
func LoggerMiddleware(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug().
			Str("method", r.Method).
			Str("uri", r.URL.RequestURI()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
