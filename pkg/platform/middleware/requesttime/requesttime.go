// Package requesttime pins one "now" per request so every timestamp written
// while serving it (audit events, checkpoints, session expiry) agrees.
package requesttime

import (
	"net/http"
	"time"

	"certflow/pkg/requestcontext"
)

// Middleware captures the current UTC time and stores it in the request
// context. Read it back with requestcontext.Now.
func Middleware(next http.Handler) http.Handler {
	return WithClock(time.Now)(next)
}

// WithClock is Middleware with an injectable clock.
func WithClock(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), now().UTC())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
