// Package admin guards administrator routes with a live owner check.
package admin

import (
	"context"
	"log/slog"
	"net/http"

	"certflow/pkg/domain"
	"certflow/pkg/platform/httputil"
	"certflow/pkg/requestcontext"
)

// Checker verifies the caller is the current administrator.
type Checker interface {
	RequireAdministrator(ctx context.Context, caller domain.Identity) error
}

// RequireAdministrator rejects requests whose authenticated caller is not the
// ledger owner. It must run after the auth middleware. The check is repeated
// on every request; ownership is never cached.
func RequireAdministrator(checker Checker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			caller, err := httputil.RequireIdentity(ctx, logger)
			if err != nil {
				httputil.WriteError(w, err)
				return
			}
			if err := checker.RequireAdministrator(ctx, caller); err != nil {
				logger.WarnContext(ctx, "administrator check failed",
					"caller", caller,
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
