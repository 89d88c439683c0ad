package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"certflow/pkg/domain"
	"certflow/pkg/requestcontext"
)

// JWTValidator checks a bearer token and returns its claims.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// TokenRevocationChecker reports whether a session was logged out.
type TokenRevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// JWTClaims is what the middleware needs from a validated session token.
type JWTClaims struct {
	Identity string // wallet address, 0x-prefixed
	JTI      string // session id, the revocation key
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

type revocationResult int

const (
	revocationOK revocationResult = iota
	revocationMissingJTI
	revocationRevoked
	revocationError
)

func checkRevocation(ctx context.Context, checker TokenRevocationChecker, jti string, logger *slog.Logger) revocationResult {
	if checker == nil {
		return revocationOK
	}
	requestID := requestcontext.RequestID(ctx)
	if jti == "" {
		logger.WarnContext(ctx, "unauthorized access - missing token jti",
			"request_id", requestID,
		)
		return revocationMissingJTI
	}

	revoked, err := checker.IsTokenRevoked(ctx, jti)
	if err != nil {
		logger.ErrorContext(ctx, "failed to check token revocation",
			"error", err,
			"request_id", requestID,
		)
		return revocationError
	}
	if revoked {
		logger.WarnContext(ctx, "unauthorized access - token revoked",
			"jti", jti,
			"request_id", requestID,
		)
		return revocationRevoked
	}
	return revocationOK
}

// RequireAuth returns middleware that validates bearer tokens and stores the
// caller identity and session id in the request context.
func RequireAuth(validator JWTValidator, revocationChecker TokenRevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			switch checkRevocation(ctx, revocationChecker, claims.JTI, logger) {
			case revocationMissingJTI, revocationRevoked:
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Token has been revoked")
				return
			case revocationError:
				writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to validate token")
				return
			}

			caller, err := domain.ParseIdentity(claims.Identity)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed token subject",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithIdentity(ctx, caller)
			ctx = requestcontext.WithSessionID(ctx, claims.JTI)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
