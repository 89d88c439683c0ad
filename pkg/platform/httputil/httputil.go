package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/requestcontext"
)

// ErrorResponse is the JSON body written for every failed request.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Retryable   bool   `json:"retryable,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encoding failure can only truncate the body.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError centralizes domain error translation to HTTP responses.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), ErrorResponse{
			Error:       DomainCodeToHTTPCode(domainErr.Code),
			Description: domainErr.Message,
			Retryable:   dErrors.IsRetryable(err),
		})
		return
	}

	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: DomainCodeToHTTPCode(dErrors.CodeInternal),
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeInvariantViolation:
		return http.StatusBadRequest
	case dErrors.CodeConflict, dErrors.CodeAlreadyAuthorized, dErrors.CodeStaleRequest, dErrors.CodeLedgerRejected:
		return http.StatusConflict
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden, dErrors.CodeNotAdministrator, dErrors.CodeNotAuthorized, dErrors.CodeNotRegistered:
		return http.StatusForbidden
	case dErrors.CodeUnconfirmed:
		return http.StatusAccepted
	case dErrors.CodeMetadataUnresolvable, dErrors.CodePartialApprovalFailure:
		return http.StatusBadGateway
	case dErrors.CodeGatewayUnavailable:
		return http.StatusServiceUnavailable
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to the JSON error string.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return "bad_request"
	case dErrors.CodeValidation, dErrors.CodeInvariantViolation:
		return "validation_error"
	case dErrors.CodeNotFound, dErrors.CodeConflict, dErrors.CodeUnauthorized, dErrors.CodeForbidden,
		dErrors.CodeTimeout, dErrors.CodeGatewayUnavailable, dErrors.CodeLedgerRejected, dErrors.CodeUnconfirmed,
		dErrors.CodeMetadataUnresolvable, dErrors.CodeNotAdministrator, dErrors.CodeAlreadyAuthorized,
		dErrors.CodeNotAuthorized, dErrors.CodeNotRegistered, dErrors.CodeStaleRequest, dErrors.CodePartialApprovalFailure:
		return string(code)
	default:
		return "internal_error"
	}
}

// RequireIdentity extracts the authenticated caller from context.
// Handlers behind the auth middleware should never observe an empty identity.
func RequireIdentity(ctx context.Context, logger *slog.Logger) (domain.Identity, error) {
	caller := requestcontext.Identity(ctx)
	if caller.IsNil() {
		if logger != nil {
			logger.ErrorContext(ctx, "identity missing from context despite auth middleware",
				"request_id", requestcontext.RequestID(ctx))
		}
		return "", dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return caller, nil
}
