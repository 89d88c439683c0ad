package domainerrors

import (
	"context"
	"errors"
)

// Code represents a domain error category independent of transport layer.
// These codes describe what went wrong in business logic terms, not HTTP terms.
type Code string

const (
	CodeNotFound           Code = "not_found"
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_failed"
	CodeInternal           Code = "internal_error"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"

	// Ledger and content store failures
	CodeGatewayUnavailable   Code = "gateway_unavailable"   // Ledger or content store unreachable, retryable
	CodeLedgerRejected       Code = "ledger_rejected"       // The ledger reverted the write
	CodeUnconfirmed          Code = "unconfirmed"           // Write submitted, no receipt observed
	CodeMetadataUnresolvable Code = "metadata_unresolvable" // Content reference could not be dereferenced

	// Issuance workflow preconditions
	CodeNotAdministrator       Code = "not_administrator"
	CodeAlreadyAuthorized      Code = "already_authorized"
	CodeNotAuthorized          Code = "not_authorized"
	CodeNotRegistered          Code = "not_registered"
	CodeStaleRequest           Code = "stale_request"
	CodePartialApprovalFailure Code = "partial_approval_failure"
)

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service, store, and other layers.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the outermost domain code of err, or CodeInternal when err
// carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsRetryable reports whether the failure is transient and the caller may
// retry the same step.
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case CodeGatewayUnavailable, CodeTimeout, CodeUnconfirmed, CodePartialApprovalFailure:
		return true
	default:
		return false
	}
}

// LedgerUnavailable classifies a failed ledger read. A cancelled or expired
// context is timeout; anything else is gateway_unavailable so the failure
// cannot be mistaken for a negative answer.
func LedgerUnavailable(err error, msg string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Wrap(err, CodeTimeout, msg)
	}
	return &Error{Code: CodeGatewayUnavailable, Message: msg + ": ledger unavailable", Err: err}
}
