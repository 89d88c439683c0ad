package sentinel

import "errors"

// Sentinel dependency errors. Ledger backends, content backends and stores
// return these (optionally wrapped) so services translate them into domain
// errors exactly once.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")

	// ErrRejected marks a write the ledger refused to apply (a contract revert).
	ErrRejected = errors.New("rejected by ledger")
	// ErrUnconfirmed marks a submitted write whose receipt was not observed in time.
	ErrUnconfirmed = errors.New("unconfirmed")
	// ErrIntegrity marks a content blob whose bytes do not match its reference.
	ErrIntegrity = errors.New("content integrity mismatch")
)
