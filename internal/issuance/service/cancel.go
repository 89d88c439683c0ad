package service

import (
	"context"
	"strings"

	"certflow/internal/identity"
	"certflow/internal/issuance/models"
	"certflow/internal/ledger"
	"certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/platform/audit"
	"certflow/pkg/platform/validation"
	"certflow/pkg/requestcontext"
)

// Withdraw cancels a pending request on behalf of the student who opened it.
func (m *Manager) Withdraw(ctx context.Context, signer identity.Signer, id domain.RequestID) (models.Cancellation, error) {
	if signer == nil {
		return models.Cancellation{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	defer m.lock(id)()

	c, err := m.withdraw(ctx, signer, id)
	m.observe("withdraw", err)
	return c, err
}

func (m *Manager) withdraw(ctx context.Context, signer identity.Signer, id domain.RequestID) (models.Cancellation, error) {
	req, err := m.loadPending(ctx, id)
	if err != nil {
		return models.Cancellation{}, err
	}
	if !req.Student.Equal(signer.Identity()) {
		return models.Cancellation{}, dErrors.New(dErrors.CodeForbidden, "only the requesting student can withdraw a request")
	}
	return m.cancel(ctx, signer, req, models.CancelWithdrawn, "")
}

// Reject cancels a pending request on behalf of the institute it is
// addressed to. Current authorization is not required.
func (m *Manager) Reject(ctx context.Context, signer identity.Signer, id domain.RequestID, reason string) (models.Cancellation, error) {
	if signer == nil {
		return models.Cancellation{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	reason = strings.TrimSpace(reason)
	if err := validation.CheckStringLength("reason", reason, validation.MaxReasonLength); err != nil {
		return models.Cancellation{}, err
	}
	defer m.lock(id)()

	c, err := m.reject(ctx, signer, id, reason)
	m.observe("reject", err)
	return c, err
}

func (m *Manager) reject(ctx context.Context, signer identity.Signer, id domain.RequestID, reason string) (models.Cancellation, error) {
	caller := signer.Identity()
	req, err := m.loadPending(ctx, id)
	if err != nil {
		return models.Cancellation{}, err
	}
	if !req.Institute.Equal(caller) {
		return models.Cancellation{}, dErrors.New(dErrors.CodeForbidden, "only the addressed institute can reject a request")
	}
	rec, err := m.user(ctx, caller)
	if err != nil {
		return models.Cancellation{}, err
	}
	if !hasRole(rec, domain.RoleProvider) {
		return models.Cancellation{}, dErrors.New(dErrors.CodeNotRegistered, "caller is not a registered institute")
	}
	return m.cancel(ctx, signer, req, models.CancelRejected, reason)
}

// Cancel withdraws when the signer is the request's student and rejects
// without a reason when the signer is its institute.
func (m *Manager) Cancel(ctx context.Context, signer identity.Signer, id domain.RequestID) (models.Cancellation, error) {
	if signer == nil {
		return models.Cancellation{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	req, err := m.loadPending(ctx, id)
	if err != nil {
		return models.Cancellation{}, err
	}
	caller := signer.Identity()
	switch {
	case req.Student.Equal(caller):
		return m.Withdraw(ctx, signer, id)
	case req.Institute.Equal(caller):
		return m.Reject(ctx, signer, id, "")
	default:
		return models.Cancellation{}, dErrors.New(dErrors.CodeForbidden, "only the student or the addressed institute can cancel a request")
	}
}

func (m *Manager) cancel(ctx context.Context, signer identity.Signer, req ledger.CertificateRequest, kind models.CancelKind, note string) (models.Cancellation, error) {
	caller := signer.Identity()
	receipt, err := m.ledger.CancelCertificateRequest(ctx, signer, req.ID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeLedgerRejected) {
			if stale := m.recheck(ctx, req.ID); stale != nil {
				return models.Cancellation{}, stale
			}
		}
		return models.Cancellation{}, err
	}

	c := models.Cancellation{
		RequestID:   req.ID,
		Student:     req.Student,
		Institute:   req.Institute,
		Kind:        kind,
		Note:        note,
		CancelledBy: caller,
		TxHash:      receipt.TxHash,
		CancelledAt: requestcontext.Now(ctx),
	}
	if err := m.cancellations.Record(ctx, c); err != nil {
		m.warn(ctx, "cancellation_record_failed", "request", req.ID, "error", err)
	}
	m.deleteCheckpoint(ctx, req.ID)

	action, decision := audit.ActionRequestWithdrawn, ""
	if kind == models.CancelRejected {
		action, decision = audit.ActionRequestRejected, audit.DecisionDenied
	}
	m.emit(ctx, audit.Event{
		Actor:     caller,
		Action:    action,
		Aggregate: audit.AggregateRequest,
		Subject:   req.ID.String(),
		Decision:  decision,
		Reason:    note,
		TxHash:    receipt.TxHash,
		Attributes: map[string]string{
			"student":   req.Student.String(),
			"institute": req.Institute.String(),
		},
	})
	m.info(ctx, string(action),
		"request", req.ID,
		"by", caller,
		"tx_hash", receipt.TxHash,
		"request_id", requestcontext.RequestID(ctx),
	)
	return c, nil
}
