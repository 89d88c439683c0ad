package service

import (
	"context"

	"certflow/internal/identity"
	"certflow/internal/issuance/models"
	"certflow/internal/ledger"
	"certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/platform/audit"
	"certflow/pkg/requestcontext"
)

// Submit opens a request from the signer to an institute. The student's
// metadata reference is read now and attached to the request; later profile
// changes do not touch it.
func (m *Manager) Submit(ctx context.Context, signer identity.Signer, sub models.Submission) (models.Request, error) {
	req, err := m.submit(ctx, signer, sub)
	m.observe("submit", err)
	return req, err
}

func (m *Manager) submit(ctx context.Context, signer identity.Signer, sub models.Submission) (models.Request, error) {
	if signer == nil {
		return models.Request{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	sub.Normalize()
	if err := sub.Validate(); err != nil {
		return models.Request{}, err
	}
	if sub.Institute.IsZeroAddress() {
		return models.Request{}, dErrors.New(dErrors.CodeInvalidInput, "institute identity is required")
	}
	caller := signer.Identity()

	student, err := m.user(ctx, caller)
	if err != nil {
		return models.Request{}, err
	}
	if !hasRole(student, domain.RoleStudent) {
		return models.Request{}, dErrors.New(dErrors.CodeNotRegistered, "only registered students can request certificates")
	}
	institute, err := m.user(ctx, sub.Institute)
	if err != nil {
		return models.Request{}, err
	}
	if !hasRole(institute, domain.RoleProvider) {
		return models.Request{}, dErrors.New(dErrors.CodeNotRegistered, "institute is not a registered provider")
	}

	receipt, err := m.ledger.RequestCertificate(ctx, signer, ledger.RequestInput{
		Institute:          sub.Institute,
		Name:               sub.Name,
		Message:            sub.Message,
		StudentMetadataRef: student.MetadataRef,
	})
	req := models.Request{
		ID:                 receipt.RequestID,
		Student:            caller,
		Institute:          sub.Institute,
		Name:               sub.Name,
		Message:            sub.Message,
		StudentMetadataRef: student.MetadataRef,
		Status:             models.StatusPending,
	}
	if err != nil {
		return req, err
	}

	m.emit(ctx, audit.Event{
		Actor:     caller,
		Action:    audit.ActionRequestSubmitted,
		Aggregate: audit.AggregateRequest,
		Subject:   req.ID.String(),
		TxHash:    receipt.TxHash,
		Attributes: map[string]string{
			"institute": sub.Institute.String(),
			"name":      sub.Name,
		},
	})
	m.info(ctx, "certificate_request_submitted",
		"request", req.ID,
		"student", caller,
		"institute", sub.Institute,
		"tx_hash", receipt.TxHash,
		"request_id", requestcontext.RequestID(ctx),
	)
	return req, nil
}
