package service

import (
	"context"
	"errors"

	"certflow/internal/content"
	"certflow/internal/identity"
	"certflow/internal/issuance/models"
	"certflow/internal/ledger"
	"certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/platform/audit"
	"certflow/pkg/platform/sentinel"
	"certflow/pkg/requestcontext"
)

// Approve issues a certificate for a pending request addressed to the
// signer. Uploads run first (image, then metadata) and each confirmed
// upload is checkpointed; the ledger write only ever references confirmed
// content. A retry with the same inputs reuses the checkpointed refs.
func (m *Manager) Approve(ctx context.Context, signer identity.Signer, id domain.RequestID, in models.Approval) (models.Issued, error) {
	if signer == nil {
		return models.Issued{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if err := in.Validate(m.maxImageBytes); err != nil {
		return models.Issued{}, err
	}
	defer m.lock(id)()

	issued, err := m.approve(ctx, signer, id, in)
	m.observe("approve", err)
	return issued, err
}

func (m *Manager) approve(ctx context.Context, signer identity.Signer, id domain.RequestID, in models.Approval) (models.Issued, error) {
	caller := signer.Identity()
	if err := m.gate.RequireAuthorized(ctx, caller); err != nil {
		return models.Issued{}, err
	}
	req, err := m.loadPending(ctx, id)
	if err != nil {
		return models.Issued{}, err
	}
	if !req.Institute.Equal(caller) {
		return models.Issued{}, dErrors.New(dErrors.CodeStaleRequest, "certificate request is addressed to another institute")
	}
	summary, err := m.instituteSummary(ctx, caller)
	if err != nil {
		return models.Issued{}, err
	}

	imageID, err := content.ComputeCID(in.Image)
	if err != nil {
		return models.Issued{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "hash certificate image")
	}
	cp, found := m.checkpoint(ctx, id)
	if !found || !cp.Matches(caller, in, content.FormatRef(imageID)) {
		cp = models.Checkpoint{
			RequestID:       id,
			Institute:       caller,
			CertificateType: in.CertificateType,
			Name:            in.Name,
			Description:     in.Description,
			InstitutionName: summary.InstitutionName,
		}
	} else {
		m.info(ctx, "certificate_approval_resumed_from_checkpoint", "request", id, "metadata_ref", cp.MetadataRef)
	}

	issued := models.Issued{RequestID: id, Student: req.Student, Institute: caller}
	if cp.ImageRef == "" {
		ref, err := m.content.Put(ctx, in.Image)
		if err != nil {
			return issued, err
		}
		cp.ImageRef = ref
		m.saveCheckpoint(ctx, cp)
	}
	issued.ImageRef = cp.ImageRef

	if cp.MetadataRef == "" {
		if err := m.uploadMetadata(ctx, &cp, req, summary); err != nil {
			return issued, err
		}
	}
	issued.MetadataRef = cp.MetadataRef
	return m.submitApproval(ctx, signer, cp, issued)
}

// ResumeApproval retries the ledger write of an interrupted approval from
// its checkpoint. Authorization and staleness are checked again. When an
// earlier unconfirmed write did land, the resume reports success.
func (m *Manager) ResumeApproval(ctx context.Context, signer identity.Signer, id domain.RequestID) (models.Issued, error) {
	if signer == nil {
		return models.Issued{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	defer m.lock(id)()

	issued, err := m.resume(ctx, signer, id)
	m.observe("resume", err)
	return issued, err
}

func (m *Manager) resume(ctx context.Context, signer identity.Signer, id domain.RequestID) (models.Issued, error) {
	caller := signer.Identity()
	cp, err := m.checkpoints.Get(ctx, id)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return models.Issued{}, &dErrors.Error{Code: dErrors.CodeGatewayUnavailable, Message: "read approval checkpoint", Err: err}
	}
	if err != nil || !cp.Institute.Equal(caller) {
		return models.Issued{}, dErrors.New(dErrors.CodeNotFound, "no interrupted approval for this request")
	}
	if err := m.gate.RequireAuthorized(ctx, caller); err != nil {
		return models.Issued{}, err
	}

	req, err := m.load(ctx, id)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeStaleRequest) {
			m.deleteCheckpoint(ctx, id)
		}
		return models.Issued{}, err
	}
	issued := models.Issued{
		RequestID:   id,
		Student:     req.Student,
		Institute:   caller,
		ImageRef:    cp.ImageRef,
		MetadataRef: cp.MetadataRef,
	}
	if req.Approved {
		m.deleteCheckpoint(ctx, id)
		if !req.Institute.Equal(caller) {
			return models.Issued{}, dErrors.New(dErrors.CodeStaleRequest, "certificate request is already approved")
		}
		if certID, ok := m.findIssued(ctx, req.Student, cp.MetadataRef); ok {
			issued.CertificateID = certID
		}
		m.info(ctx, "certificate_approval_already_landed",
			"request", id,
			"certificate", issued.CertificateID,
			"request_id", requestcontext.RequestID(ctx),
		)
		return issued, nil
	}
	if !req.Institute.Equal(caller) {
		return models.Issued{}, dErrors.New(dErrors.CodeStaleRequest, "certificate request is addressed to another institute")
	}

	if cp.MetadataRef == "" {
		summary, err := m.instituteSummary(ctx, caller)
		if err != nil {
			return issued, err
		}
		if err := m.uploadMetadata(ctx, &cp, req, summary); err != nil {
			return issued, err
		}
		issued.MetadataRef = cp.MetadataRef
	}
	return m.submitApproval(ctx, signer, cp, issued)
}

func (m *Manager) uploadMetadata(ctx context.Context, cp *models.Checkpoint, req ledger.CertificateRequest, summary content.InstituteSummary) error {
	ref, err := m.content.PutJSON(ctx, composeMetadata(*cp, req, summary))
	if err != nil {
		return m.partial(ctx, *cp, err, "certificate metadata upload failed")
	}
	cp.MetadataRef = ref
	m.saveCheckpoint(ctx, *cp)
	m.emit(ctx, audit.Event{
		Actor:     cp.Institute,
		Action:    audit.ActionApprovalCheckpointed,
		Aggregate: audit.AggregateRequest,
		Subject:   cp.RequestID.String(),
		Attributes: map[string]string{
			"image_ref":    cp.ImageRef,
			"metadata_ref": cp.MetadataRef,
		},
	})
	return nil
}

// submitApproval performs the ledger write for a checkpoint whose uploads
// are confirmed.
func (m *Manager) submitApproval(ctx context.Context, signer identity.Signer, cp models.Checkpoint, issued models.Issued) (models.Issued, error) {
	receipt, err := m.ledger.ApproveCertificateRequest(ctx, signer, ledger.ApprovalInput{
		RequestID:       cp.RequestID,
		CertificateType: cp.CertificateType,
		MetadataRef:     cp.MetadataRef,
		InstitutionName: cp.InstitutionName,
	})
	issued.TxHash = receipt.TxHash
	if err != nil {
		switch {
		case dErrors.HasCode(err, dErrors.CodeUnconfirmed):
			m.warn(ctx, "certificate_approval_unconfirmed", "request", cp.RequestID, "tx_hash", receipt.TxHash)
			return issued, err
		case dErrors.HasCode(err, dErrors.CodeLedgerRejected):
			if stale := m.recheck(ctx, cp.RequestID); stale != nil {
				m.deleteCheckpoint(ctx, cp.RequestID)
				return issued, stale
			}
			return issued, m.partial(ctx, cp, err, "ledger rejected the approval")
		default:
			return issued, m.partial(ctx, cp, err, "ledger write failed")
		}
	}

	issued.CertificateID = receipt.CertificateID
	m.deleteCheckpoint(ctx, cp.RequestID)
	m.emit(ctx, audit.Event{
		Actor:     cp.Institute,
		Action:    audit.ActionRequestApproved,
		Aggregate: audit.AggregateRequest,
		Subject:   cp.RequestID.String(),
		Decision:  audit.DecisionGranted,
		TxHash:    receipt.TxHash,
		Attributes: map[string]string{
			"certificate_id":   receipt.CertificateID.String(),
			"certificate_type": cp.CertificateType,
			"student":          issued.Student.String(),
			"metadata_ref":     cp.MetadataRef,
		},
	})
	if m.metrics != nil {
		m.metrics.IncIssued()
	}
	m.info(ctx, "certificate_request_approved",
		"request", cp.RequestID,
		"certificate", receipt.CertificateID,
		"institute", cp.Institute,
		"student", issued.Student,
		"tx_hash", receipt.TxHash,
		"request_id", requestcontext.RequestID(ctx),
	)
	return issued, nil
}

func (m *Manager) partial(ctx context.Context, cp models.Checkpoint, err error, msg string) error {
	if m.metrics != nil {
		m.metrics.IncPartialApproval()
	}
	m.warn(ctx, "certificate_approval_partial",
		"request", cp.RequestID,
		"image_ref", cp.ImageRef,
		"metadata_ref", cp.MetadataRef,
		"error", err,
	)
	return &dErrors.Error{
		Code:    dErrors.CodePartialApprovalFailure,
		Message: msg + "; confirmed uploads were kept, resume the approval to retry",
		Err:     err,
	}
}

// instituteSummary copies the approving institute's registered profile into
// the certificate metadata.
func (m *Manager) instituteSummary(ctx context.Context, institute domain.Identity) (content.InstituteSummary, error) {
	rec, err := m.user(ctx, institute)
	if err != nil {
		return content.InstituteSummary{}, err
	}
	if !hasRole(rec, domain.RoleProvider) {
		return content.InstituteSummary{}, dErrors.New(dErrors.CodeNotRegistered, "caller is not a registered institute")
	}
	var p content.ProviderProfile
	if err := m.content.GetJSON(ctx, rec.MetadataRef, &p); err != nil {
		return content.InstituteSummary{}, err
	}
	return content.InstituteSummary{
		Identity:            institute.String(),
		InstitutionName:     p.InstitutionName,
		AccreditationNumber: p.AccreditationNumber,
		DocumentCID:         p.DocumentCID,
	}, nil
}

func composeMetadata(cp models.Checkpoint, req ledger.CertificateRequest, summary content.InstituteSummary) content.CertificateMetadata {
	return content.CertificateMetadata{
		Name:            cp.Name,
		Description:     cp.Description,
		Image:           cp.ImageRef,
		CertificateType: cp.CertificateType,
		Institute:       summary,
		Attributes: []content.Attribute{
			{TraitType: "Certificate Type", Value: cp.CertificateType},
			{TraitType: "Institution", Value: summary.InstitutionName},
			{TraitType: "Student", Value: req.Student.String()},
			{TraitType: "Request", Value: req.ID.String()},
		},
	}
}

// findIssued looks for the holder's certificate minted with metadataRef.
func (m *Manager) findIssued(ctx context.Context, holder domain.Identity, metadataRef string) (domain.CertificateID, bool) {
	ids, err := m.ledger.StudentCertificates(ctx, holder)
	if err != nil {
		m.warn(ctx, "issued_certificate_lookup_failed", "holder", holder, "error", err)
		return 0, false
	}
	for i := len(ids) - 1; i >= 0; i-- {
		uri, err := m.ledger.TokenURI(ctx, ids[i])
		if err == nil && uri == metadataRef {
			return ids[i], true
		}
	}
	return 0, false
}

func (m *Manager) checkpoint(ctx context.Context, id domain.RequestID) (models.Checkpoint, bool) {
	cp, err := m.checkpoints.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			m.warn(ctx, "approval_checkpoint_read_failed", "request", id, "error", err)
		}
		return models.Checkpoint{}, false
	}
	return cp, true
}

func (m *Manager) saveCheckpoint(ctx context.Context, cp models.Checkpoint) {
	if err := m.checkpoints.Save(ctx, cp); err != nil {
		m.warn(ctx, "approval_checkpoint_save_failed", "request", cp.RequestID, "error", err)
	}
}

func (m *Manager) deleteCheckpoint(ctx context.Context, id domain.RequestID) {
	if err := m.checkpoints.Delete(ctx, id); err != nil {
		m.warn(ctx, "approval_checkpoint_delete_failed", "request", id, "error", err)
	}
}
