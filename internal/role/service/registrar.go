package service

import (
	"context"
	"log/slog"

	"certflow/internal/content"
	"certflow/internal/identity"
	"certflow/internal/ledger"
	"certflow/internal/role/metrics"
	"certflow/internal/role/models"
	"certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/platform/audit"
	"certflow/pkg/requestcontext"
)

// RegistryLedger is the ledger surface used by registration.
type RegistryLedger interface {
	GetUser(ctx context.Context, id domain.Identity) (ledger.UserRecord, error)
	IsUserRegistered(ctx context.Context, id domain.Identity) (bool, error)
	RegisterUser(ctx context.Context, signer identity.Signer, role domain.Role, metadataRef string) (ledger.Receipt, error)
}

// ContentStore uploads and dereferences registration blobs.
type ContentStore interface {
	Put(ctx context.Context, data []byte) (string, error)
	PutJSON(ctx context.Context, v any) (string, error)
	GetJSON(ctx context.Context, ref string, v any) error
}

// Invalidator drops cached role resolutions.
type Invalidator interface {
	Invalidate(ctx context.Context, id domain.Identity) error
}

// Registrar uploads profile blobs and records registrations on the ledger.
type Registrar struct {
	ledger      RegistryLedger
	content     ContentStore
	invalidator Invalidator
	auditor     audit.Emitter
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

type RegistrarOption func(*Registrar)

func WithAuditor(a audit.Emitter) RegistrarOption {
	return func(r *Registrar) {
		r.auditor = a
	}
}

func WithRegistrarMetrics(m *metrics.Metrics) RegistrarOption {
	return func(r *Registrar) {
		r.metrics = m
	}
}

func WithRegistrarLogger(logger *slog.Logger) RegistrarOption {
	return func(r *Registrar) {
		r.logger = logger
	}
}

func NewRegistrar(l RegistryLedger, c ContentStore, inv Invalidator, opts ...RegistrarOption) *Registrar {
	r := &Registrar{ledger: l, content: c, invalidator: inv}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterStudent uploads the student profile and registers its reference.
func (r *Registrar) RegisterStudent(ctx context.Context, signer identity.Signer, profile content.StudentProfile) (models.Registration, error) {
	if err := models.ValidateStudentProfile(&profile); err != nil {
		return models.Registration{}, err
	}
	if err := r.requireUnregistered(ctx, signer); err != nil {
		return models.Registration{}, err
	}
	ref, err := r.content.PutJSON(ctx, profile)
	if err != nil {
		return models.Registration{}, dErrors.Wrap(err, dErrors.CodeGatewayUnavailable, "upload student profile")
	}
	return r.register(ctx, signer, domain.RoleStudent, ref, "")
}

// RegisterProvider uploads the accreditation document, then the profile that
// references it, then registers the profile reference. The document upload is
// confirmed before the profile names it.
func (r *Registrar) RegisterProvider(ctx context.Context, signer identity.Signer, profile content.ProviderProfile, document []byte) (models.Registration, error) {
	if err := models.ValidateProviderProfile(&profile); err != nil {
		return models.Registration{}, err
	}
	if len(document) == 0 {
		return models.Registration{}, dErrors.New(dErrors.CodeValidation, "accreditation document is required")
	}
	if err := r.requireUnregistered(ctx, signer); err != nil {
		return models.Registration{}, err
	}
	docRef, err := r.content.Put(ctx, document)
	if err != nil {
		return models.Registration{}, dErrors.Wrap(err, dErrors.CodeGatewayUnavailable, "upload accreditation document")
	}
	profile.DocumentCID = docRef
	ref, err := r.content.PutJSON(ctx, profile)
	if err != nil {
		return models.Registration{}, dErrors.Wrap(err, dErrors.CodeGatewayUnavailable, "upload provider profile")
	}
	return r.register(ctx, signer, domain.RoleProvider, ref, docRef)
}

// Profile dereferences the registered metadata blob of id.
func (r *Registrar) Profile(ctx context.Context, id domain.Identity) (models.Profile, error) {
	rec, err := r.ledger.GetUser(ctx, id)
	if err != nil {
		return models.Profile{}, dErrors.LedgerUnavailable(err, "load user")
	}
	if !rec.Registered || !rec.Role.IsSet() {
		return models.Profile{}, dErrors.New(dErrors.CodeNotRegistered, "identity is not registered")
	}
	p := models.Profile{Identity: id, Role: rec.Role, MetadataRef: rec.MetadataRef}
	switch rec.Role {
	case domain.RoleStudent:
		p.Student = &content.StudentProfile{}
		err = r.content.GetJSON(ctx, rec.MetadataRef, p.Student)
	case domain.RoleProvider:
		p.Provider = &content.ProviderProfile{}
		err = r.content.GetJSON(ctx, rec.MetadataRef, p.Provider)
	}
	if err != nil {
		return models.Profile{}, dErrors.Wrap(err, dErrors.CodeMetadataUnresolvable, "resolve profile")
	}
	return p, nil
}

func (r *Registrar) requireUnregistered(ctx context.Context, signer identity.Signer) error {
	if signer == nil {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	registered, err := r.ledger.IsUserRegistered(ctx, signer.Identity())
	if err != nil {
		return dErrors.LedgerUnavailable(err, "check registration")
	}
	if registered {
		return dErrors.New(dErrors.CodeConflict, "identity is already registered")
	}
	return nil
}

func (r *Registrar) register(ctx context.Context, signer identity.Signer, role domain.Role, ref, docRef string) (models.Registration, error) {
	caller := signer.Identity()
	receipt, err := r.ledger.RegisterUser(ctx, signer, role, ref)
	// An unconfirmed write may still land, so the cached role is dropped either way.
	if invErr := r.invalidator.Invalidate(ctx, caller); invErr != nil && r.logger != nil {
		r.logger.WarnContext(ctx, "role_cache_invalidate_failed", "identity", caller, "error", invErr)
	}
	reg := models.Registration{
		Identity:    caller,
		Role:        role,
		MetadataRef: ref,
		DocumentRef: docRef,
		TxHash:      receipt.TxHash,
	}
	if err != nil {
		return reg, err
	}

	if r.metrics != nil {
		r.metrics.IncRegistration(role.String())
	}
	r.emit(ctx, audit.Event{
		Actor:      caller,
		Action:     audit.ActionUserRegistered,
		Aggregate:  audit.AggregateUser,
		Subject:    caller.String(),
		Decision:   audit.DecisionGranted,
		TxHash:     receipt.TxHash,
		Attributes: map[string]string{"role": role.String(), "metadata_ref": ref},
	})
	if r.logger != nil {
		r.logger.InfoContext(ctx, "user_registered",
			"identity", caller,
			"role", role,
			"metadata_ref", ref,
			"tx_hash", receipt.TxHash,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return reg, nil
}

func (r *Registrar) emit(ctx context.Context, event audit.Event) {
	if r.auditor == nil {
		return
	}
	if err := r.auditor.Emit(ctx, event); err != nil && r.logger != nil {
		r.logger.WarnContext(ctx, "audit_emit_failed", "action", event.Action, "error", err)
	}
}
