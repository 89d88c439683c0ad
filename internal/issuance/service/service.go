// Package service runs the certificate request lifecycle: a student submits,
// the addressed institute approves or rejects, the student may withdraw.
// Pending requests live only on the ledger; this package keeps approval
// checkpoints and the cancellation history beside it.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"certflow/internal/identity"
	"certflow/internal/issuance/metrics"
	"certflow/internal/issuance/models"
	"certflow/internal/ledger"
	"certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/platform/audit"
	"certflow/pkg/platform/sentinel"
	platformsync "certflow/pkg/platform/sync"
)

// Ledger is the request and certificate registry surface used here.
type Ledger interface {
	GetUser(ctx context.Context, id domain.Identity) (ledger.UserRecord, error)
	RequestCounter(ctx context.Context) (uint64, error)
	CertificateRequest(ctx context.Context, id domain.RequestID) (ledger.CertificateRequest, error)
	RequestCertificate(ctx context.Context, signer identity.Signer, in ledger.RequestInput) (ledger.Receipt, error)
	ApproveCertificateRequest(ctx context.Context, signer identity.Signer, in ledger.ApprovalInput) (ledger.Receipt, error)
	CancelCertificateRequest(ctx context.Context, signer identity.Signer, id domain.RequestID) (ledger.Receipt, error)
	StudentCertificates(ctx context.Context, holder domain.Identity) ([]domain.CertificateID, error)
	TokenURI(ctx context.Context, id domain.CertificateID) (string, error)
}

// ContentStore uploads certificate images and metadata and reads institute
// profiles.
type ContentStore interface {
	Put(ctx context.Context, data []byte) (string, error)
	PutJSON(ctx context.Context, v any) (string, error)
	GetJSON(ctx context.Context, ref string, v any) error
}

// AuthorizationGate answers the live institute authorization check.
type AuthorizationGate interface {
	RequireAuthorized(ctx context.Context, institute domain.Identity) error
}

// CheckpointStore keeps the confirmed uploads of interrupted approvals.
// Get returns sentinel.ErrNotFound when there is none.
type CheckpointStore interface {
	Get(ctx context.Context, id domain.RequestID) (models.Checkpoint, error)
	Save(ctx context.Context, cp models.Checkpoint) error
	Delete(ctx context.Context, id domain.RequestID) error
}

// CancellationStore keeps the off-ledger history of cancelled requests.
// Get returns sentinel.ErrNotFound for ids that were never cancelled here.
type CancellationStore interface {
	Record(ctx context.Context, c models.Cancellation) error
	Get(ctx context.Context, id domain.RequestID) (models.Cancellation, error)
}

const (
	defaultConcurrency   = 8
	defaultMaxImageBytes = 5 << 20
)

type Manager struct {
	ledger        Ledger
	content       ContentStore
	gate          AuthorizationGate
	checkpoints   CheckpointStore
	cancellations CancellationStore
	auditor       audit.Emitter
	metrics       *metrics.Metrics
	logger        *slog.Logger
	locks         *platformsync.ShardedMutex
	concurrency   int
	maxImageBytes int64
}

type Option func(*Manager)

func WithAuditor(a audit.Emitter) Option {
	return func(m *Manager) {
		m.auditor = a
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithConcurrency bounds the parallel reads of a pending scan.
func WithConcurrency(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

func WithMaxImageBytes(n int64) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxImageBytes = n
		}
	}
}

func New(l Ledger, c ContentStore, gate AuthorizationGate, checkpoints CheckpointStore, cancellations CancellationStore, opts ...Option) *Manager {
	m := &Manager{
		ledger:        l,
		content:       c,
		gate:          gate,
		checkpoints:   checkpoints,
		cancellations: cancellations,
		locks:         platformsync.NewShardedMutex(),
		concurrency:   defaultConcurrency,
		maxImageBytes: defaultMaxImageBytes,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// lock serializes mutations of one request inside this process. Across
// processes the ledger decides.
func (m *Manager) lock(id domain.RequestID) func() {
	return m.locks.Hold(id.String())
}

func (m *Manager) user(ctx context.Context, id domain.Identity) (ledger.UserRecord, error) {
	rec, err := m.ledger.GetUser(ctx, id)
	if err != nil {
		return ledger.UserRecord{}, dErrors.LedgerUnavailable(err, "read user record")
	}
	return rec, nil
}

func hasRole(rec ledger.UserRecord, role domain.Role) bool {
	return rec.Registered && rec.Role == role
}

// load reads a request. A missing id is reported as stale when the
// cancellation history knows it and as not found otherwise.
func (m *Manager) load(ctx context.Context, id domain.RequestID) (ledger.CertificateRequest, error) {
	req, err := m.ledger.CertificateRequest(ctx, id)
	if err == nil {
		return req, nil
	}
	if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		return ledger.CertificateRequest{}, dErrors.LedgerUnavailable(err, "read certificate request")
	}
	c, cerr := m.cancellations.Get(ctx, id)
	switch {
	case cerr == nil:
		return ledger.CertificateRequest{}, &dErrors.Error{
			Code:    dErrors.CodeStaleRequest,
			Message: fmt.Sprintf("certificate request %d was %s", id, c.Kind),
			Err:     err,
		}
	case !errors.Is(cerr, sentinel.ErrNotFound):
		m.warn(ctx, "cancellation_lookup_failed", "request", id, "error", cerr)
	}
	return ledger.CertificateRequest{}, dErrors.Wrap(err, dErrors.CodeNotFound, fmt.Sprintf("certificate request %d not found", id))
}

// loadPending reads a request that a mutation is about to act on. Missing
// and approved requests are stale.
func (m *Manager) loadPending(ctx context.Context, id domain.RequestID) (ledger.CertificateRequest, error) {
	req, err := m.load(ctx, id)
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return ledger.CertificateRequest{}, &dErrors.Error{
			Code:    dErrors.CodeStaleRequest,
			Message: fmt.Sprintf("certificate request %d does not exist", id),
			Err:     err,
		}
	}
	if err != nil {
		return ledger.CertificateRequest{}, err
	}
	if req.Approved {
		return ledger.CertificateRequest{}, dErrors.New(dErrors.CodeStaleRequest, fmt.Sprintf("certificate request %d is already approved", id))
	}
	return req, nil
}

// recheck runs after the ledger rejected a write and reports whether the
// request went stale in the meantime. nil means the rejection had another
// cause.
func (m *Manager) recheck(ctx context.Context, id domain.RequestID) error {
	_, err := m.loadPending(ctx, id)
	if dErrors.HasCode(err, dErrors.CodeStaleRequest) {
		return err
	}
	return nil
}

func (m *Manager) observe(op string, err error) {
	if m.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(dErrors.CodeOf(err))
	}
	m.metrics.ObserveOperation(op, outcome)
}

func (m *Manager) emit(ctx context.Context, event audit.Event) {
	if m.auditor == nil {
		return
	}
	if err := m.auditor.Emit(ctx, event); err != nil {
		m.warn(ctx, "audit_emit_failed", "action", event.Action, "error", err)
	}
}

func (m *Manager) info(ctx context.Context, msg string, args ...any) {
	if m.logger != nil {
		m.logger.InfoContext(ctx, msg, args...)
	}
}

func (m *Manager) warn(ctx context.Context, msg string, args ...any) {
	if m.logger != nil {
		m.logger.WarnContext(ctx, msg, args...)
	}
}
