// Package memory simulates the registries in process.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"certflow/internal/identity"
	"certflow/internal/ledger"
	"certflow/pkg/domain"
	"certflow/pkg/platform/sentinel"
)

type certificate struct {
	details  ledger.CertificateDetails
	tokenURI string
}

// Backend keeps registry state in maps guarded by one mutex, which gives
// every write the total order a chain would.
type Backend struct {
	mu sync.RWMutex

	owner      domain.Identity
	users      map[domain.Identity]ledger.UserRecord
	userOrder  []domain.Identity
	authorized map[domain.Identity]bool

	requestCounter uint64
	requests       map[domain.RequestID]ledger.CertificateRequest

	tokenCounter uint64
	certificates map[domain.CertificateID]certificate
	byHolder     map[domain.Identity][]domain.CertificateID

	block uint64
	now   func() time.Time
}

type Option func(*Backend)

// WithClock overrides the issue date source.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
	}
}

// New creates an empty ledger administered by owner.
func New(owner domain.Identity, opts ...Option) *Backend {
	b := &Backend{
		owner:        owner,
		users:        make(map[domain.Identity]ledger.UserRecord),
		authorized:   make(map[domain.Identity]bool),
		requests:     make(map[domain.RequestID]ledger.CertificateRequest),
		certificates: make(map[domain.CertificateID]certificate),
		byHolder:     make(map[domain.Identity][]domain.CertificateID),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) receipt(op string, caller domain.Identity) ledger.Receipt {
	b.block++
	return ledger.Receipt{TxHash: ledger.SimulatedTxHash(op, caller), BlockNumber: b.block}
}

func (b *Backend) GetUser(_ context.Context, id domain.Identity) (ledger.UserRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if rec, ok := b.users[id]; ok {
		return rec, nil
	}
	return ledger.UserRecord{Identity: id}, nil
}

func (b *Backend) IsUserRegistered(_ context.Context, id domain.Identity) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.users[id].Registered, nil
}

func (b *Backend) GetAllUsers(_ context.Context) ([]domain.Identity, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.userOrder), nil
}

func (b *Backend) RegisterUser(_ context.Context, signer identity.Signer, role domain.Role, metadataRef string) (ledger.Receipt, error) {
	caller := signer.Identity()
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := ledger.CheckRegistration(b.users[caller].Registered, role, metadataRef); err != nil {
		return ledger.Receipt{}, err
	}
	b.users[caller] = ledger.UserRecord{
		Identity:    caller,
		Role:        role,
		Registered:  true,
		MetadataRef: metadataRef,
	}
	b.userOrder = append(b.userOrder, caller)
	return b.receipt("registerUser", caller), nil
}

func (b *Backend) Owner(_ context.Context) (domain.Identity, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.owner, nil
}

func (b *Backend) IsAuthorizedInstitute(_ context.Context, institute domain.Identity) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.authorized[institute], nil
}

func (b *Backend) AuthorizeInstitute(_ context.Context, signer identity.Signer, institute domain.Identity) (ledger.Receipt, error) {
	return b.setAuthorized("authorizeInstitute", signer, institute, true)
}

func (b *Backend) RevokeInstitute(_ context.Context, signer identity.Signer, institute domain.Identity) (ledger.Receipt, error) {
	return b.setAuthorized("revokeInstitute", signer, institute, false)
}

func (b *Backend) setAuthorized(op string, signer identity.Signer, institute domain.Identity, value bool) (ledger.Receipt, error) {
	caller := signer.Identity()
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := ledger.CheckOwner(b.owner, caller); err != nil {
		return ledger.Receipt{}, err
	}
	if value {
		b.authorized[institute] = true
	} else {
		delete(b.authorized, institute)
	}
	return b.receipt(op, caller), nil
}

func (b *Backend) RequestCounter(_ context.Context) (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.requestCounter, nil
}

func (b *Backend) CertificateRequest(_ context.Context, id domain.RequestID) (ledger.CertificateRequest, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	req, ok := b.requests[id]
	if !ok {
		return ledger.CertificateRequest{}, fmt.Errorf("certificate request %d: %w", id, sentinel.ErrNotFound)
	}
	return req, nil
}

func (b *Backend) RequestCertificate(_ context.Context, signer identity.Signer, in ledger.RequestInput) (ledger.Receipt, error) {
	caller := signer.Identity()
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := ledger.CheckRequest(b.users[caller], in); err != nil {
		return ledger.Receipt{}, err
	}
	b.requestCounter++
	id := domain.RequestID(b.requestCounter)
	b.requests[id] = ledger.CertificateRequest{
		ID:                 id,
		Student:            caller,
		Institute:          in.Institute,
		Name:               in.Name,
		Message:            in.Message,
		StudentMetadataRef: in.StudentMetadataRef,
	}
	r := b.receipt("requestCertificate", caller)
	r.RequestID = id
	return r, nil
}

func (b *Backend) ApproveCertificateRequest(_ context.Context, signer identity.Signer, in ledger.ApprovalInput) (ledger.Receipt, error) {
	caller := signer.Identity()
	b.mu.Lock()
	defer b.mu.Unlock()

	req, ok := b.requests[in.RequestID]
	if !ok {
		return ledger.Receipt{}, fmt.Errorf("%w: request does not exist", sentinel.ErrRejected)
	}
	if err := ledger.CheckApproval(req, caller, b.authorized[caller], in); err != nil {
		return ledger.Receipt{}, err
	}

	req.Approved = true
	b.requests[in.RequestID] = req

	b.tokenCounter++
	certID := domain.CertificateID(b.tokenCounter)
	b.certificates[certID] = certificate{
		details: ledger.CertificateDetails{
			ID:              certID,
			Name:            req.Name,
			Institute:       caller,
			InstitutionName: in.InstitutionName,
			IssueDate:       b.now().UTC().Truncate(time.Second),
			CertificateType: in.CertificateType,
			Holder:          req.Student,
		},
		tokenURI: in.MetadataRef,
	}
	b.byHolder[req.Student] = append(b.byHolder[req.Student], certID)

	r := b.receipt("approveCertificateRequest", caller)
	r.RequestID = in.RequestID
	r.CertificateID = certID
	return r, nil
}

func (b *Backend) CancelCertificateRequest(_ context.Context, signer identity.Signer, id domain.RequestID) (ledger.Receipt, error) {
	caller := signer.Identity()
	b.mu.Lock()
	defer b.mu.Unlock()

	req, ok := b.requests[id]
	if !ok {
		return ledger.Receipt{}, fmt.Errorf("%w: request does not exist", sentinel.ErrRejected)
	}
	if err := ledger.CheckCancel(req, caller); err != nil {
		return ledger.Receipt{}, err
	}
	delete(b.requests, id)

	r := b.receipt("cancelCertificateRequest", caller)
	r.RequestID = id
	return r, nil
}

func (b *Backend) StudentCertificates(_ context.Context, holder domain.Identity) ([]domain.CertificateID, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.byHolder[holder]), nil
}

func (b *Backend) CertificateDetails(_ context.Context, id domain.CertificateID) (ledger.CertificateDetails, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.certificates[id]
	if !ok {
		return ledger.CertificateDetails{}, fmt.Errorf("certificate %d: %w", id, sentinel.ErrNotFound)
	}
	return c.details, nil
}

func (b *Backend) TokenURI(_ context.Context, id domain.CertificateID) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.certificates[id]
	if !ok {
		return "", fmt.Errorf("certificate %d: %w", id, sentinel.ErrNotFound)
	}
	return c.tokenURI, nil
}

func (b *Backend) Health(context.Context) error {
	return nil
}

var _ ledger.Backend = (*Backend)(nil)
