package ledger

import (
	"context"
	"encoding/binary"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/crypto"

	"certflow/internal/identity"
	"certflow/pkg/domain"
)

// Backend is one implementation of the user and certificate registries.
// Implementations return pkg/platform/sentinel errors:
//   - ErrNotFound for absent requests and certificates
//   - ErrRejected when the registry refuses a write
//   - ErrUnconfirmed when a write was submitted without a receipt
//   - ErrUnavailable when the registry cannot be reached
type Backend interface {
	GetUser(ctx context.Context, id domain.Identity) (UserRecord, error)
	IsUserRegistered(ctx context.Context, id domain.Identity) (bool, error)
	GetAllUsers(ctx context.Context) ([]domain.Identity, error)
	RegisterUser(ctx context.Context, signer identity.Signer, role domain.Role, metadataRef string) (Receipt, error)

	Owner(ctx context.Context) (domain.Identity, error)
	IsAuthorizedInstitute(ctx context.Context, institute domain.Identity) (bool, error)
	AuthorizeInstitute(ctx context.Context, signer identity.Signer, institute domain.Identity) (Receipt, error)
	RevokeInstitute(ctx context.Context, signer identity.Signer, institute domain.Identity) (Receipt, error)

	RequestCounter(ctx context.Context) (uint64, error)
	CertificateRequest(ctx context.Context, id domain.RequestID) (CertificateRequest, error)
	RequestCertificate(ctx context.Context, signer identity.Signer, in RequestInput) (Receipt, error)
	ApproveCertificateRequest(ctx context.Context, signer identity.Signer, in ApprovalInput) (Receipt, error)
	CancelCertificateRequest(ctx context.Context, signer identity.Signer, id domain.RequestID) (Receipt, error)

	StudentCertificates(ctx context.Context, holder domain.Identity) ([]domain.CertificateID, error)
	CertificateDetails(ctx context.Context, id domain.CertificateID) (CertificateDetails, error)
	TokenURI(ctx context.Context, id domain.CertificateID) (string, error)

	Health(ctx context.Context) error
}

var txSeq atomic.Uint64

// SimulatedTxHash derives a unique transaction hash for ledgers without a
// chain, so receipts look the same across backends.
func SimulatedTxHash(op string, caller domain.Identity) string {
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], txSeq.Add(1))
	return crypto.Keccak256Hash([]byte(op), caller.Address().Bytes(), seq[:]).Hex()
}
