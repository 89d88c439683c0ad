package ledger

import (
	"time"

	"certflow/pkg/domain"
)

// UserRecord is the registry entry for one identity. Role is RoleUnset for
// identities that never registered.
type UserRecord struct {
	Identity    domain.Identity
	Role        domain.Role
	Registered  bool
	MetadataRef string
}

// CertificateRequest is a pending or approved request. Cancelled requests are
// deleted on the ledger and read back as not found.
type CertificateRequest struct {
	ID                 domain.RequestID
	Student            domain.Identity
	Institute          domain.Identity
	Name               string
	Message            string
	StudentMetadataRef string
	Approved           bool
}

// CertificateDetails is the immutable ledger record of a minted certificate.
// InstitutionName is empty on ledgers that keep it only in metadata.
type CertificateDetails struct {
	ID              domain.CertificateID
	Name            string
	Institute       domain.Identity
	InstitutionName string
	IssueDate       time.Time
	CertificateType string
	Holder          domain.Identity
}

// RequestInput carries the arguments of requestCertificate.
type RequestInput struct {
	Institute          domain.Identity
	Name               string
	Message            string
	StudentMetadataRef string
}

// ApprovalInput carries the arguments of approveCertificateRequest.
type ApprovalInput struct {
	RequestID       domain.RequestID
	CertificateType string
	MetadataRef     string
	InstitutionName string
}

// Receipt describes a confirmed write. On an unconfirmed write TxHash is set
// and the accompanying error carries the unconfirmed code.
type Receipt struct {
	TxHash        string
	BlockNumber   uint64
	RequestID     domain.RequestID
	CertificateID domain.CertificateID
}
