// Package models holds the certificate catalog view types.
package models

import (
	"time"

	"certflow/internal/content"
	"certflow/internal/ledger"
	"certflow/pkg/domain"
)

// Certificate is a minted certificate with its metadata dereferenced when
// possible. MetadataError carries the error code when it was not.
// DetailsError is set on listing entries whose ledger record could not be
// read; only ID and Holder are populated then.
type Certificate struct {
	ID              domain.CertificateID
	Name            string
	Institute       domain.Identity
	InstitutionName string
	IssueDate       time.Time
	CertificateType string
	Holder          domain.Identity
	MetadataRef     string
	Metadata        *content.CertificateMetadata
	MetadataError   string
	DetailsError    string
}

func FromDetails(d ledger.CertificateDetails, metadataRef string) Certificate {
	return Certificate{
		ID:              d.ID,
		Name:            d.Name,
		Institute:       d.Institute,
		InstitutionName: d.InstitutionName,
		IssueDate:       d.IssueDate,
		CertificateType: d.CertificateType,
		Holder:          d.Holder,
		MetadataRef:     metadataRef,
	}
}

// MetadataAvailable reports whether the rich metadata was resolved.
func (c Certificate) MetadataAvailable() bool {
	return c.Metadata != nil
}

// Degraded reports whether the ledger record itself was unreadable.
func (c Certificate) Degraded() bool {
	return c.DetailsError != ""
}

// Verification is the issuer check of a certificate against the current
// authorization set.
type Verification struct {
	CertificateID    domain.CertificateID
	Issuer           domain.Identity
	IssuerAuthorized bool
	CheckedAt        time.Time
}
