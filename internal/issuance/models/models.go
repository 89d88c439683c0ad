// Package models holds the certificate request lifecycle types.
package models

import (
	"strings"
	"time"

	"certflow/internal/ledger"
	"certflow/pkg/domain"
	"certflow/pkg/platform/validation"
)

// Status is the lifecycle state of a request as seen by this service.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
)

// Request is a certificate request read from the ledger.
type Request struct {
	ID                 domain.RequestID
	Student            domain.Identity
	Institute          domain.Identity
	Name               string
	Message            string
	StudentMetadataRef string
	Status             Status
}

func FromLedger(r ledger.CertificateRequest) Request {
	status := StatusPending
	if r.Approved {
		status = StatusApproved
	}
	return Request{
		ID:                 r.ID,
		Student:            r.Student,
		Institute:          r.Institute,
		Name:               r.Name,
		Message:            r.Message,
		StudentMetadataRef: r.StudentMetadataRef,
		Status:             status,
	}
}

func (r Request) IsPending() bool {
	return r.Status == StatusPending
}

// Submission is what a student sends to open a request.
type Submission struct {
	Institute domain.Identity
	Name      string
	Message   string
}

func (s *Submission) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Message = strings.TrimSpace(s.Message)
}

func (s Submission) Validate() error {
	if err := validation.CheckRequired("name", s.Name); err != nil {
		return err
	}
	if err := validation.CheckStringLength("name", s.Name, validation.MaxCertificateNameLength); err != nil {
		return err
	}
	return validation.CheckStringLength("message", s.Message, validation.MaxMessageLength)
}

// Approval is what an institute sends to issue a certificate.
type Approval struct {
	CertificateType string
	Name            string
	Description     string
	Image           []byte
}

// Validate rejects blank or oversized fields. Values are not trimmed: the
// issued metadata carries exactly what the institute sent.
func (a Approval) Validate(maxImageBytes int64) error {
	if err := validation.CheckRequired("certificate_type", a.CertificateType); err != nil {
		return err
	}
	if err := validation.CheckStringLength("certificate_type", a.CertificateType, validation.MaxCertificateTypeLength); err != nil {
		return err
	}
	if err := validation.CheckRequired("name", a.Name); err != nil {
		return err
	}
	if err := validation.CheckStringLength("name", a.Name, validation.MaxCertificateNameLength); err != nil {
		return err
	}
	if err := validation.CheckStringLength("description", a.Description, validation.MaxDescriptionLength); err != nil {
		return err
	}
	return validation.CheckBlobSize("image", a.Image, maxImageBytes)
}

// Checkpoint records the uploads an approval has already confirmed so a
// retry submits only what is missing.
type Checkpoint struct {
	RequestID       domain.RequestID `json:"request_id"`
	Institute       domain.Identity  `json:"institute"`
	ImageRef        string           `json:"image_ref"`
	MetadataRef     string           `json:"metadata_ref,omitempty"`
	CertificateType string           `json:"certificate_type"`
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	InstitutionName string           `json:"institution_name"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Matches reports whether the checkpoint was produced by the same institute
// for the same approval inputs. imageRef is the reference the new image
// would get.
func (c Checkpoint) Matches(institute domain.Identity, in Approval, imageRef string) bool {
	return c.Institute.Equal(institute) &&
		c.CertificateType == in.CertificateType &&
		c.Name == in.Name &&
		c.Description == in.Description &&
		c.ImageRef == imageRef
}

// Issued is the outcome of an approval. On a partial failure the refs are
// set and CertificateID is zero.
type Issued struct {
	RequestID     domain.RequestID
	CertificateID domain.CertificateID
	Student       domain.Identity
	Institute     domain.Identity
	ImageRef      string
	MetadataRef   string
	TxHash        string
}

// CancelKind distinguishes a student withdrawal from an institute rejection.
type CancelKind string

const (
	CancelWithdrawn CancelKind = "withdrawn"
	CancelRejected  CancelKind = "rejected"
)

// Cancellation is the off-ledger record of a cancelled request.
type Cancellation struct {
	RequestID   domain.RequestID
	Student     domain.Identity
	Institute   domain.Identity
	Kind        CancelKind
	Note        string
	CancelledBy domain.Identity
	TxHash      string
	CancelledAt time.Time
}
