// Package models holds role resolution and registration types.
package models

import (
	"strings"
	"time"

	"certflow/internal/content"
	"certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
)

// Kind is the closed set of roles an identity can resolve to.
type Kind string

const (
	KindUnregistered  Kind = "unregistered"
	KindStudent       Kind = "student"
	KindProvider      Kind = "provider"
	KindAdministrator Kind = "administrator"
)

func (k Kind) String() string {
	return string(k)
}

// Resolution is what the ledger says about one identity at ResolvedAt.
// Invariant: Registered is true iff Role is set. Authorized is only
// meaningful for providers.
type Resolution struct {
	Identity        domain.Identity `json:"identity"`
	Kind            Kind            `json:"kind"`
	Registered      bool            `json:"registered"`
	Role            domain.Role     `json:"role,omitempty"`
	IsAdministrator bool            `json:"is_administrator"`
	Authorized      bool            `json:"authorized"`
	MetadataRef     string          `json:"metadata_ref,omitempty"`
	ResolvedAt      time.Time       `json:"resolved_at"`
}

// IsStudent reports a registered student. The administrator may also hold a
// registered role, so this checks Role rather than Kind.
func (r Resolution) IsStudent() bool {
	return r.Registered && r.Role == domain.RoleStudent
}

func (r Resolution) IsProvider() bool {
	return r.Registered && r.Role == domain.RoleProvider
}

// ProviderStatus is "authorized" or "pending" for providers, empty otherwise.
func (r Resolution) ProviderStatus() string {
	if !r.IsProvider() {
		return ""
	}
	if r.Authorized {
		return "authorized"
	}
	return "pending"
}

// Registration is the outcome of a successful registerUser write.
type Registration struct {
	Identity    domain.Identity
	Role        domain.Role
	MetadataRef string
	DocumentRef string
	TxHash      string
}

// Profile is a registered user's decoded metadata blob. Exactly one of
// Student and Provider is set.
type Profile struct {
	Identity    domain.Identity
	Role        domain.Role
	MetadataRef string
	Student     *content.StudentProfile
	Provider    *content.ProviderProfile
}

// ValidateStudentProfile trims and checks a student profile.
func ValidateStudentProfile(p *content.StudentProfile) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.StudentID = strings.TrimSpace(p.StudentID)
	if p.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if p.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if !strings.Contains(p.Email, "@") {
		return dErrors.New(dErrors.CodeValidation, "email is invalid")
	}
	if p.StudentID == "" {
		return dErrors.New(dErrors.CodeValidation, "student_id is required")
	}
	return nil
}

// ValidateProviderProfile trims and checks a provider profile. DocumentCID
// is filled by the registrar and not checked here.
func ValidateProviderProfile(p *content.ProviderProfile) error {
	p.InstitutionName = strings.TrimSpace(p.InstitutionName)
	p.AccreditationNumber = strings.TrimSpace(p.AccreditationNumber)
	if p.InstitutionName == "" {
		return dErrors.New(dErrors.CodeValidation, "institution_name is required")
	}
	if p.AccreditationNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "accreditation_number is required")
	}
	return nil
}
