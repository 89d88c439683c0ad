package content

// StudentProfile is the registration blob of a student.
type StudentProfile struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	StudentID string `json:"studentId"`
}

// ProviderProfile is the registration blob of an institute. DocumentCID
// points at the accreditation document uploaded before the profile.
type ProviderProfile struct {
	InstitutionName     string `json:"institutionName"`
	AccreditationNumber string `json:"accreditationNumber"`
	DocumentCID         string `json:"documentCid"`
}

// CertificateMetadata is the token metadata referenced by a certificate's
// token URI.
type CertificateMetadata struct {
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	Image           string           `json:"image"`
	CertificateType string           `json:"certificateType"`
	Institute       InstituteSummary `json:"institute"`
	Attributes      []Attribute      `json:"attributes,omitempty"`
}

// InstituteSummary copies the issuing institute's registered profile.
type InstituteSummary struct {
	Identity            string `json:"identity"`
	InstitutionName     string `json:"institutionName"`
	AccreditationNumber string `json:"accreditationNumber"`
	DocumentCID         string `json:"documentCid,omitempty"`
}

type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}
