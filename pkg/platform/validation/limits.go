package validation

import (
	"fmt"
	"strings"

	dErrors "certflow/pkg/domain-errors"
)

// HTTP body limits
const (
	// MaxBodySize is the maximum allowed JSON request body size (64 KB).
	MaxBodySize = 64 * 1024
)

// String element length limits
const (
	// MaxCertificateNameLength bounds requested and issued certificate names.
	MaxCertificateNameLength = 200

	// MaxCertificateTypeLength bounds the certificate type label.
	MaxCertificateTypeLength = 100

	// MaxMessageLength bounds the student's note attached to a request.
	MaxMessageLength = 2000

	// MaxDescriptionLength bounds the certificate description in metadata.
	MaxDescriptionLength = 4000

	// MaxReasonLength bounds an institute's rejection reason.
	MaxReasonLength = 500

	// MaxEmailLength is the maximum length of an email address.
	MaxEmailLength = 255

	// MaxProfileFieldLength bounds free-text profile fields.
	MaxProfileFieldLength = 200
)

// CheckRequired fails when value is blank after trimming.
func CheckRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return dErrors.New(dErrors.CodeValidation, fieldName+" is required")
	}
	return nil
}

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}

// CheckBlobSize validates a binary payload is present and within max bytes.
func CheckBlobSize(fieldName string, data []byte, max int64) error {
	if len(data) == 0 {
		return dErrors.New(dErrors.CodeValidation, fieldName+" is required")
	}
	if max > 0 && int64(len(data)) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max size of %d bytes", fieldName, max))
	}
	return nil
}
