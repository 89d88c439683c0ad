package domain

import (
	"fmt"
	"strconv"
)

// RequestID identifies a certificate request. Ids are assigned sequentially by
// the ledger starting at 1; zero is never a valid request.
type RequestID uint64

// ParseRequestID parses a decimal request id.
func ParseRequestID(s string) (RequestID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid request id: %s", s)
	}
	if n == 0 {
		return 0, fmt.Errorf("request id must be at least 1")
	}
	return RequestID(n), nil
}

func (id RequestID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// IsNil returns true for the zero id.
func (id RequestID) IsNil() bool {
	return id == 0
}

// CertificateID identifies a minted certificate (token id on the ledger).
type CertificateID uint64

// ParseCertificateID parses a decimal certificate id.
func ParseCertificateID(s string) (CertificateID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid certificate id: %s", s)
	}
	return CertificateID(n), nil
}

func (id CertificateID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}
