package evm

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

var (
	//go:embed abi/UserRegistry.json
	userRegistryJSON []byte
	//go:embed abi/CertificateRegistry.json
	certificateRegistryJSON []byte
)

const (
	eventCertificateRequested = "CertificateRequested"
	eventCertificateIssued    = "CertificateIssued"
)

// Contracts holds the parsed registry interfaces.
type Contracts struct {
	UserRegistry        abi.ABI
	CertificateRegistry abi.ABI
}

// LoadContracts parses the embedded registry ABIs.
func LoadContracts() (Contracts, error) {
	users, err := abi.JSON(bytes.NewReader(userRegistryJSON))
	if err != nil {
		return Contracts{}, fmt.Errorf("parse user registry abi: %w", err)
	}
	certs, err := abi.JSON(bytes.NewReader(certificateRegistryJSON))
	if err != nil {
		return Contracts{}, fmt.Errorf("parse certificate registry abi: %w", err)
	}
	return Contracts{UserRegistry: users, CertificateRegistry: certs}, nil
}
