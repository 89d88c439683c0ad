package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Identity is an address-based principal. The canonical form is the
// lower-case 0x-prefixed hex address so comparisons never depend on
// checksum casing.
//
// Usage: construct via ParseIdentity at trust boundaries; direct casting
// bypasses normalization.
type Identity string

// ParseIdentity validates and normalizes an address string.
func ParseIdentity(s string) (Identity, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", fmt.Errorf("identity is required")
	}
	if !common.IsHexAddress(trimmed) {
		return "", fmt.Errorf("invalid identity address: %s", trimmed)
	}
	return IdentityFromAddress(common.HexToAddress(trimmed)), nil
}

// MustIdentity parses s and panics on failure. Intended for tests and constants.
func MustIdentity(s string) Identity {
	id, err := ParseIdentity(s)
	if err != nil {
		panic(err)
	}
	return id
}

// IdentityFromAddress converts a ledger address into its canonical identity.
func IdentityFromAddress(addr common.Address) Identity {
	return Identity(strings.ToLower(addr.Hex()))
}

// Address returns the ledger address of the identity.
func (i Identity) Address() common.Address {
	return common.HexToAddress(string(i))
}

// Equal compares identities case-insensitively.
func (i Identity) Equal(other Identity) bool {
	return strings.EqualFold(string(i), string(other))
}

func (i Identity) String() string {
	return string(i)
}

// IsNil returns true if the identity is empty.
func (i Identity) IsNil() bool {
	return i == ""
}

// IsZeroAddress reports whether the identity is the all-zero address, which
// the ledger returns for unset identity slots.
func (i Identity) IsZeroAddress() bool {
	return i.IsNil() || i.Address() == (common.Address{})
}
