package domain

import (
	"fmt"
	"strings"
)

// Role is the role recorded on the ledger at registration time.
// Invariant: only RoleStudent and RoleProvider are ever written; RoleUnset is
// what the ledger reports for identities that never registered.
type Role string

const (
	RoleUnset    Role = ""
	RoleStudent  Role = "student"
	RoleProvider Role = "provider"
)

// ParseRole validates a role supplied by a caller. The empty role is rejected.
func ParseRole(s string) (Role, error) {
	r := RoleFromLedger(s)
	if r == RoleUnset {
		return RoleUnset, fmt.Errorf("invalid role: %q", s)
	}
	return r, nil
}

// RoleFromLedger maps the raw ledger role string into a Role. Ledger strings
// are compared case-insensitively; unknown values collapse to RoleUnset.
func RoleFromLedger(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleStudent:
		return RoleStudent
	case RoleProvider:
		return RoleProvider
	default:
		return RoleUnset
	}
}

// IsSet reports whether the role is one of the registrable roles.
func (r Role) IsSet() bool {
	return r == RoleStudent || r == RoleProvider
}

func (r Role) String() string {
	return string(r)
}
