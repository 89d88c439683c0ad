package testutil

import (
	"crypto/ecdsa"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"

	"certflow/pkg/domain"
)

// Fixed identities for deterministic test data.
var (
	Admin     = domain.MustIdentity("0xa000000000000000000000000000000000000001")
	Institute = domain.MustIdentity("0xb000000000000000000000000000000000000001")
	Other     = domain.MustIdentity("0xb000000000000000000000000000000000000002")
	Student   = domain.MustIdentity("0xc000000000000000000000000000000000000001")
	Student2  = domain.MustIdentity("0xc000000000000000000000000000000000000002")
	Stranger  = domain.MustIdentity("0xd000000000000000000000000000000000000001")
)

// Key is a freshly generated secp256k1 key and the identity it controls.
type Key struct {
	Private  *ecdsa.PrivateKey
	Identity domain.Identity
}

// NewKey generates a key pair, failing the test on error.
func NewKey(t testing.TB) Key {
	t.Helper()
	pk, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return Key{
		Private:  pk,
		Identity: domain.IdentityFromAddress(crypto.PubkeyToAddress(pk.PublicKey)),
	}
}
