// Package identity provides the signing capability bound to an Identity.
package identity

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"

	"certflow/pkg/domain"
)

// ErrCannotSign is returned by signers that assert an identity without
// holding its key.
var ErrCannotSign = errors.New("signer cannot produce signatures")

// Signer is the capability to act as an identity.
type Signer interface {
	Identity() domain.Identity
	// SignDigest returns a 65-byte [R || S || V] signature with V in {0,1}.
	SignDigest(digest []byte) ([]byte, error)
}

// KeySigner signs with a secp256k1 private key.
type KeySigner struct {
	key *ecdsa.PrivateKey
	id  domain.Identity
}

func NewKeySigner(key *ecdsa.PrivateKey) *KeySigner {
	return &KeySigner{
		key: key,
		id:  domain.IdentityFromAddress(crypto.PubkeyToAddress(key.PublicKey)),
	}
}

// KeySignerFromHex parses a hex private key, with or without 0x prefix.
func KeySignerFromHex(hexKey string) (*KeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return NewKeySigner(key), nil
}

func (s *KeySigner) Identity() domain.Identity { return s.id }

func (s *KeySigner) SignDigest(digest []byte) ([]byte, error) {
	return crypto.Sign(digest, s.key)
}

// AssertedSigner stands for an identity proven by other means, such as an
// authenticated session, for ledgers that only need the caller's address.
type AssertedSigner struct {
	id domain.Identity
}

func NewAssertedSigner(id domain.Identity) AssertedSigner {
	return AssertedSigner{id: id}
}

func (s AssertedSigner) Identity() domain.Identity { return s.id }

func (s AssertedSigner) SignDigest([]byte) ([]byte, error) {
	return nil, ErrCannotSign
}

// SignMessage produces an EIP-191 personal signature with V in {27,28},
// the form wallets hand out.
func SignMessage(s Signer, message []byte) ([]byte, error) {
	sig, err := s.SignDigest(accounts.TextHash(message))
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// RecoverMessageSigner returns the identity that produced an EIP-191
// personal signature over message. V may be 0/1 or 27/28.
func RecoverMessageSigner(message, signature []byte) (domain.Identity, error) {
	if len(signature) != crypto.SignatureLength {
		return "", fmt.Errorf("signature must be %d bytes", crypto.SignatureLength)
	}
	sig := make([]byte, len(signature))
	copy(sig, signature)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return "", fmt.Errorf("invalid signature recovery id")
	}
	pub, err := crypto.SigToPub(accounts.TextHash(message), sig)
	if err != nil {
		return "", fmt.Errorf("recover public key: %w", err)
	}
	return domain.IdentityFromAddress(crypto.PubkeyToAddress(*pub)), nil
}

// VerifyMessage reports whether signature over message was produced by id.
func VerifyMessage(id domain.Identity, message, signature []byte) bool {
	recovered, err := RecoverMessageSigner(message, signature)
	if err != nil {
		return false
	}
	return recovered.Equal(id)
}
