package identity

import (
	"context"
	"sync"

	"certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/requestcontext"
)

// SignerSource yields the Signer acting for an authenticated identity.
type SignerSource interface {
	SignerFor(ctx context.Context, id domain.Identity) (Signer, error)
}

// KeyringSource serves custodial signers from a keyring, caching opened keys
// because scrypt makes every Open deliberately slow.
type KeyringSource struct {
	keyring *Keyring

	mu     sync.Mutex
	opened map[domain.Identity]*KeySigner
}

func NewKeyringSource(k *Keyring) *KeyringSource {
	return &KeyringSource{keyring: k, opened: make(map[domain.Identity]*KeySigner)}
}

func (s *KeyringSource) SignerFor(_ context.Context, id domain.Identity) (Signer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if signer, ok := s.opened[id]; ok {
		return signer, nil
	}
	signer, err := s.keyring.Load(id)
	if err != nil {
		return nil, err
	}
	s.opened[id] = signer
	return signer, nil
}

// AssertedSource trusts the session and hands out AssertedSigners.
type AssertedSource struct{}

func (AssertedSource) SignerFor(_ context.Context, id domain.Identity) (Signer, error) {
	return NewAssertedSigner(id), nil
}

// CallerSigner returns the signer for the authenticated identity in ctx.
func CallerSigner(ctx context.Context, src SignerSource) (Signer, error) {
	caller := requestcontext.Identity(ctx)
	if caller.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	signer, err := src.SignerFor(ctx, caller)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeForbidden, "no signing key available for caller")
	}
	return signer, nil
}
