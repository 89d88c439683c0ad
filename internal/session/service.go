// Package session turns a wallet signature into a bearer session.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"certflow/internal/identity"
	"certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/platform/audit"
	"certflow/pkg/platform/sentinel"
	"certflow/pkg/requestcontext"
)

// ChallengeStore keeps outstanding challenges. A newer challenge for the
// same identity replaces the older one.
type ChallengeStore interface {
	Save(ctx context.Context, c Challenge) error
	// Consume returns and deletes the identity's challenge. Returns
	// sentinel.ErrNotFound when none is outstanding.
	Consume(ctx context.Context, id domain.Identity) (Challenge, error)
}

// RevocationStore remembers logged-out token ids until the token would have
// expired anyway.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type Service struct {
	challenges   ChallengeStore
	revocations  RevocationStore
	tokens       *TokenService
	challengeTTL time.Duration
	auditor      audit.Emitter
	logger       *slog.Logger
}

type Option func(*Service)

func WithChallengeTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.challengeTTL = ttl
		}
	}
}

func WithAuditor(a audit.Emitter) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(challenges ChallengeStore, revocations RevocationStore, tokens *TokenService, opts ...Option) *Service {
	s := &Service{
		challenges:   challenges,
		revocations:  revocations,
		tokens:       tokens,
		challengeTTL: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Challenge issues a fresh nonce message for id to sign.
func (s *Service) Challenge(ctx context.Context, id domain.Identity) (Challenge, error) {
	if id.IsNil() || id.IsZeroAddress() {
		return Challenge{}, dErrors.New(dErrors.CodeInvalidInput, "identity is required")
	}
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return Challenge{}, dErrors.Wrap(err, dErrors.CodeInternal, "generate nonce")
	}
	now := requestcontext.Now(ctx).UTC()
	c := Challenge{
		Identity:  id,
		Nonce:     hex.EncodeToString(nonce),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.challengeTTL),
	}
	c.Message = ChallengeMessage(c)
	if err := s.challenges.Save(ctx, c); err != nil {
		return Challenge{}, dErrors.Wrap(err, dErrors.CodeGatewayUnavailable, "store challenge")
	}
	return c, nil
}

// ChallengeMessage renders the text the wallet signs.
func ChallengeMessage(c Challenge) string {
	return fmt.Sprintf("Sign in to certflow\n\nIdentity: %s\nNonce: %s\nIssued: %s\nExpires: %s",
		c.Identity, c.Nonce, c.IssuedAt.Format(time.RFC3339), c.ExpiresAt.Format(time.RFC3339))
}

// Login verifies signature over the outstanding challenge and issues a
// session. The challenge is consumed whether or not the signature matches.
func (s *Service) Login(ctx context.Context, id domain.Identity, signature []byte) (Session, error) {
	c, err := s.challenges.Consume(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		s.loginFailed(ctx, id, "no outstanding challenge")
		return Session{}, dErrors.New(dErrors.CodeUnauthorized, "no outstanding challenge for identity")
	}
	if err != nil {
		return Session{}, dErrors.Wrap(err, dErrors.CodeGatewayUnavailable, "load challenge")
	}
	if c.Expired(requestcontext.Now(ctx)) {
		s.loginFailed(ctx, id, "challenge expired")
		return Session{}, dErrors.New(dErrors.CodeUnauthorized, "challenge expired")
	}
	if !identity.VerifyMessage(id, []byte(c.Message), signature) {
		s.loginFailed(ctx, id, "signature mismatch")
		return Session{}, dErrors.New(dErrors.CodeUnauthorized, "signature does not match identity")
	}

	token, jti, expires, err := s.tokens.Issue(ctx, id)
	if err != nil {
		return Session{}, err
	}
	s.emit(ctx, audit.Event{
		Actor:     id,
		Action:    audit.ActionSessionCreated,
		Aggregate: audit.AggregateSession,
		Subject:   jti,
		Decision:  audit.DecisionGranted,
	})
	if s.logger != nil {
		s.logger.InfoContext(ctx, "session_created",
			"identity", id,
			"session_id", jti,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return Session{Identity: id, AccessToken: token, TokenID: jti, ExpiresAt: expires}, nil
}

// Logout revokes the session carried by ctx.
func (s *Service) Logout(ctx context.Context) error {
	caller, err := requireCaller(ctx)
	if err != nil {
		return err
	}
	jti := requestcontext.SessionID(ctx)
	if jti == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "no session in context")
	}
	if err := s.revocations.Revoke(ctx, jti, s.tokens.TTL()); err != nil {
		return dErrors.Wrap(err, dErrors.CodeGatewayUnavailable, "revoke session")
	}
	s.emit(ctx, audit.Event{
		Actor:     caller,
		Action:    audit.ActionSessionRevoked,
		Aggregate: audit.AggregateSession,
		Subject:   jti,
		Decision:  audit.DecisionGranted,
	})
	if s.logger != nil {
		s.logger.InfoContext(ctx, "session_revoked",
			"identity", caller,
			"session_id", jti,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return nil
}

// IsTokenRevoked adapts the revocation store to the auth middleware.
func (s *Service) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return s.revocations.IsRevoked(ctx, jti)
}

func requireCaller(ctx context.Context) (domain.Identity, error) {
	caller := requestcontext.Identity(ctx)
	if caller.IsNil() {
		return "", dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return caller, nil
}

func (s *Service) loginFailed(ctx context.Context, id domain.Identity, reason string) {
	s.emit(ctx, audit.Event{
		Actor:     id,
		Action:    audit.ActionLoginFailed,
		Aggregate: audit.AggregateSession,
		Subject:   id.String(),
		Decision:  audit.DecisionDenied,
		Reason:    reason,
	})
	if s.logger != nil {
		s.logger.WarnContext(ctx, "login_failed",
			"identity", id,
			"reason", reason,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit_emit_failed", "action", event.Action, "error", err)
	}
}
