package session_test

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks ChallengeStore,RevocationStore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"certflow/internal/identity"
	"certflow/internal/session"
	"certflow/internal/session/mocks"
	"certflow/internal/session/store"
	"certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/platform/audit"
	"certflow/pkg/platform/audit/publisher"
	"certflow/pkg/platform/sentinel"
	"certflow/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctx         context.Context
	now         time.Time
	signer      *identity.KeySigner
	challenges  *store.Memory
	revocations *store.MemoryRevocations
	tokens      *session.TokenService
	audit       *audit.InMemoryStore
	service     *session.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	key, err := crypto.GenerateKey()
	s.Require().NoError(err)
	s.signer = identity.NewKeySigner(key)
	s.now = time.Now().UTC().Truncate(time.Second)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.challenges = store.NewMemory()
	s.revocations = store.NewMemoryRevocations()
	s.tokens = session.NewTokenService("test-signing-key", "certflow", time.Hour)
	s.audit = audit.NewInMemoryStore()
	s.service = session.New(s.challenges, s.revocations, s.tokens,
		session.WithChallengeTTL(time.Minute),
		session.WithAuditor(publisher.New(s.audit)),
	)
}

func (s *ServiceSuite) sign(message string) []byte {
	sig, err := identity.SignMessage(s.signer, []byte(message))
	s.Require().NoError(err)
	return sig
}

func (s *ServiceSuite) TestLoginWithSignedChallenge() {
	c, err := s.service.Challenge(s.ctx, s.signer.Identity())
	s.Require().NoError(err)
	s.Contains(c.Message, c.Nonce)
	s.Contains(c.Message, s.signer.Identity().String())
	s.Equal(s.now.Add(time.Minute), c.ExpiresAt)

	sess, err := s.service.Login(s.ctx, s.signer.Identity(), s.sign(c.Message))
	s.Require().NoError(err)
	s.Equal(s.signer.Identity(), sess.Identity)
	s.NotEmpty(sess.TokenID)
	s.Equal(s.now.Add(time.Hour), sess.ExpiresAt)

	claims, err := s.tokens.ValidateToken(sess.AccessToken)
	s.Require().NoError(err)
	s.Equal(s.signer.Identity().String(), claims.Identity)
	s.Equal(sess.TokenID, claims.JTI)

	events, err := s.audit.ListByAction(s.ctx, audit.ActionSessionCreated)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(sess.TokenID, events[0].Subject)
}

func (s *ServiceSuite) TestChallengeIsSingleUse() {
	c, err := s.service.Challenge(s.ctx, s.signer.Identity())
	s.Require().NoError(err)
	sig := s.sign(c.Message)

	_, err = s.service.Login(s.ctx, s.signer.Identity(), sig)
	s.Require().NoError(err)

	_, err = s.service.Login(s.ctx, s.signer.Identity(), sig)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestNewerChallengeReplacesOlder() {
	first, err := s.service.Challenge(s.ctx, s.signer.Identity())
	s.Require().NoError(err)
	second, err := s.service.Challenge(s.ctx, s.signer.Identity())
	s.Require().NoError(err)
	s.NotEqual(first.Nonce, second.Nonce)

	_, err = s.service.Login(s.ctx, s.signer.Identity(), s.sign(first.Message))
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestRejectsSignatureFromAnotherKey() {
	c, err := s.service.Challenge(s.ctx, s.signer.Identity())
	s.Require().NoError(err)

	otherKey, err := crypto.GenerateKey()
	s.Require().NoError(err)
	sig, err := identity.SignMessage(identity.NewKeySigner(otherKey), []byte(c.Message))
	s.Require().NoError(err)

	_, err = s.service.Login(s.ctx, s.signer.Identity(), sig)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	events, err := s.audit.ListByAction(s.ctx, audit.ActionLoginFailed)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal("signature mismatch", events[0].Reason)
	s.Equal(audit.DecisionDenied, events[0].Decision)
}

func (s *ServiceSuite) TestRejectsExpiredChallenge() {
	c, err := s.service.Challenge(s.ctx, s.signer.Identity())
	s.Require().NoError(err)

	later := requestcontext.WithTime(context.Background(), s.now.Add(2*time.Minute))
	_, err = s.service.Login(later, s.signer.Identity(), s.sign(c.Message))
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.Contains(err.Error(), "expired")
}

func (s *ServiceSuite) TestLoginWithoutChallenge() {
	_, err := s.service.Login(s.ctx, s.signer.Identity(), make([]byte, 65))
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestChallengeRequiresIdentity() {
	_, err := s.service.Challenge(s.ctx, "")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.service.Challenge(s.ctx, domain.MustIdentity("0x0000000000000000000000000000000000000000"))
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestLogoutRevokesSession() {
	c, err := s.service.Challenge(s.ctx, s.signer.Identity())
	s.Require().NoError(err)
	sess, err := s.service.Login(s.ctx, s.signer.Identity(), s.sign(c.Message))
	s.Require().NoError(err)

	revoked, err := s.service.IsTokenRevoked(s.ctx, sess.TokenID)
	s.Require().NoError(err)
	s.False(revoked)

	ctx := requestcontext.WithIdentity(s.ctx, sess.Identity)
	ctx = requestcontext.WithSessionID(ctx, sess.TokenID)
	s.Require().NoError(s.service.Logout(ctx))

	revoked, err = s.service.IsTokenRevoked(s.ctx, sess.TokenID)
	s.Require().NoError(err)
	s.True(revoked)

	events, err := s.audit.ListByAction(s.ctx, audit.ActionSessionRevoked)
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *ServiceSuite) TestLogoutRequiresSession() {
	err := s.service.Logout(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	err = s.service.Logout(requestcontext.WithIdentity(s.ctx, s.signer.Identity()))
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestService_StoreFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	challenges := mocks.NewMockChallengeStore(ctrl)
	revocations := mocks.NewMockRevocationStore(ctrl)
	tokens := session.NewTokenService("k", "certflow", time.Hour)
	svc := session.New(challenges, revocations, tokens)
	id := domain.MustIdentity("0x8ba1f109551bd432803012645ac136ddd64dba72")
	down := errors.New("redis: connection refused")

	t.Run("saving a challenge", func(t *testing.T) {
		challenges.EXPECT().Save(gomock.Any(), gomock.Any()).Return(down)
		_, err := svc.Challenge(context.Background(), id)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeGatewayUnavailable))
		assert.True(t, dErrors.IsRetryable(err))
	})

	t.Run("consuming a challenge", func(t *testing.T) {
		challenges.EXPECT().Consume(gomock.Any(), id).Return(session.Challenge{}, down)
		_, err := svc.Login(context.Background(), id, make([]byte, 65))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeGatewayUnavailable))
	})

	t.Run("missing challenge is unauthorized", func(t *testing.T) {
		challenges.EXPECT().Consume(gomock.Any(), id).Return(session.Challenge{}, sentinel.ErrNotFound)
		_, err := svc.Login(context.Background(), id, make([]byte, 65))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("revoking a session", func(t *testing.T) {
		revocations.EXPECT().Revoke(gomock.Any(), "jti-1", time.Hour).Return(down)
		ctx := requestcontext.WithSessionID(requestcontext.WithIdentity(context.Background(), id), "jti-1")
		err := svc.Logout(ctx)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeGatewayUnavailable))
	})
}
