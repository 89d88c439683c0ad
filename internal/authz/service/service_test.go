package service_test

//go:generate mockgen -source=service.go -destination=../mocks/mocks.go -package=mocks Ledger,ProfileReader,Invalidator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"certflow/internal/authz/metrics"
	"certflow/internal/authz/mocks"
	"certflow/internal/authz/service"
	"certflow/internal/content"
	contentmemory "certflow/internal/content/memory"
	"certflow/internal/identity"
	"certflow/internal/ledger"
	ledgermemory "certflow/internal/ledger/memory"
	roleservice "certflow/internal/role/service"
	rolestore "certflow/internal/role/store"
	"certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/platform/audit"
	"certflow/pkg/platform/audit/publisher"
	"certflow/pkg/testutil"
)

func as(id domain.Identity) identity.Signer {
	return identity.NewAssertedSigner(id)
}

type GateSuite struct {
	suite.Suite
	ctx      context.Context
	gateway  *ledger.Gateway
	content  *content.Resolver
	resolver *roleservice.Resolver
	metrics  *metrics.Metrics
	audit    *audit.InMemoryStore
	gate     *service.Gate
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

func (s *GateSuite) SetupTest() {
	s.ctx = context.Background()
	s.gateway = ledger.NewGateway(ledgermemory.New(testutil.Admin), "memory")
	s.content = content.NewResolver(contentmemory.New())
	s.resolver = roleservice.NewResolver(s.gateway, roleservice.WithCache(rolestore.NewMemory(time.Minute)))
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.audit = audit.NewInMemoryStore()
	s.gate = service.New(s.gateway,
		service.WithProfiles(s.content),
		service.WithInvalidator(s.resolver),
		service.WithAuditor(publisher.New(s.audit)),
		service.WithMetrics(s.metrics),
	)
}

func (s *GateSuite) registerProvider(id domain.Identity, name string) string {
	ref, err := s.content.PutJSON(s.ctx, content.ProviderProfile{InstitutionName: name, AccreditationNumber: "ACC-" + name})
	s.Require().NoError(err)
	_, err = s.gateway.RegisterUser(s.ctx, as(id), domain.RoleProvider, ref)
	s.Require().NoError(err)
	return ref
}

func (s *GateSuite) TestAuthorizeThenRevokeRoundTrip() {
	s.registerProvider(testutil.Institute, "Example")

	before, err := s.gate.IsAuthorized(s.ctx, testutil.Institute)
	s.Require().NoError(err)
	s.False(before)

	receipt, err := s.gate.Authorize(s.ctx, as(testutil.Admin), testutil.Institute)
	s.Require().NoError(err)
	s.NotEmpty(receipt.TxHash)
	s.NoError(s.gate.RequireAuthorized(s.ctx, testutil.Institute))

	_, err = s.gate.Revoke(s.ctx, as(testutil.Admin), testutil.Institute)
	s.Require().NoError(err)

	after, err := s.gate.IsAuthorized(s.ctx, testutil.Institute)
	s.Require().NoError(err)
	s.Equal(before, after)

	authorized, err := s.audit.ListByAction(s.ctx, audit.ActionInstituteAuthorized)
	s.Require().NoError(err)
	s.Len(authorized, 1)
	s.Equal(testutil.Admin, authorized[0].Actor)
	s.Equal(testutil.Institute.String(), authorized[0].Subject)

	revoked, err := s.audit.ListByAction(s.ctx, audit.ActionInstituteRevoked)
	s.Require().NoError(err)
	s.Len(revoked, 1)
}

func (s *GateSuite) TestNonAdministratorIsDenied() {
	s.registerProvider(testutil.Institute, "Example")

	for _, caller := range []domain.Identity{testutil.Institute, testutil.Student, testutil.Stranger} {
		_, err := s.gate.Authorize(s.ctx, as(caller), testutil.Institute)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotAdministrator), caller.String())
	}

	authorized, err := s.gate.IsAuthorized(s.ctx, testutil.Institute)
	s.Require().NoError(err)
	s.False(authorized)

	denied, err := s.audit.ListByAction(s.ctx, audit.ActionAuthorizationDenied)
	s.Require().NoError(err)
	s.Len(denied, 3)
	s.Equal(audit.DecisionDenied, denied[0].Decision)
	s.Equal("authorize", denied[0].Attributes["operation"])
	s.Equal(float64(3), promtestutil.ToFloat64(s.metrics.Decisions.WithLabelValues("authorize", "not_administrator")))
}

func (s *GateSuite) TestAuthorizeTwiceIsAlreadyAuthorized() {
	s.registerProvider(testutil.Institute, "Example")
	_, err := s.gate.Authorize(s.ctx, as(testutil.Admin), testutil.Institute)
	s.Require().NoError(err)

	_, err = s.gate.Authorize(s.ctx, as(testutil.Admin), testutil.Institute)
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyAuthorized))
}

func (s *GateSuite) TestRevokeUnauthorizedIsNotAuthorized() {
	_, err := s.gate.Revoke(s.ctx, as(testutil.Admin), testutil.Other)
	s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
	s.True(dErrors.HasCode(s.gate.RequireAuthorized(s.ctx, testutil.Other), dErrors.CodeNotAuthorized))
}

func (s *GateSuite) TestZeroInstituteRejected() {
	_, err := s.gate.Authorize(s.ctx, as(testutil.Admin), domain.IdentityFromAddress([20]byte{}))
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *GateSuite) TestNilSignerIsUnauthorized() {
	_, err := s.gate.Authorize(s.ctx, nil, testutil.Institute)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *GateSuite) TestAuthorizationChangeRefreshesCachedRole() {
	s.registerProvider(testutil.Institute, "Example")

	res, err := s.resolver.Resolve(s.ctx, testutil.Institute)
	s.Require().NoError(err)
	s.Equal("pending", res.ProviderStatus())

	_, err = s.gate.Authorize(s.ctx, as(testutil.Admin), testutil.Institute)
	s.Require().NoError(err)

	res, err = s.resolver.Resolve(s.ctx, testutil.Institute)
	s.Require().NoError(err)
	s.True(res.Authorized)
}

func (s *GateSuite) TestListInstitutesReportsLiveAuthorization() {
	s.registerProvider(testutil.Institute, "Example")
	s.registerProvider(testutil.Other, "Other")
	_, err := s.gateway.RegisterUser(s.ctx, as(testutil.Student), domain.RoleStudent, "ipfs://student")
	s.Require().NoError(err)
	_, err = s.gate.Authorize(s.ctx, as(testutil.Admin), testutil.Institute)
	s.Require().NoError(err)

	institutes, err := s.gate.ListInstitutes(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(institutes, 2)

	byID := map[domain.Identity]bool{}
	for _, inst := range institutes {
		byID[inst.Identity] = inst.Authorized
		s.Require().NotNil(inst.Profile)
		s.Empty(inst.ProfileError)
	}
	s.True(byID[testutil.Institute])
	s.False(byID[testutil.Other])
	s.Equal(float64(1), promtestutil.ToFloat64(s.metrics.AuthorizedInstitutes))
}

func (s *GateSuite) TestListInstitutesDegradesUnresolvableProfile() {
	s.registerProvider(testutil.Institute, "Example")
	_, err := s.gateway.RegisterUser(s.ctx, as(testutil.Other), domain.RoleProvider, "not-a-content-ref")
	s.Require().NoError(err)

	institutes, err := s.gate.ListInstitutes(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(institutes, 2)
	for _, inst := range institutes {
		if inst.Identity.Equal(testutil.Other) {
			s.Nil(inst.Profile)
			s.Equal(string(dErrors.CodeMetadataUnresolvable), inst.ProfileError)
			continue
		}
		s.NotNil(inst.Profile)
		s.Equal("Example", inst.Profile.InstitutionName)
	}
}

func (s *GateSuite) TestListUsersIsAdministratorOnly() {
	s.registerProvider(testutil.Institute, "Example")

	_, err := s.gate.ListUsers(s.ctx, testutil.Institute)
	s.True(dErrors.HasCode(err, dErrors.CodeNotAdministrator))

	users, err := s.gate.ListUsers(s.ctx, testutil.Admin)
	s.Require().NoError(err)
	s.Require().Len(users, 1)
	s.Equal(domain.RoleProvider, users[0].Role)
}

func TestGate_LedgerFailures(t *testing.T) {
	down := errors.New("dial tcp: connection refused")

	t.Run("owner read failure is gateway_unavailable, not a denial", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		l := mocks.NewMockLedger(ctrl)
		l.EXPECT().Owner(gomock.Any()).Return(domain.Identity(""), down)

		_, err := service.New(l).Authorize(context.Background(), as(testutil.Admin), testutil.Institute)
		require.Error(t, err)
		assert.Equal(t, dErrors.CodeGatewayUnavailable, dErrors.CodeOf(err))
		assert.True(t, dErrors.IsRetryable(err))
	})

	t.Run("authorization read failure is gateway_unavailable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		l := mocks.NewMockLedger(ctrl)
		l.EXPECT().IsAuthorizedInstitute(gomock.Any(), testutil.Institute).Return(false, down)

		err := service.New(l).RequireAuthorized(context.Background(), testutil.Institute)
		assert.Equal(t, dErrors.CodeGatewayUnavailable, dErrors.CodeOf(err))
	})

	t.Run("cancelled context is timeout", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		l := mocks.NewMockLedger(ctrl)
		l.EXPECT().IsAuthorizedInstitute(gomock.Any(), testutil.Institute).Return(false, context.Canceled)

		_, err := service.New(l).IsAuthorized(context.Background(), testutil.Institute)
		assert.Equal(t, dErrors.CodeTimeout, dErrors.CodeOf(err))
	})

	t.Run("rejected write still invalidates the cached role", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		l := mocks.NewMockLedger(ctrl)
		inv := mocks.NewMockInvalidator(ctrl)
		rejected := dErrors.New(dErrors.CodeLedgerRejected, "reverted")
		gomock.InOrder(
			l.EXPECT().Owner(gomock.Any()).Return(testutil.Admin, nil),
			l.EXPECT().IsAuthorizedInstitute(gomock.Any(), testutil.Institute).Return(false, nil),
			l.EXPECT().AuthorizeInstitute(gomock.Any(), gomock.Any(), testutil.Institute).Return(ledger.Receipt{}, rejected),
			inv.EXPECT().Invalidate(gomock.Any(), testutil.Institute).Return(nil),
		)

		_, err := service.New(l, service.WithInvalidator(inv)).Authorize(context.Background(), as(testutil.Admin), testutil.Institute)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeLedgerRejected))
	})

	t.Run("directory degrades an unreadable authorization", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		l := mocks.NewMockLedger(ctrl)
		profiles := mocks.NewMockProfileReader(ctrl)
		l.EXPECT().GetAllUsers(gomock.Any()).Return([]domain.Identity{testutil.Institute}, nil)
		l.EXPECT().GetUser(gomock.Any(), testutil.Institute).Return(ledger.UserRecord{
			Identity: testutil.Institute, Role: domain.RoleProvider, Registered: true, MetadataRef: "ipfs://p",
		}, nil)
		l.EXPECT().IsAuthorizedInstitute(gomock.Any(), testutil.Institute).Return(false, down)
		profiles.EXPECT().GetJSON(gomock.Any(), "ipfs://p", gomock.Any()).Return(nil)

		institutes, err := service.New(l, service.WithProfiles(profiles)).ListInstitutes(context.Background())
		require.NoError(t, err)
		require.Len(t, institutes, 1)
		assert.False(t, institutes[0].Authorized)
		assert.Equal(t, string(dErrors.CodeGatewayUnavailable), institutes[0].AuthorizationError)
	})

	t.Run("directory skips an unreadable user record", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		l := mocks.NewMockLedger(ctrl)
		l.EXPECT().GetAllUsers(gomock.Any()).Return([]domain.Identity{testutil.Institute, testutil.Other}, nil)
		l.EXPECT().GetUser(gomock.Any(), testutil.Institute).Return(ledger.UserRecord{}, down)
		l.EXPECT().GetUser(gomock.Any(), testutil.Other).Return(ledger.UserRecord{
			Identity: testutil.Other, Role: domain.RoleProvider, Registered: true,
		}, nil)
		l.EXPECT().IsAuthorizedInstitute(gomock.Any(), testutil.Other).Return(true, nil)

		institutes, err := service.New(l).ListInstitutes(context.Background())
		require.NoError(t, err)
		require.Len(t, institutes, 1)
		assert.Equal(t, testutil.Other, institutes[0].Identity)
		assert.True(t, institutes[0].Authorized)
	})

	t.Run("directory enumeration failure fails the listing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		l := mocks.NewMockLedger(ctrl)
		l.EXPECT().GetAllUsers(gomock.Any()).Return(nil, down)

		_, err := service.New(l).ListInstitutes(context.Background())
		assert.Equal(t, dErrors.CodeGatewayUnavailable, dErrors.CodeOf(err))
	})
}
