package service_test

//go:generate mockgen -source=service.go -destination=../mocks/mocks.go -package=mocks Ledger,ContentStore,AuthorizationGate,CheckpointStore,CancellationStore

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	authzservice "certflow/internal/authz/service"
	"certflow/internal/content"
	contentmemory "certflow/internal/content/memory"
	"certflow/internal/identity"
	"certflow/internal/issuance/metrics"
	"certflow/internal/issuance/mocks"
	"certflow/internal/issuance/models"
	"certflow/internal/issuance/service"
	"certflow/internal/issuance/store"
	"certflow/internal/ledger"
	ledgermemory "certflow/internal/ledger/memory"
	"certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/platform/audit"
	"certflow/pkg/platform/audit/publisher"
	"certflow/pkg/platform/sentinel"
	"certflow/pkg/testutil"
)

func as(id domain.Identity) identity.Signer {
	return identity.NewAssertedSigner(id)
}

// flakyLedger fails the next approval write. With land set the write is
// applied before the error is returned, as with a receipt that was missed.
type flakyLedger struct {
	*ledger.Gateway
	approveErr error
	land       bool
}

func (f *flakyLedger) ApproveCertificateRequest(ctx context.Context, signer identity.Signer, in ledger.ApprovalInput) (ledger.Receipt, error) {
	if f.approveErr == nil {
		return f.Gateway.ApproveCertificateRequest(ctx, signer, in)
	}
	err := f.approveErr
	f.approveErr = nil
	if f.land {
		r, landErr := f.Gateway.ApproveCertificateRequest(ctx, signer, in)
		if landErr != nil {
			return ledger.Receipt{}, landErr
		}
		return ledger.Receipt{TxHash: r.TxHash}, err
	}
	return ledger.Receipt{}, err
}

type countingContent struct {
	*content.Resolver
	puts     atomic.Int32
	putJSONs atomic.Int32
}

func (c *countingContent) Put(ctx context.Context, data []byte) (string, error) {
	c.puts.Add(1)
	return c.Resolver.Put(ctx, data)
}

func (c *countingContent) PutJSON(ctx context.Context, v any) (string, error) {
	c.putJSONs.Add(1)
	return c.Resolver.PutJSON(ctx, v)
}

type IssuanceSuite struct {
	suite.Suite
	ctx           context.Context
	gateway       *ledger.Gateway
	ledger        *flakyLedger
	content       *countingContent
	gate          *authzservice.Gate
	checkpoints   *store.MemoryCheckpoints
	cancellations *store.MemoryCancellations
	metrics       *metrics.Metrics
	audit         *audit.InMemoryStore
	manager       *service.Manager
	studentRef    string
}

func TestIssuanceSuite(t *testing.T) {
	suite.Run(t, new(IssuanceSuite))
}

func (s *IssuanceSuite) SetupTest() {
	s.ctx = context.Background()
	s.gateway = ledger.NewGateway(ledgermemory.New(testutil.Admin), "memory")
	s.ledger = &flakyLedger{Gateway: s.gateway}
	s.content = &countingContent{Resolver: content.NewResolver(contentmemory.New())}
	s.gate = authzservice.New(s.gateway)
	s.checkpoints = store.NewMemoryCheckpoints(time.Hour)
	s.cancellations = store.NewMemoryCancellations()
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.audit = audit.NewInMemoryStore()
	s.manager = service.New(s.ledger, s.content, s.gate, s.checkpoints, s.cancellations,
		service.WithAuditor(publisher.New(s.audit)),
		service.WithMetrics(s.metrics),
	)

	s.studentRef = s.register(testutil.Student, domain.RoleStudent, content.StudentProfile{Name: "Ada", Email: "ada@example.edu", StudentID: "S-1"})
	s.register(testutil.Student2, domain.RoleStudent, content.StudentProfile{Name: "Bob"})
	s.register(testutil.Institute, domain.RoleProvider, content.ProviderProfile{InstitutionName: "Example University", AccreditationNumber: "ACC-1", DocumentCID: "ipfs://doc"})
	s.register(testutil.Other, domain.RoleProvider, content.ProviderProfile{InstitutionName: "Other College", AccreditationNumber: "ACC-2"})
	s.authorize(testutil.Institute)
}

func (s *IssuanceSuite) register(id domain.Identity, role domain.Role, profile any) string {
	ref, err := s.content.Resolver.PutJSON(s.ctx, profile)
	s.Require().NoError(err)
	_, err = s.gateway.RegisterUser(s.ctx, as(id), role, ref)
	s.Require().NoError(err)
	return ref
}

func (s *IssuanceSuite) authorize(id domain.Identity) {
	_, err := s.gate.Authorize(s.ctx, as(testutil.Admin), id)
	s.Require().NoError(err)
}

func (s *IssuanceSuite) submit(student, institute domain.Identity) models.Request {
	req, err := s.manager.Submit(s.ctx, as(student), models.Submission{Institute: institute, Name: "BSc", Message: "please"})
	s.Require().NoError(err)
	return req
}

func approval() models.Approval {
	return models.Approval{
		CertificateType: "Degree",
		Name:            "BSc Computer Science",
		Description:     "Awarded with honours",
		Image:           []byte("\x89PNG certificate"),
	}
}

func (s *IssuanceSuite) pendingFor(institute domain.Identity) []models.Request {
	pending, err := s.manager.ListPendingFor(s.ctx, institute)
	s.Require().NoError(err)
	return pending
}

func (s *IssuanceSuite) TestSubmitAttachesStudentMetadata() {
	req := s.submit(testutil.Student, testutil.Institute)
	s.Equal(domain.RequestID(1), req.ID)
	s.Equal(s.studentRef, req.StudentMetadataRef)

	got, err := s.manager.Get(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(s.studentRef, got.StudentMetadataRef)
	s.Equal(models.StatusPending, got.Status)

	events, err := s.audit.ListByAction(s.ctx, audit.ActionRequestSubmitted)
	s.Require().NoError(err)
	s.Len(events, 1)
	s.Equal(testutil.Institute.String(), events[0].Attributes["institute"])
}

func (s *IssuanceSuite) TestSubmitRequiresRegisteredStudent() {
	for _, caller := range []domain.Identity{testutil.Stranger, testutil.Institute} {
		_, err := s.manager.Submit(s.ctx, as(caller), models.Submission{Institute: testutil.Institute, Name: "BSc"})
		s.True(dErrors.HasCode(err, dErrors.CodeNotRegistered), caller.String())
	}
}

func (s *IssuanceSuite) TestSubmitRequiresProviderInstitute() {
	_, err := s.manager.Submit(s.ctx, as(testutil.Student), models.Submission{Institute: testutil.Student2, Name: "BSc"})
	s.True(dErrors.HasCode(err, dErrors.CodeNotRegistered))
}

func (s *IssuanceSuite) TestSubmitValidatesName() {
	_, err := s.manager.Submit(s.ctx, as(testutil.Student), models.Submission{Institute: testutil.Institute, Name: "   "})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *IssuanceSuite) TestListPendingForScansByInstitute() {
	first := s.submit(testutil.Student, testutil.Institute)
	s.submit(testutil.Student2, testutil.Other)
	third := s.submit(testutil.Student2, testutil.Institute)

	pending := s.pendingFor(testutil.Institute)
	s.Require().Len(pending, 2)
	s.Equal(first.ID, pending[0].ID)
	s.Equal(third.ID, pending[1].ID)

	mine, err := s.manager.ListPendingBy(s.ctx, testutil.Student2)
	s.Require().NoError(err)
	s.Len(mine, 2)
}

func (s *IssuanceSuite) TestListPendingForKeepsIDOrderUnderConcurrentReads() {
	manager := service.New(s.ledger, s.content, s.gate, s.checkpoints, s.cancellations,
		service.WithConcurrency(4),
	)
	var want []domain.RequestID
	for i := range 20 {
		req := s.submit(testutil.Student, testutil.Institute)
		if i%3 == 0 {
			_, err := manager.Withdraw(s.ctx, as(testutil.Student), req.ID)
			s.Require().NoError(err)
			continue
		}
		want = append(want, req.ID)
	}
	s.submit(testutil.Student2, testutil.Other)

	pending, err := manager.ListPendingFor(s.ctx, testutil.Institute)
	s.Require().NoError(err)
	got := make([]domain.RequestID, 0, len(pending))
	for _, req := range pending {
		got = append(got, req.ID)
	}
	s.Equal(want, got)
}

func (s *IssuanceSuite) TestWithdrawRemovesFromPendingAndLeavesTombstone() {
	req := s.submit(testutil.Student, testutil.Institute)

	c, err := s.manager.Withdraw(s.ctx, as(testutil.Student), req.ID)
	s.Require().NoError(err)
	s.Equal(models.CancelWithdrawn, c.Kind)
	s.Empty(s.pendingFor(testutil.Institute))

	_, err = s.manager.Get(s.ctx, req.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeStaleRequest))
	s.Contains(err.Error(), "withdrawn")

	_, err = s.manager.Get(s.ctx, domain.RequestID(99))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	ids, err := s.gateway.StudentCertificates(s.ctx, testutil.Student)
	s.Require().NoError(err)
	s.Empty(ids)

	events, err := s.audit.ListByAction(s.ctx, audit.ActionRequestWithdrawn)
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *IssuanceSuite) TestRejectRecordsReason() {
	req := s.submit(testutil.Student, testutil.Institute)

	c, err := s.manager.Reject(s.ctx, as(testutil.Institute), req.ID, "  transcript missing ")
	s.Require().NoError(err)
	s.Equal(models.CancelRejected, c.Kind)
	s.Equal("transcript missing", c.Note)

	recorded, err := s.cancellations.Get(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(testutil.Institute, recorded.CancelledBy)

	events, err := s.audit.ListByAction(s.ctx, audit.ActionRequestRejected)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal("transcript missing", events[0].Reason)
}

func (s *IssuanceSuite) TestRejectDoesNotRequireAuthorization() {
	req := s.submit(testutil.Student, testutil.Other)
	_, err := s.manager.Reject(s.ctx, as(testutil.Other), req.ID, "")
	s.NoError(err)
}

func (s *IssuanceSuite) TestCancelPoliciesAreSplit() {
	req := s.submit(testutil.Student, testutil.Institute)

	_, err := s.manager.Withdraw(s.ctx, as(testutil.Institute), req.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	_, err = s.manager.Reject(s.ctx, as(testutil.Student), req.ID, "")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	_, err = s.manager.Cancel(s.ctx, as(testutil.Stranger), req.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	c, err := s.manager.Cancel(s.ctx, as(testutil.Institute), req.ID)
	s.Require().NoError(err)
	s.Equal(models.CancelRejected, c.Kind)

	_, err = s.manager.Cancel(s.ctx, as(testutil.Student), req.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeStaleRequest))
}

func (s *IssuanceSuite) TestApproveIssuesCertificate() {
	req := s.submit(testutil.Student, testutil.Institute)

	issued, err := s.manager.Approve(s.ctx, as(testutil.Institute), req.ID, approval())
	s.Require().NoError(err)
	s.NotZero(issued.CertificateID)
	s.Equal(testutil.Student, issued.Student)
	s.Empty(s.pendingFor(testutil.Institute))

	details, err := s.gateway.CertificateDetails(s.ctx, issued.CertificateID)
	s.Require().NoError(err)
	s.Equal(testutil.Institute, details.Institute)
	s.Equal("Degree", details.CertificateType)
	s.Equal(testutil.Student, details.Holder)

	uri, err := s.gateway.TokenURI(s.ctx, issued.CertificateID)
	s.Require().NoError(err)
	s.Equal(issued.MetadataRef, uri)

	var meta content.CertificateMetadata
	s.Require().NoError(s.content.GetJSON(s.ctx, uri, &meta))
	s.Equal("Degree", meta.CertificateType)
	s.Equal("BSc Computer Science", meta.Name)
	s.Equal("Awarded with honours", meta.Description)
	s.Equal(issued.ImageRef, meta.Image)
	s.Equal("Example University", meta.Institute.InstitutionName)
	s.Equal("ACC-1", meta.Institute.AccreditationNumber)
	s.Equal("ipfs://doc", meta.Institute.DocumentCID)

	image, err := s.content.Get(s.ctx, meta.Image)
	s.Require().NoError(err)
	s.Equal(approval().Image, image)

	_, err = s.checkpoints.Get(s.ctx, req.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.Equal(float64(1), promtestutil.ToFloat64(s.metrics.CertificatesIssued))
}

func (s *IssuanceSuite) TestApproveKeepsInputsVerbatim() {
	req := s.submit(testutil.Student, testutil.Institute)
	in := approval()
	in.CertificateType = " Degree "
	in.Description = "  line one\n"

	issued, err := s.manager.Approve(s.ctx, as(testutil.Institute), req.ID, in)
	s.Require().NoError(err)

	var meta content.CertificateMetadata
	s.Require().NoError(s.content.GetJSON(s.ctx, issued.MetadataRef, &meta))
	s.Equal(" Degree ", meta.CertificateType)
	s.Equal("  line one\n", meta.Description)
}

func (s *IssuanceSuite) TestApproveRejectsBlankType() {
	req := s.submit(testutil.Student, testutil.Institute)
	in := approval()
	in.CertificateType = "   "

	_, err := s.manager.Approve(s.ctx, as(testutil.Institute), req.ID, in)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Zero(s.content.puts.Load())
	s.Len(s.pendingFor(testutil.Institute), 1)
}

func (s *IssuanceSuite) TestApproveUnauthorizedLeavesRequestPending() {
	req := s.submit(testutil.Student, testutil.Other)

	_, err := s.manager.Approve(s.ctx, as(testutil.Other), req.ID, approval())
	s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
	s.Len(s.pendingFor(testutil.Other), 1)
	s.Zero(s.content.puts.Load())

	s.authorize(testutil.Other)
	_, err = s.manager.Approve(s.ctx, as(testutil.Other), req.ID, approval())
	s.NoError(err)
}

func (s *IssuanceSuite) TestApproveChecksLiveAuthorization() {
	req := s.submit(testutil.Student, testutil.Institute)
	_, err := s.gate.Revoke(s.ctx, as(testutil.Admin), testutil.Institute)
	s.Require().NoError(err)

	_, err = s.manager.Approve(s.ctx, as(testutil.Institute), req.ID, approval())
	s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
}

func (s *IssuanceSuite) TestApproveRequestOfAnotherInstituteIsStale() {
	s.authorize(testutil.Other)
	req := s.submit(testutil.Student, testutil.Institute)

	_, err := s.manager.Approve(s.ctx, as(testutil.Other), req.ID, approval())
	s.True(dErrors.HasCode(err, dErrors.CodeStaleRequest))
}

func (s *IssuanceSuite) TestApproveTwiceIsStale() {
	req := s.submit(testutil.Student, testutil.Institute)
	_, err := s.manager.Approve(s.ctx, as(testutil.Institute), req.ID, approval())
	s.Require().NoError(err)

	_, err = s.manager.Approve(s.ctx, as(testutil.Institute), req.ID, approval())
	s.True(dErrors.HasCode(err, dErrors.CodeStaleRequest))

	_, err = s.manager.Withdraw(s.ctx, as(testutil.Student), req.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeStaleRequest))
}

func (s *IssuanceSuite) TestConcurrentApprovalsHaveOneWinner() {
	req := s.submit(testutil.Student, testutil.Institute)

	result := testutil.RunConcurrent(5, func(int) error {
		_, err := s.manager.Approve(s.ctx, as(testutil.Institute), req.ID, approval())
		return err
	})
	s.Equal(int32(1), result.Successes)
	s.Equal(int32(4), result.Conflicts)

	ids, err := s.gateway.StudentCertificates(s.ctx, testutil.Student)
	s.Require().NoError(err)
	s.Len(ids, 1)
}

func (s *IssuanceSuite) TestPartialApprovalResumesWithoutReupload() {
	req := s.submit(testutil.Student, testutil.Institute)
	s.ledger.approveErr = dErrors.New(dErrors.CodeGatewayUnavailable, "rpc down")

	issued, err := s.manager.Approve(s.ctx, as(testutil.Institute), req.ID, approval())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodePartialApprovalFailure))
	s.True(dErrors.IsRetryable(err))
	s.NotEmpty(issued.MetadataRef)
	s.Zero(issued.CertificateID)

	cp, err := s.checkpoints.Get(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(issued.MetadataRef, cp.MetadataRef)
	s.Len(s.pendingFor(testutil.Institute), 1)

	resumed, err := s.manager.ResumeApproval(s.ctx, as(testutil.Institute), req.ID)
	s.Require().NoError(err)
	s.NotZero(resumed.CertificateID)
	s.Equal(issued.MetadataRef, resumed.MetadataRef)
	s.Equal(int32(1), s.content.puts.Load())
	s.Equal(int32(1), s.content.putJSONs.Load())
	s.Equal(float64(1), promtestutil.ToFloat64(s.metrics.PartialApprovals))

	_, err = s.checkpoints.Get(s.ctx, req.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *IssuanceSuite) TestRetriedApprovalReusesCheckpoint() {
	req := s.submit(testutil.Student, testutil.Institute)
	s.ledger.approveErr = dErrors.New(dErrors.CodeGatewayUnavailable, "rpc down")
	_, err := s.manager.Approve(s.ctx, as(testutil.Institute), req.ID, approval())
	s.Require().Error(err)

	_, err = s.manager.Approve(s.ctx, as(testutil.Institute), req.ID, approval())
	s.Require().NoError(err)
	s.Equal(int32(1), s.content.puts.Load())
	s.Equal(int32(1), s.content.putJSONs.Load())
}

func (s *IssuanceSuite) TestChangedInputsStartANewCheckpoint() {
	req := s.submit(testutil.Student, testutil.Institute)
	s.ledger.approveErr = dErrors.New(dErrors.CodeGatewayUnavailable, "rpc down")
	_, err := s.manager.Approve(s.ctx, as(testutil.Institute), req.ID, approval())
	s.Require().Error(err)

	in := approval()
	in.Description = "Awarded with distinction"
	issued, err := s.manager.Approve(s.ctx, as(testutil.Institute), req.ID, in)
	s.Require().NoError(err)
	s.Equal(int32(2), s.content.putJSONs.Load())

	var meta content.CertificateMetadata
	s.Require().NoError(s.content.GetJSON(s.ctx, issued.MetadataRef, &meta))
	s.Equal("Awarded with distinction", meta.Description)
}

func (s *IssuanceSuite) TestResumeAfterUnconfirmedWriteLanded() {
	req := s.submit(testutil.Student, testutil.Institute)
	s.ledger.approveErr = dErrors.New(dErrors.CodeUnconfirmed, "no receipt")
	s.ledger.land = true

	issued, err := s.manager.Approve(s.ctx, as(testutil.Institute), req.ID, approval())
	s.True(dErrors.HasCode(err, dErrors.CodeUnconfirmed))
	s.NotEmpty(issued.TxHash)

	resumed, err := s.manager.ResumeApproval(s.ctx, as(testutil.Institute), req.ID)
	s.Require().NoError(err)
	s.NotZero(resumed.CertificateID)

	uri, err := s.gateway.TokenURI(s.ctx, resumed.CertificateID)
	s.Require().NoError(err)
	s.Equal(issued.MetadataRef, uri)

	_, err = s.checkpoints.Get(s.ctx, req.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *IssuanceSuite) TestResumeWithoutCheckpointIsNotFound() {
	req := s.submit(testutil.Student, testutil.Institute)
	_, err := s.manager.ResumeApproval(s.ctx, as(testutil.Institute), req.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *IssuanceSuite) TestWithdrawDropsInterruptedApproval() {
	req := s.submit(testutil.Student, testutil.Institute)
	s.ledger.approveErr = dErrors.New(dErrors.CodeGatewayUnavailable, "rpc down")
	_, err := s.manager.Approve(s.ctx, as(testutil.Institute), req.ID, approval())
	s.Require().Error(err)

	_, err = s.manager.Withdraw(s.ctx, as(testutil.Student), req.ID)
	s.Require().NoError(err)

	_, err = s.manager.ResumeApproval(s.ctx, as(testutil.Institute), req.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestManager_Failures(t *testing.T) {
	down := dErrors.New(dErrors.CodeGatewayUnavailable, "ledger down")

	newManager := func(ctrl *gomock.Controller) (*service.Manager, *mocks.MockLedger, *mocks.MockContentStore, *mocks.MockAuthorizationGate, *mocks.MockCheckpointStore) {
		l := mocks.NewMockLedger(ctrl)
		c := mocks.NewMockContentStore(ctrl)
		g := mocks.NewMockAuthorizationGate(ctrl)
		cp := mocks.NewMockCheckpointStore(ctrl)
		return service.New(l, c, g, cp, store.NewMemoryCancellations()), l, c, g, cp
	}

	t.Run("scan fails instead of returning an empty list", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		m, l, _, _, _ := newManager(ctrl)
		l.EXPECT().RequestCounter(gomock.Any()).Return(uint64(2), nil)
		l.EXPECT().CertificateRequest(gomock.Any(), domain.RequestID(1)).Return(ledger.CertificateRequest{}, down).AnyTimes()
		l.EXPECT().CertificateRequest(gomock.Any(), domain.RequestID(2)).Return(ledger.CertificateRequest{}, down).AnyTimes()

		_, err := m.ListPendingFor(context.Background(), testutil.Institute)
		require.Error(t, err)
		assert.Equal(t, dErrors.CodeGatewayUnavailable, dErrors.CodeOf(err))
	})

	t.Run("scan skips deleted ids", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		m, l, _, _, _ := newManager(ctrl)
		l.EXPECT().RequestCounter(gomock.Any()).Return(uint64(2), nil)
		l.EXPECT().CertificateRequest(gomock.Any(), domain.RequestID(1)).Return(ledger.CertificateRequest{}, dErrors.New(dErrors.CodeNotFound, "gone"))
		l.EXPECT().CertificateRequest(gomock.Any(), domain.RequestID(2)).Return(ledger.CertificateRequest{
			ID: 2, Student: testutil.Student, Institute: testutil.Institute, Name: "BSc",
		}, nil)

		pending, err := m.ListPendingFor(context.Background(), testutil.Institute)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, domain.RequestID(2), pending[0].ID)
	})

	t.Run("authorization read failure blocks approval before any upload", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		m, _, c, g, _ := newManager(ctrl)
		g.EXPECT().RequireAuthorized(gomock.Any(), testutil.Institute).Return(down)
		c.EXPECT().Put(gomock.Any(), gomock.Any()).Times(0)

		_, err := m.Approve(context.Background(), as(testutil.Institute), 1, approval())
		assert.Equal(t, dErrors.CodeGatewayUnavailable, dErrors.CodeOf(err))
	})

	t.Run("metadata upload failure keeps the image checkpoint", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		m, l, c, g, cp := newManager(ctrl)
		g.EXPECT().RequireAuthorized(gomock.Any(), testutil.Institute).Return(nil)
		l.EXPECT().CertificateRequest(gomock.Any(), domain.RequestID(1)).Return(ledger.CertificateRequest{
			ID: 1, Student: testutil.Student, Institute: testutil.Institute, Name: "BSc",
		}, nil)
		l.EXPECT().GetUser(gomock.Any(), testutil.Institute).Return(ledger.UserRecord{
			Identity: testutil.Institute, Role: domain.RoleProvider, Registered: true, MetadataRef: "ipfs://p",
		}, nil)
		c.EXPECT().GetJSON(gomock.Any(), "ipfs://p", gomock.Any()).Return(nil)
		cp.EXPECT().Get(gomock.Any(), domain.RequestID(1)).Return(models.Checkpoint{}, sentinel.ErrNotFound)
		c.EXPECT().Put(gomock.Any(), gomock.Any()).Return("ipfs://image", nil)
		cp.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, saved models.Checkpoint) error {
			assert.Equal(t, "ipfs://image", saved.ImageRef)
			assert.Empty(t, saved.MetadataRef)
			return nil
		})
		c.EXPECT().PutJSON(gomock.Any(), gomock.Any()).Return("", dErrors.New(dErrors.CodeGatewayUnavailable, "ipfs down"))
		l.EXPECT().ApproveCertificateRequest(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		issued, err := m.Approve(context.Background(), as(testutil.Institute), 1, approval())
		assert.True(t, dErrors.HasCode(err, dErrors.CodePartialApprovalFailure))
		assert.Equal(t, "ipfs://image", issued.ImageRef)
	})

	t.Run("unresolvable institute profile blocks approval", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		m, l, c, g, _ := newManager(ctrl)
		g.EXPECT().RequireAuthorized(gomock.Any(), testutil.Institute).Return(nil)
		l.EXPECT().CertificateRequest(gomock.Any(), domain.RequestID(1)).Return(ledger.CertificateRequest{
			ID: 1, Student: testutil.Student, Institute: testutil.Institute,
		}, nil)
		l.EXPECT().GetUser(gomock.Any(), testutil.Institute).Return(ledger.UserRecord{
			Identity: testutil.Institute, Role: domain.RoleProvider, Registered: true, MetadataRef: "ipfs://p",
		}, nil)
		c.EXPECT().GetJSON(gomock.Any(), "ipfs://p", gomock.Any()).Return(dErrors.New(dErrors.CodeMetadataUnresolvable, "gone"))
		c.EXPECT().Put(gomock.Any(), gomock.Any()).Times(0)

		_, err := m.Approve(context.Background(), as(testutil.Institute), 1, approval())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMetadataUnresolvable))
	})

	t.Run("cancellation history failure does not fail withdrawal", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		l := mocks.NewMockLedger(ctrl)
		cancellations := mocks.NewMockCancellationStore(ctrl)
		cp := mocks.NewMockCheckpointStore(ctrl)
		m := service.New(l, mocks.NewMockContentStore(ctrl), mocks.NewMockAuthorizationGate(ctrl), cp, cancellations)

		l.EXPECT().CertificateRequest(gomock.Any(), domain.RequestID(3)).Return(ledger.CertificateRequest{
			ID: 3, Student: testutil.Student, Institute: testutil.Institute,
		}, nil)
		l.EXPECT().CancelCertificateRequest(gomock.Any(), gomock.Any(), domain.RequestID(3)).Return(ledger.Receipt{TxHash: "0x1"}, nil)
		cancellations.EXPECT().Record(gomock.Any(), gomock.Any()).Return(errors.New("db down"))
		cp.EXPECT().Delete(gomock.Any(), domain.RequestID(3)).Return(nil)

		c, err := m.Withdraw(context.Background(), as(testutil.Student), 3)
		require.NoError(t, err)
		assert.Equal(t, "0x1", c.TxHash)
	})
}
