// Package ledgertest holds the behavioural suite every ledger.Backend must
// pass.
package ledgertest

import (
	"context"

	"github.com/stretchr/testify/suite"

	"certflow/internal/identity"
	"certflow/internal/ledger"
	"certflow/pkg/domain"
	"certflow/pkg/platform/sentinel"
	"certflow/pkg/testutil"
)

// BackendSuite exercises registry semantics. NewBackend must return an empty
// ledger whose owner is testutil.Admin.
type BackendSuite struct {
	suite.Suite
	NewBackend func() ledger.Backend

	ctx     context.Context
	backend ledger.Backend
}

func (s *BackendSuite) SetupTest() {
	s.ctx = context.Background()
	s.backend = s.NewBackend()
}

func as(id domain.Identity) identity.Signer {
	return identity.NewAssertedSigner(id)
}

func (s *BackendSuite) register(id domain.Identity, role domain.Role) {
	_, err := s.backend.RegisterUser(s.ctx, as(id), role, "ipfs://profile-"+id.String())
	s.Require().NoError(err)
}

func (s *BackendSuite) authorize(id domain.Identity) {
	_, err := s.backend.AuthorizeInstitute(s.ctx, as(testutil.Admin), id)
	s.Require().NoError(err)
}

func (s *BackendSuite) submit(student, institute domain.Identity, name string) domain.RequestID {
	r, err := s.backend.RequestCertificate(s.ctx, as(student), ledger.RequestInput{
		Institute:          institute,
		Name:               name,
		Message:            "please",
		StudentMetadataRef: "ipfs://profile-" + student.String(),
	})
	s.Require().NoError(err)
	s.Require().NotZero(r.RequestID)
	s.Require().NotEmpty(r.TxHash)
	return r.RequestID
}

func (s *BackendSuite) TestRegistration() {
	rec, err := s.backend.GetUser(s.ctx, testutil.Student)
	s.Require().NoError(err)
	s.False(rec.Registered)
	s.Equal(domain.RoleUnset, rec.Role)

	s.register(testutil.Student, domain.RoleStudent)

	rec, err = s.backend.GetUser(s.ctx, testutil.Student)
	s.Require().NoError(err)
	s.True(rec.Registered)
	s.Equal(domain.RoleStudent, rec.Role)
	s.Equal("ipfs://profile-"+testutil.Student.String(), rec.MetadataRef)

	registered, err := s.backend.IsUserRegistered(s.ctx, testutil.Student)
	s.Require().NoError(err)
	s.True(registered)

	s.Run("write once", func() {
		_, err := s.backend.RegisterUser(s.ctx, as(testutil.Student), domain.RoleProvider, "ipfs://other")
		s.ErrorIs(err, sentinel.ErrRejected)
	})

	s.Run("directory keeps registration order", func() {
		s.register(testutil.Institute, domain.RoleProvider)
		users, err := s.backend.GetAllUsers(s.ctx)
		s.Require().NoError(err)
		s.Equal([]domain.Identity{testutil.Student, testutil.Institute}, users)
	})
}

func (s *BackendSuite) TestAuthorizationIsOwnerOnly() {
	owner, err := s.backend.Owner(s.ctx)
	s.Require().NoError(err)
	s.Equal(testutil.Admin, owner)

	_, err = s.backend.AuthorizeInstitute(s.ctx, as(testutil.Stranger), testutil.Institute)
	s.ErrorIs(err, sentinel.ErrRejected)

	s.authorize(testutil.Institute)
	ok, err := s.backend.IsAuthorizedInstitute(s.ctx, testutil.Institute)
	s.Require().NoError(err)
	s.True(ok)

	_, err = s.backend.RevokeInstitute(s.ctx, as(testutil.Institute), testutil.Institute)
	s.ErrorIs(err, sentinel.ErrRejected)

	_, err = s.backend.RevokeInstitute(s.ctx, as(testutil.Admin), testutil.Institute)
	s.Require().NoError(err)
	ok, err = s.backend.IsAuthorizedInstitute(s.ctx, testutil.Institute)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *BackendSuite) TestRequestLifecycle() {
	s.register(testutil.Student, domain.RoleStudent)
	s.register(testutil.Institute, domain.RoleProvider)
	s.authorize(testutil.Institute)

	first := s.submit(testutil.Student, testutil.Institute, "BSc")
	second := s.submit(testutil.Student, testutil.Institute, "MSc")
	s.Equal(domain.RequestID(1), first)
	s.Equal(domain.RequestID(2), second)

	counter, err := s.backend.RequestCounter(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(2), counter)

	req, err := s.backend.CertificateRequest(s.ctx, first)
	s.Require().NoError(err)
	s.Equal(testutil.Student, req.Student)
	s.Equal(testutil.Institute, req.Institute)
	s.Equal("BSc", req.Name)
	s.False(req.Approved)

	receipt, err := s.backend.ApproveCertificateRequest(s.ctx, as(testutil.Institute), ledger.ApprovalInput{
		RequestID:       first,
		CertificateType: "Degree",
		MetadataRef:     "ipfs://cert-meta",
		InstitutionName: "Example University",
	})
	s.Require().NoError(err)
	s.NotZero(receipt.CertificateID)

	req, err = s.backend.CertificateRequest(s.ctx, first)
	s.Require().NoError(err)
	s.True(req.Approved)

	ids, err := s.backend.StudentCertificates(s.ctx, testutil.Student)
	s.Require().NoError(err)
	s.Equal([]domain.CertificateID{receipt.CertificateID}, ids)

	details, err := s.backend.CertificateDetails(s.ctx, receipt.CertificateID)
	s.Require().NoError(err)
	s.Equal("BSc", details.Name)
	s.Equal("Degree", details.CertificateType)
	s.Equal(testutil.Institute, details.Institute)
	s.Equal(testutil.Student, details.Holder)
	s.False(details.IssueDate.IsZero())

	uri, err := s.backend.TokenURI(s.ctx, receipt.CertificateID)
	s.Require().NoError(err)
	s.Equal("ipfs://cert-meta", uri)

	s.Run("approving twice is rejected", func() {
		_, err := s.backend.ApproveCertificateRequest(s.ctx, as(testutil.Institute), ledger.ApprovalInput{
			RequestID: first, CertificateType: "Degree", MetadataRef: "ipfs://again",
		})
		s.ErrorIs(err, sentinel.ErrRejected)
	})

	s.Run("cancel deletes the request", func() {
		_, err := s.backend.CancelCertificateRequest(s.ctx, as(testutil.Student), second)
		s.Require().NoError(err)
		_, err = s.backend.CertificateRequest(s.ctx, second)
		s.ErrorIs(err, sentinel.ErrNotFound)

		counter, err := s.backend.RequestCounter(s.ctx)
		s.Require().NoError(err)
		s.Equal(uint64(2), counter)
	})
}

func (s *BackendSuite) TestApprovalRules() {
	s.register(testutil.Student, domain.RoleStudent)
	s.register(testutil.Institute, domain.RoleProvider)
	s.register(testutil.Other, domain.RoleProvider)
	id := s.submit(testutil.Student, testutil.Institute, "BSc")

	in := ledger.ApprovalInput{RequestID: id, CertificateType: "Degree", MetadataRef: "ipfs://m"}

	_, err := s.backend.ApproveCertificateRequest(s.ctx, as(testutil.Institute), in)
	s.ErrorIs(err, sentinel.ErrRejected, "unauthorized institute")

	s.authorize(testutil.Other)
	_, err = s.backend.ApproveCertificateRequest(s.ctx, as(testutil.Other), in)
	s.ErrorIs(err, sentinel.ErrRejected, "request addressed elsewhere")

	req, err := s.backend.CertificateRequest(s.ctx, id)
	s.Require().NoError(err)
	s.False(req.Approved, "failed approvals leave the request pending")

	ids, err := s.backend.StudentCertificates(s.ctx, testutil.Student)
	s.Require().NoError(err)
	s.Empty(ids)
}

func (s *BackendSuite) TestRequestRules() {
	s.register(testutil.Institute, domain.RoleProvider)

	_, err := s.backend.RequestCertificate(s.ctx, as(testutil.Stranger), ledger.RequestInput{
		Institute: testutil.Institute, Name: "BSc",
	})
	s.ErrorIs(err, sentinel.ErrRejected, "unregistered caller")

	_, err = s.backend.RequestCertificate(s.ctx, as(testutil.Institute), ledger.RequestInput{
		Institute: testutil.Institute, Name: "BSc",
	})
	s.ErrorIs(err, sentinel.ErrRejected, "provider caller")
}

func (s *BackendSuite) TestCancelRules() {
	s.register(testutil.Student, domain.RoleStudent)
	s.register(testutil.Student2, domain.RoleStudent)
	s.register(testutil.Institute, domain.RoleProvider)
	id := s.submit(testutil.Student, testutil.Institute, "BSc")

	_, err := s.backend.CancelCertificateRequest(s.ctx, as(testutil.Student2), id)
	s.ErrorIs(err, sentinel.ErrRejected)

	_, err = s.backend.CancelCertificateRequest(s.ctx, as(testutil.Institute), id)
	s.Require().NoError(err)

	_, err = s.backend.CancelCertificateRequest(s.ctx, as(testutil.Institute), id)
	s.ErrorIs(err, sentinel.ErrRejected, "already gone")
}

func (s *BackendSuite) TestMissingRecords() {
	_, err := s.backend.CertificateRequest(s.ctx, 99)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.backend.CertificateDetails(s.ctx, 99)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.backend.TokenURI(s.ctx, 99)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *BackendSuite) TestConcurrentApprovalsHaveOneWinner() {
	s.register(testutil.Student, domain.RoleStudent)
	s.register(testutil.Institute, domain.RoleProvider)
	s.authorize(testutil.Institute)
	id := s.submit(testutil.Student, testutil.Institute, "BSc")

	const racers = 8
	results := testutil.RunConcurrent(racers, func(int) error {
		_, err := s.backend.ApproveCertificateRequest(s.ctx, as(testutil.Institute), ledger.ApprovalInput{
			RequestID: id, CertificateType: "Degree", MetadataRef: "ipfs://m",
		})
		return err
	})
	s.Equal(int32(1), results.Successes)
	s.Equal(int32(racers-1), results.Conflicts)

	ids, err := s.backend.StudentCertificates(s.ctx, testutil.Student)
	s.Require().NoError(err)
	s.Len(ids, 1)
}
