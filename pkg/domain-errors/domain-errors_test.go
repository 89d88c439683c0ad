package domainerrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestMessageFallsBackToCode() {
	s.Equal("institute is not authorized", New(CodeNotAuthorized, "institute is not authorized").Error())
	s.Equal("stale_request", (&Error{Code: CodeStaleRequest}).Error())
}

func (s *DomainErrorsSuite) TestWrapKeepsInnermostCode() {
	ledgerDown := &Error{Code: CodeGatewayUnavailable, Message: "ledger rpc", Err: context.DeadlineExceeded}
	wrapped := Wrap(fmt.Errorf("load request 7: %w", ledgerDown), CodeInternal, "approve request")

	s.Equal(CodeGatewayUnavailable, CodeOf(wrapped))
	s.Equal("approve request", wrapped.Error())
	s.ErrorIs(wrapped, context.DeadlineExceeded)
}

func (s *DomainErrorsSuite) TestWrapPlainErrorTakesGivenCode() {
	root := errors.New("connection refused")
	wrapped := Wrap(root, CodeGatewayUnavailable, "content store")

	s.Equal(CodeGatewayUnavailable, CodeOf(wrapped))
	s.ErrorIs(wrapped, root)
}

func (s *DomainErrorsSuite) TestIsMatchesByCode() {
	inner := New(CodeNotFound, "certificate 9")
	outer := &Error{Code: CodeInternal, Message: "listing", Err: inner}

	s.ErrorIs(outer, &Error{Code: CodeNotFound})
	s.ErrorIs(outer, &Error{Code: CodeInternal})
	s.NotErrorIs(outer, &Error{Code: CodeConflict})
	s.False(inner.(*Error).Is(errors.New("not_found")))
}

func (s *DomainErrorsSuite) TestHasCodeAndCodeOf() {
	err := fmt.Errorf("handler: %w", New(CodeNotAdministrator, "caller is not the owner"))
	s.True(HasCode(err, CodeNotAdministrator))
	s.False(HasCode(err, CodeForbidden))
	s.False(HasCode(errors.New("plain"), CodeInternal))
	s.Equal(CodeInternal, CodeOf(errors.New("plain")))
	s.Equal(CodeInternal, CodeOf(nil))
}

func (s *DomainErrorsSuite) TestIsRetryable() {
	for code, want := range map[Code]bool{
		CodeGatewayUnavailable:     true,
		CodeTimeout:                true,
		CodeUnconfirmed:            true,
		CodePartialApprovalFailure: true,
		CodeLedgerRejected:         false,
		CodeStaleRequest:           false,
		CodeNotAuthorized:          false,
		CodeMetadataUnresolvable:   false,
		CodeValidation:             false,
	} {
		s.Equal(want, IsRetryable(New(code, "x")), code)
	}
	s.False(IsRetryable(errors.New("plain")))
}

func (s *DomainErrorsSuite) TestLedgerUnavailable() {
	down := errors.New("dial tcp: connection refused")
	err := LedgerUnavailable(down, "read owner")
	s.Equal(CodeGatewayUnavailable, CodeOf(err))
	s.Equal("read owner: ledger unavailable", err.Error())
	s.ErrorIs(err, down)
	s.True(IsRetryable(err))

	err = LedgerUnavailable(fmt.Errorf("call: %w", context.DeadlineExceeded), "read owner")
	s.Equal(CodeTimeout, CodeOf(err))
	s.ErrorIs(err, context.DeadlineExceeded)

	err = LedgerUnavailable(New(CodeNotFound, "gone"), "read user")
	s.Equal(CodeGatewayUnavailable, CodeOf(err), "a read failure is never reported as a negative answer")
}
