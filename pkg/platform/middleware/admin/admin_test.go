package admin

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/requestcontext"
	"certflow/pkg/testutil"
)

type ownerChecker struct {
	owner domain.Identity
	err   error
	calls int
}

func (c *ownerChecker) RequireAdministrator(_ context.Context, caller domain.Identity) error {
	c.calls++
	if c.err != nil {
		return c.err
	}
	if !c.owner.Equal(caller) {
		return dErrors.New(dErrors.CodeNotAdministrator, "caller is not the administrator")
	}
	return nil
}

// AdminMiddlewareSuite checks that non-administrators never reach the
// wrapped handler.
type AdminMiddlewareSuite struct {
	suite.Suite
	checker *ownerChecker
	reached bool
	handler http.Handler
}

func TestAdminMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AdminMiddlewareSuite))
}

func (s *AdminMiddlewareSuite) SetupTest() {
	s.checker = &ownerChecker{owner: testutil.Admin}
	s.reached = false
	s.handler = RequireAdministrator(s.checker, slog.Default())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.reached = true
			w.WriteHeader(http.StatusNoContent)
		}),
	)
}

func (s *AdminMiddlewareSuite) serve(caller domain.Identity) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/admin/institutes", nil)
	if !caller.IsNil() {
		req = req.WithContext(requestcontext.WithIdentity(req.Context(), caller))
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *AdminMiddlewareSuite) TestOwnerPasses() {
	w := s.serve(testutil.Admin)
	s.True(s.reached)
	s.Equal(http.StatusNoContent, w.Code)
}

func (s *AdminMiddlewareSuite) TestNonOwnerBlocked() {
	w := s.serve(testutil.Institute)
	s.False(s.reached)
	s.Equal(http.StatusForbidden, w.Code)
	s.Contains(w.Body.String(), "not_administrator")
}

func (s *AdminMiddlewareSuite) TestUnauthenticatedBlocked() {
	w := s.serve("")
	s.False(s.reached)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Zero(s.checker.calls)
}

func (s *AdminMiddlewareSuite) TestLedgerOutageBlocked() {
	s.checker.err = dErrors.New(dErrors.CodeGatewayUnavailable, "read ledger owner: ledger unavailable")
	w := s.serve(testutil.Admin)
	s.False(s.reached)
	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func (s *AdminMiddlewareSuite) TestCheckedOnEveryRequest() {
	s.serve(testutil.Admin)
	s.serve(testutil.Admin)
	s.Equal(2, s.checker.calls)
}
