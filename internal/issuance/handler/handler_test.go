package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certflow/internal/identity"
	"certflow/internal/issuance/models"
	"certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/requestcontext"
	"certflow/pkg/testutil"
)

type stubService struct {
	err        error
	submission models.Submission
	approval   models.Approval
	reason     string
	listedFor  domain.Identity
	pending    []models.Request
	signer     domain.Identity
}

func (s *stubService) Submit(_ context.Context, signer identity.Signer, sub models.Submission) (models.Request, error) {
	s.signer = signer.Identity()
	s.submission = sub
	return models.Request{ID: 4, Student: signer.Identity(), Institute: sub.Institute, Name: sub.Name, Status: models.StatusPending}, s.err
}

func (s *stubService) Get(_ context.Context, id domain.RequestID) (models.Request, error) {
	return models.Request{ID: id, Status: models.StatusApproved}, s.err
}

func (s *stubService) ListPendingFor(_ context.Context, institute domain.Identity) ([]models.Request, error) {
	s.listedFor = institute
	return s.pending, s.err
}

func (s *stubService) ListPendingBy(_ context.Context, student domain.Identity) ([]models.Request, error) {
	s.listedFor = student
	return s.pending, s.err
}

func (s *stubService) Approve(_ context.Context, signer identity.Signer, id domain.RequestID, in models.Approval) (models.Issued, error) {
	s.signer = signer.Identity()
	s.approval = in
	return models.Issued{RequestID: id, CertificateID: 1, Student: testutil.Student, MetadataRef: "ipfs://m"}, s.err
}

func (s *stubService) ResumeApproval(_ context.Context, signer identity.Signer, id domain.RequestID) (models.Issued, error) {
	s.signer = signer.Identity()
	return models.Issued{RequestID: id, CertificateID: 2}, s.err
}

func (s *stubService) Withdraw(_ context.Context, signer identity.Signer, id domain.RequestID) (models.Cancellation, error) {
	s.signer = signer.Identity()
	return models.Cancellation{RequestID: id, Kind: models.CancelWithdrawn, TxHash: "0x1"}, s.err
}

func (s *stubService) Reject(_ context.Context, signer identity.Signer, id domain.RequestID, reason string) (models.Cancellation, error) {
	s.signer = signer.Identity()
	s.reason = reason
	return models.Cancellation{RequestID: id, Kind: models.CancelRejected, Note: reason, TxHash: "0x2"}, s.err
}

func (s *stubService) Cancel(_ context.Context, signer identity.Signer, id domain.RequestID) (models.Cancellation, error) {
	return s.Withdraw(context.Background(), signer, id)
}

func newRouter(svc *stubService, caller domain.Identity) http.Handler {
	h := New(svc, identity.AssertedSource{}, 1<<10, slog.Default())
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()
			if !caller.IsNil() {
				ctx = requestcontext.WithIdentity(ctx, caller)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	h.Register(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, &buf))
	return w
}

func TestSubmit(t *testing.T) {
	svc := &stubService{}
	w := do(t, newRouter(svc, testutil.Student), http.MethodPost, "/requests", map[string]string{
		"institute": " " + testutil.Institute.String() + " ",
		"name":      "BSc",
		"message":   "hello",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, testutil.Institute, svc.submission.Institute)
	assert.Equal(t, testutil.Student, svc.signer)

	var body RequestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, uint64(4), body.ID)
	assert.Equal(t, "pending", body.Status)
}

func TestSubmit_InvalidInstitute(t *testing.T) {
	w := do(t, newRouter(&stubService{}, testutil.Student), http.MethodPost, "/requests", map[string]string{
		"institute": "harvard",
		"name":      "BSc",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmit_NotRegistered(t *testing.T) {
	svc := &stubService{err: dErrors.New(dErrors.CodeNotRegistered, "only registered students can request certificates")}
	w := do(t, newRouter(svc, testutil.Stranger), http.MethodPost, "/requests", map[string]string{
		"institute": testutil.Institute.String(),
		"name":      "BSc",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPendingForCaller(t *testing.T) {
	svc := &stubService{pending: []models.Request{{ID: 1, Student: testutil.Student, Institute: testutil.Institute, Status: models.StatusPending}}}
	w := do(t, newRouter(svc, testutil.Institute), http.MethodGet, "/requests/pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testutil.Institute, svc.listedFor)

	var body struct {
		Requests []RequestResponse `json:"requests"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Requests, 1)
	assert.Equal(t, testutil.Student.String(), body.Requests[0].Student)
}

func TestPending_Unauthenticated(t *testing.T) {
	w := do(t, newRouter(&stubService{}, ""), http.MethodGet, "/requests/pending", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGet_StaleAndInvalidID(t *testing.T) {
	svc := &stubService{err: dErrors.New(dErrors.CodeStaleRequest, "certificate request 3 was withdrawn")}
	w := do(t, newRouter(svc, testutil.Student), http.MethodGet, "/requests/3", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "withdrawn")

	w = do(t, newRouter(&stubService{}, testutil.Student), http.MethodGet, "/requests/0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApprove_DecodesImage(t *testing.T) {
	svc := &stubService{}
	w := do(t, newRouter(svc, testutil.Institute), http.MethodPost, "/requests/7/approve", map[string]string{
		"certificate_type": "Degree",
		"name":             "BSc",
		"description":      "Honours",
		"image_base64":     base64.StdEncoding.EncodeToString([]byte("png")),
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []byte("png"), svc.approval.Image)
	assert.Equal(t, "Degree", svc.approval.CertificateType)
	assert.Equal(t, testutil.Institute, svc.signer)

	var body IssuedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, uint64(7), body.RequestID)
	assert.Equal(t, uint64(1), body.CertificateID)
}

func TestApprove_RejectsBadImage(t *testing.T) {
	w := do(t, newRouter(&stubService{}, testutil.Institute), http.MethodPost, "/requests/7/approve", map[string]string{
		"certificate_type": "Degree",
		"name":             "BSc",
		"image_base64":     "%%%",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApprove_PartialFailureIsRetryable(t *testing.T) {
	svc := &stubService{err: dErrors.New(dErrors.CodePartialApprovalFailure, "ledger write failed")}
	w := do(t, newRouter(svc, testutil.Institute), http.MethodPost, "/requests/7/approve", map[string]string{
		"certificate_type": "Degree",
		"name":             "BSc",
		"image_base64":     base64.StdEncoding.EncodeToString([]byte("png")),
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "partial_approval_failure", body["error"])
	assert.Equal(t, true, body["retryable"])
}

func TestResume(t *testing.T) {
	svc := &stubService{}
	w := do(t, newRouter(svc, testutil.Institute), http.MethodPost, "/requests/7/resume", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"certificate_id":2`)
}

func TestReject(t *testing.T) {
	svc := &stubService{}
	w := do(t, newRouter(svc, testutil.Institute), http.MethodPost, "/requests/7/reject", map[string]string{"reason": "missing transcript"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "missing transcript", svc.reason)

	var body CancellationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "rejected", body.Kind)
}

func TestWithdrawAndCancel(t *testing.T) {
	for _, path := range []string{"/requests/7/withdraw", "/requests/7/cancel"} {
		svc := &stubService{}
		w := do(t, newRouter(svc, testutil.Student), http.MethodPost, path, nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, testutil.Student, svc.signer)
	}
}

func TestWithdraw_Forbidden(t *testing.T) {
	svc := &stubService{err: dErrors.New(dErrors.CodeForbidden, "only the requesting student can withdraw a request")}
	w := do(t, newRouter(svc, testutil.Institute), http.MethodPost, "/requests/7/withdraw", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
