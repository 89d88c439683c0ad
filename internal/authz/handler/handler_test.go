package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certflow/internal/authz/models"
	"certflow/internal/content"
	"certflow/internal/identity"
	"certflow/internal/ledger"
	"certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/requestcontext"
	"certflow/pkg/testutil"
)

type stubGate struct {
	authorized bool
	institutes []models.Institute
	users      []models.User
	err        error
	signer     domain.Identity
}

func (s *stubGate) IsAuthorized(context.Context, domain.Identity) (bool, error) {
	return s.authorized, s.err
}

func (s *stubGate) Authorize(_ context.Context, signer identity.Signer, _ domain.Identity) (ledger.Receipt, error) {
	s.signer = signer.Identity()
	return ledger.Receipt{TxHash: "0xabc"}, s.err
}

func (s *stubGate) Revoke(_ context.Context, signer identity.Signer, _ domain.Identity) (ledger.Receipt, error) {
	s.signer = signer.Identity()
	return ledger.Receipt{TxHash: "0xdef"}, s.err
}

func (s *stubGate) ListInstitutes(context.Context) ([]models.Institute, error) {
	return s.institutes, s.err
}

func (s *stubGate) ListUsers(context.Context, domain.Identity) ([]models.User, error) {
	return s.users, s.err
}

func newRouter(g *stubGate, caller domain.Identity) http.Handler {
	h := New(g, identity.AssertedSource{}, slog.Default())
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
	h.RegisterAdmin(r)
	return r
}

func do(h http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestListInstitutes(t *testing.T) {
	g := &stubGate{institutes: []models.Institute{
		{Identity: testutil.Institute, Authorized: true, MetadataRef: "ipfs://p", Profile: &content.ProviderProfile{InstitutionName: "Example"}},
		{Identity: testutil.Other, MetadataRef: "ipfs://q", ProfileError: "metadata_unresolvable"},
	}}
	w := do(newRouter(g, ""), http.MethodGet, "/institutes")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Institutes []InstituteResponse `json:"institutes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Institutes, 2)
	assert.Equal(t, "Example", body.Institutes[0].InstitutionName)
	assert.True(t, body.Institutes[0].Authorized)
	assert.Equal(t, "metadata_unresolvable", body.Institutes[1].ProfileError)
}

func TestAuthorization(t *testing.T) {
	w := do(newRouter(&stubGate{authorized: true}, ""), http.MethodGet, "/institutes/"+testutil.Institute.String()+"/authorization")
	require.Equal(t, http.StatusOK, w.Code)

	var body AuthorizationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Authorized)
}

func TestAuthorization_InvalidIdentity(t *testing.T) {
	w := do(newRouter(&stubGate{}, ""), http.MethodGet, "/institutes/nobody/authorization")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthorize_SignsAsCaller(t *testing.T) {
	g := &stubGate{}
	w := do(newRouter(g, testutil.Admin), http.MethodPost, "/admin/institutes/"+testutil.Institute.String()+"/authorize")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testutil.Admin, g.signer)

	var body AuthorizationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Authorized)
	assert.Equal(t, "0xabc", body.TxHash)
}

func TestRevoke(t *testing.T) {
	g := &stubGate{}
	w := do(newRouter(g, testutil.Admin), http.MethodPost, "/admin/institutes/"+testutil.Institute.String()+"/revoke")
	require.Equal(t, http.StatusOK, w.Code)

	var body AuthorizationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Authorized)
}

func TestAuthorize_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not administrator", dErrors.New(dErrors.CodeNotAdministrator, "no"), http.StatusForbidden},
		{"already authorized", dErrors.New(dErrors.CodeAlreadyAuthorized, "dup"), http.StatusConflict},
		{"unconfirmed", dErrors.New(dErrors.CodeUnconfirmed, "pending"), http.StatusAccepted},
		{"ledger down", dErrors.New(dErrors.CodeGatewayUnavailable, "down"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(newRouter(&stubGate{err: tt.err}, testutil.Stranger), http.MethodPost, "/admin/institutes/"+testutil.Institute.String()+"/authorize")
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestAuthorize_Unauthenticated(t *testing.T) {
	w := do(newRouter(&stubGate{}, ""), http.MethodPost, "/admin/institutes/"+testutil.Institute.String()+"/authorize")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListUsers(t *testing.T) {
	g := &stubGate{users: []models.User{{Identity: testutil.Student, Role: domain.RoleStudent, MetadataRef: "ipfs://s"}}}
	w := do(newRouter(g, testutil.Admin), http.MethodGet, "/admin/users")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Users []UserResponse `json:"users"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Users, 1)
	assert.Equal(t, "student", body.Users[0].Role)
}
