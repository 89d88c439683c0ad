package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "certflow/pkg/domain-errors"
)

type nameRequest struct {
	Name string `json:"name"`

	normalized bool
}

func (r *nameRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.normalized = true
}

func (r *nameRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type idRequest struct {
	ID string `json:"id"`
}

func (r *idRequest) Validate() error {
	if r.ID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "id is required")
	}
	return nil
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("normalizes before validating", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"  BSc  "}`))
		w := httptest.NewRecorder()

		result, ok := DecodeAndPrepare[nameRequest](w, req, logger, ctx, "req-1")

		require.True(t, ok)
		assert.Equal(t, "BSc", result.Name)
		assert.True(t, result.normalized)
	})

	t.Run("plain validation error maps to validation_error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"   "}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[nameRequest](w, req, logger, ctx, "req-1")

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "validation_error", decodeError(t, w).Error)
	})

	t.Run("domain validation error keeps its code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"id":""}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[idRequest](w, req, logger, ctx, "req-1")

		assert.False(t, ok)
		resp := decodeError(t, w)
		assert.Equal(t, "bad_request", resp.Error)
		assert.Contains(t, resp.Description, "id is required")
	})

	t.Run("malformed json is bad_request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{nope`))
		w := httptest.NewRecorder()

		_, ok := DecodeJSON[nameRequest](w, req, logger, ctx, "req-1")

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		big := `{"name":"` + strings.Repeat("a", 64) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(big))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepareLimit[nameRequest](w, req, logger, ctx, "req-1", 16)

		assert.False(t, ok)
		assert.Equal(t, "request body too large", decodeError(t, w).Description)
	})
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		code      dErrors.Code
		status    int
		retryable bool
	}{
		{dErrors.CodeGatewayUnavailable, http.StatusServiceUnavailable, true},
		{dErrors.CodeNotAdministrator, http.StatusForbidden, false},
		{dErrors.CodeAlreadyAuthorized, http.StatusConflict, false},
		{dErrors.CodeStaleRequest, http.StatusConflict, false},
		{dErrors.CodePartialApprovalFailure, http.StatusBadGateway, true},
		{dErrors.CodeUnconfirmed, http.StatusAccepted, true},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, dErrors.New(tc.code, "msg"))
			assert.Equal(t, tc.status, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, string(tc.code), resp.Error)
			assert.Equal(t, tc.retryable, resp.Retryable)
		})
	}

	t.Run("non-domain error is internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("boom"))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal_error", decodeError(t, w).Error)
	})
}
