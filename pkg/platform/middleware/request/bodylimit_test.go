package request

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBodyLimit(t *testing.T) {
	echo := func(t *testing.T) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := io.ReadAll(r.Body)
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				return
			}
			require.NoError(t, err)
			_, _ = w.Write(data)
		})
	}

	t.Run("body within limit reaches handler", func(t *testing.T) {
		rec := httptest.NewRecorder()
		BodyLimit(64)(echo(t)).ServeHTTP(rec,
			httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(`{"certificate_name":"BSc"}`)))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `{"certificate_name":"BSc"}`, rec.Body.String())
	})

	t.Run("declared oversize refused up front", func(t *testing.T) {
		called := false
		h := BodyLimit(16)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(strings.Repeat("x", 17))))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.False(t, called)
		assert.Contains(t, rec.Body.String(), "request_too_large")
	})

	t.Run("undeclared oversize cut off while reading", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(strings.Repeat("x", 32)))
		req.ContentLength = -1
		rec := httptest.NewRecorder()
		BodyLimit(16)(echo(t)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestEncodedBodyLimit(t *testing.T) {
	raw := int64(5 << 20)
	limit := EncodedBodyLimit(raw)
	assert.GreaterOrEqual(t, limit, raw*4/3)
	assert.Less(t, limit, raw*2)
}
