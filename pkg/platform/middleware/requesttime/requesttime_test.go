package requesttime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"certflow/pkg/requestcontext"
)

func TestMiddleware_SetsTimeInContext(t *testing.T) {
	var captured time.Time
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = requestcontext.Now(r.Context())
	}))

	before := time.Now()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))
	after := time.Now()

	assert.False(t, captured.IsZero())
	assert.False(t, captured.Before(before), "captured time should be >= before")
	assert.False(t, captured.After(after), "captured time should be <= after")
	assert.Equal(t, time.UTC, captured.Location())
}

func TestMiddleware_TimeIsConsistentWithinRequest(t *testing.T) {
	var first, second time.Time
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first = requestcontext.Now(r.Context())
		time.Sleep(10 * time.Millisecond)
		second = requestcontext.Now(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, first, second, "time should be consistent within request")
}

func TestWithClock(t *testing.T) {
	fixed := time.Date(2024, 6, 15, 12, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
	var captured time.Time
	handler := WithClock(func() time.Time { return fixed })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = requestcontext.Now(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.True(t, fixed.Equal(captured))
	assert.Equal(t, time.UTC, captured.Location())
}

func TestNow_FallbackToRealTime(t *testing.T) {
	before := time.Now()
	result := requestcontext.Now(context.Background())
	after := time.Now()

	assert.False(t, result.Before(before))
	assert.False(t, result.After(after))
}
