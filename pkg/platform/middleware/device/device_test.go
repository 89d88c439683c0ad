package device

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"certflow/pkg/requestcontext"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		expected  string
	}{
		{"empty", "", KindUnknown},
		{"certctl", "certctl/1.0", KindCLI},
		{"curl", "curl/8.4.0", KindCLI},
		{"go client", "Go-http-client/1.1", KindCLI},
		{"desktop browser", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36", KindBrowser},
		{"mobile browser", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1", KindMobile},
		{"crawler", "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", KindBot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.userAgent))
		})
	}
}

func TestDeviceMiddleware(t *testing.T) {
	t.Run("prefers the user agent from context", func(t *testing.T) {
		var kind string
		handler := Device(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			kind = requestcontext.ClientKind(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		ctx := requestcontext.WithClientMetadata(req.Context(), "10.0.0.1", "certctl/1.0")
		handler.ServeHTTP(httptest.NewRecorder(), req.WithContext(ctx))

		assert.Equal(t, KindCLI, kind)
	})

	t.Run("falls back to the header", func(t *testing.T) {
		var kind string
		handler := Device(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			kind = requestcontext.ClientKind(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("User-Agent", "curl/8.4.0")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, KindCLI, kind)
	})

	t.Run("missing user agent is unknown", func(t *testing.T) {
		var kind string
		handler := Device(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			kind = requestcontext.ClientKind(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Del("User-Agent")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, KindUnknown, kind)
	})
}
