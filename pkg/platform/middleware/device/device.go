// Package device classifies the calling client from its User-Agent so access
// logs and audit events can tell browsers from scripts.
package device

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"certflow/pkg/requestcontext"
)

// Client kinds recorded in the request context.
const (
	KindBrowser = "browser"
	KindMobile  = "mobile"
	KindBot     = "bot"
	KindCLI     = "cli"
	KindUnknown = "unknown"
)

// cliPrefixes are User-Agent product tokens of command line HTTP clients.
var cliPrefixes = []string{"certctl/", "curl/", "Wget/", "Go-http-client/", "python-requests/", "HTTPie/"}

// Classify maps a User-Agent string to a client kind.
func Classify(userAgent string) string {
	ua := strings.TrimSpace(userAgent)
	if ua == "" {
		return KindUnknown
	}
	for _, prefix := range cliPrefixes {
		if strings.HasPrefix(ua, prefix) {
			return KindCLI
		}
	}
	parsed := useragent.New(ua)
	switch {
	case parsed.Bot():
		return KindBot
	case parsed.Mobile():
		return KindMobile
	}
	if name, _ := parsed.Browser(); name != "" && parsed.OS() != "" {
		return KindBrowser
	}
	return KindUnknown
}

// Device stores the client kind in the request context. It should be
// registered after the metadata middleware, which extracts the User-Agent.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userAgent := requestcontext.UserAgent(ctx)
		if userAgent == "" {
			userAgent = r.Header.Get("User-Agent")
		}
		ctx = requestcontext.WithClientKind(ctx, Classify(userAgent))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
