package request

import "net/http"

// BodyLimit caps request bodies at maxBytes. A declared Content-Length over
// the cap is refused before the handler runs; undeclared bodies are cut off
// by http.MaxBytesReader and fail at decode time.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeJSON(w, http.StatusRequestEntityTooLarge,
					`{"error":"request_too_large","error_description":"request body exceeds the server limit"}`)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// EncodedBodyLimit returns a body cap that admits a base64 payload of
// rawBytes plus JSON framing.
func EncodedBodyLimit(rawBytes int64) int64 {
	const framing = 64 << 10
	return (rawBytes+2)/3*4 + framing
}
