package middleware

import (
	"net/http"
)

// DefaultMaxBodySize is 1MB, plenty for any resident-facing payload.
const DefaultMaxBodySize int64 = 1 << 20

// RequestSize limits the size of incoming request bodies. Bodies beyond
// maxBytes fail with 413 when read.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
