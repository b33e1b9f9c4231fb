package middleware

import "net/http"

// MaxBodySize caps the request body at maxBytes. Reads past the cap fail
// with *http.MaxBytesError, which the logging stage turns into a 413, so an
// oversized body is never buffered in full.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
