// Package middleware provides the HTTP middleware stages shared by every
// route: request identifiers, body size limits, and sanitized
// request/response logging.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "request-id"

// requestIDHeader carries the correlation ID on both requests and responses.
const requestIDHeader = "X-Request-ID"

// maxRequestIDLen bounds reused client-supplied IDs.
const maxRequestIDLen = 128

// RequestID tags every request with a correlation ID. A well-formed incoming
// header value is trusted so IDs survive proxy hops; anything else is
// replaced with a fresh UUID. The ID lands in the request context and on the
// response header before the handler runs.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := requestIDFor(r)
		w.Header().Set(requestIDHeader, id)

		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestIDFor reuses the client-supplied ID when it is non-empty, within
// length, and restricted to alphanumerics plus "-", "_", and ".".
func requestIDFor(r *http.Request) string {
	id := r.Header.Get(requestIDHeader)
	if id == "" || len(id) > maxRequestIDLen || strings.ContainsFunc(id, isDisallowedIDRune) {
		return uuid.NewString()
	}
	return id
}

func isDisallowedIDRune(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return false
	case c == '-', c == '_', c == '.':
		return false
	}
	return true
}

// GetRequestID returns the request's correlation ID, or "" outside the
// middleware chain.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
