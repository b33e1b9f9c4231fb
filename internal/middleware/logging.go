package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// secretFields are stripped from logged JSON bodies.
var secretFields = map[string]bool{
	"password":    true,
	"oldPassword": true,
	"newPassword": true,
}

// secretHeaders are masked in logged headers.
var secretHeaders = map[string]bool{
	"Authorization": true,
	"Cookie":        true,
}

// HTTPLogging logs every incoming request before its handler runs and the
// outgoing response after it completes. Bodies are sanitized: secret fields
// are stripped, secret headers masked.
func HTTPLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			var reqBody []byte
			if r.Body != nil {
				var err error
				reqBody, err = io.ReadAll(r.Body)
				if err != nil {
					var tooLarge *http.MaxBytesError
					if errors.As(err, &tooLarge) {
						logger.Warn("request body over limit",
							"request_id", requestID, "limit", tooLarge.Limit)
						http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
						return
					}
					logger.Error("failed to read request body", "error", err)
					http.Error(w, "failed to read request body", http.StatusBadRequest)
					return
				}
				// Restore body for the handler
				r.Body = io.NopCloser(bytes.NewReader(reqBody))
			}

			logger.Info("incoming request",
				"request_id", requestID,
				"method", r.Method,
				"url", r.URL.Path,
				"origin", originOf(r),
				"body", SanitizeBody(reqBody),
				"headers", maskHeaders(r.Header),
			)

			rec := &responseRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				body:           new(bytes.Buffer),
			}

			start := time.Now()
			next.ServeHTTP(rec, r)
			duration := time.Since(start)

			logger.Info("outgoing response",
				"request_id", requestID,
				"method", r.Method,
				"url", r.URL.Path,
				"origin", originOf(r),
				"status", rec.statusCode,
				"body", SanitizeBody(rec.body.Bytes()),
				"duration_ms", duration.Milliseconds(),
			)
		})
	}
}

// originOf prefers the reverse-proxy supplied client address.
func originOf(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// SanitizeBody removes secret fields from a JSON object body. Non-JSON and
// non-UTF-8 bodies are replaced with placeholders rather than logged raw.
func SanitizeBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if !utf8.Valid(body) {
		return "<binary>"
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return "<non-json>"
	}

	for field := range fields {
		if secretFields[field] {
			delete(fields, field)
		}
	}

	sanitized, err := json.Marshal(fields)
	if err != nil {
		return "<non-json>"
	}
	return string(sanitized)
}

// maskHeaders renders headers with secret values masked.
func maskHeaders(headers http.Header) map[string]string {
	result := make(map[string]string, len(headers))
	for name, values := range headers {
		if len(values) == 0 {
			continue
		}
		if secretHeaders[name] {
			result[name] = maskValue(values[0])
			continue
		}
		result[name] = strings.Join(values, ", ")
	}
	return result
}

// maskValue keeps a short prefix for correlation and hides the rest.
func maskValue(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:4] + "****"
}

// responseRecorder captures status and body for the outgoing-response log.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
