package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/opsgate/opsgate/internal/apperr"
	"github.com/opsgate/opsgate/internal/metrics"
	"github.com/opsgate/opsgate/internal/middleware"
)

// result is a staged response. Handlers return one instead of writing to the
// ResponseWriter themselves, so serialization happens in exactly one place.
type result struct {
	status int
	body   map[string]any
	cause  error // underlying error, logged only for uncategorized failures
}

// succeeded builds a 200 result. Extra fields are merged into the standard
// success envelope.
func succeeded(extra map[string]any) result {
	body := map[string]any{"success": true}
	for k, v := range extra {
		body[k] = v
	}
	return result{status: http.StatusOK, body: body}
}

// failed builds the uniform failure result from categorized errors. The
// first error decides the HTTP status; all codes are listed in order.
func failed(errs ...*apperr.Error) result {
	codes := make([]apperr.Code, len(errs))
	for i, e := range errs {
		codes[i] = e.Code
	}
	return result{
		status: errs[0].Kind.HTTPStatus(),
		body:   map[string]any{"success": false, "err": codes},
		cause:  errs[0],
	}
}

// actionFailed wraps a single model error into a failure result.
func actionFailed(err error) result {
	return failed(apperr.From(err))
}

// send serializes the staged result. Only uncategorized failures are logged
// with full detail; categorized failures are expected control flow. Auth
// failures are counted for the metrics endpoint.
func send(logger *slog.Logger, w http.ResponseWriter, r *http.Request, res result) {
	if res.cause != nil {
		observeFailure(logger, r, res)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.status)
	if err := json.NewEncoder(w).Encode(res.body); err != nil {
		logger.Error("failed to encode response",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err)
	}
}

func observeFailure(logger *slog.Logger, r *http.Request, res result) {
	codes, _ := res.body["err"].([]apperr.Code)

	switch res.status {
	case http.StatusInternalServerError:
		logger.Error("request failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"method", r.Method,
			"url", r.URL.Path,
			"error", res.cause)
	case http.StatusForbidden:
		reason := "invalid_session"
		if len(codes) > 0 && codes[0] == apperr.CodeInvalidUsernameOrPassword {
			reason = "invalid_credentials"
		}
		metrics.RecordAuthFailure(reason)
	case http.StatusUnauthorized:
		metrics.RecordAuthFailure("permission_denied")
	}
}

// decodeBody parses the request body as a JSON object. A missing or
// malformed body yields an empty map so field validation reports the
// individual missing fields instead of a parse failure.
func decodeBody(r *http.Request) map[string]any {
	values := make(map[string]any)
	if r.Body == nil {
		return values
	}
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		return make(map[string]any)
	}
	return values
}
