package web

// errors.go turns errors into JSON responses.
//
// The technical error is logged with the request ID; the client receives
// the mapped UserMessage and, for pipeline failures, the list of reasons.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/catalogimport/internal/core"
	"github.com/JonMunkholm/catalogimport/internal/logging"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Action  string   `json:"action,omitempty"`
	Code    string   `json:"code"`
	Reasons []string `json:"reasons,omitempty"`
}

// respondError logs err and writes the mapped message with a status chosen
// from the error.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	resp := ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
	var pe *core.PipelineError
	if errors.As(err, &pe) {
		resp.Reasons = pe.Reasons
	}
	writeJSON(w, status, resp)
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	var (
		pe       *core.PipelineError
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrImportNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrNotAwaitingConfirmation), errors.Is(err, core.ErrImportInProgress):
		return http.StatusConflict
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &pe):
		switch pe.Kind {
		case core.KindFile:
			return http.StatusBadRequest
		case core.KindStructural, core.KindConversion:
			return http.StatusUnprocessableEntity
		case core.KindDeclined, core.KindCancelled:
			return http.StatusConflict
		default:
			return http.StatusInternalServerError
		}
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes v as the response body. Encoding errors are logged
// since the header is already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
