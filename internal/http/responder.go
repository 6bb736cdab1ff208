package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/openlibrary-kontrolle/internal/application"
	"github.com/example/openlibrary-kontrolle/internal/domain"
	"github.com/example/openlibrary-kontrolle/internal/persistence"
)

var (
	errBadRequestBody = errors.New("request body is not valid JSON")
	errInvalidWeek    = errors.New("week must have the form YYYY-Www")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).WarnContext(ctx, "request rejected", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// failure ties a sentinel from the lower layers to its HTTP rendering. An
// empty message means the error text itself is shown.
type failure struct {
	target  error
	status  int
	code    string
	message string
}

var failures = []failure{
	{application.ErrConcurrentModification, http.StatusConflict, "CONCURRENT_MODIFICATION", ""},
	{application.ErrNotFound, http.StatusNotFound, "NOT_FOUND", localizedStatusMessage(http.StatusNotFound)},
	{persistence.ErrTransient, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", localizedStatusMessage(http.StatusServiceUnavailable)},
	{application.ErrUnreadableDocument, http.StatusInternalServerError, "DOCUMENT_UNREADABLE", "the stored document cannot be read; it was left untouched"},
}

// handleServiceError renders repository errors. Store failures keep a generic
// message; the details go to the log.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "VALIDATION_FAILED",
			Message:   localizedStatusMessage(http.StatusUnprocessableEntity),
			Errors:    vErr.FieldErrors,
		})
		return
	}

	for _, f := range failures {
		if err == nil || !errors.Is(err, f.target) {
			continue
		}
		if f.status == http.StatusServiceUnavailable {
			w.Header().Set("Retry-After", "5")
		}
		resp := errorResponse{ErrorCode: f.code, Message: f.message}
		if resp.Message == "" {
			resp.Message = err.Error()
		}
		r.loggerFor(ctx).WarnContext(ctx, "request failed", "status", f.status, "error", err)
		r.writeJSON(ctx, w, f.status, resp)
		return
	}

	r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err)
	r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: localizedStatusMessage(http.StatusInternalServerError)})
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "the request is malformed"
	case http.StatusNotFound:
		return "the requested entry does not exist"
	case http.StatusConflict:
		return "the document was changed by someone else; reload and retry"
	case http.StatusUnprocessableEntity:
		return "the input is invalid"
	case http.StatusServiceUnavailable:
		return "the document store is temporarily unavailable; retry later"
	default:
		return "internal server error"
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// decodeJSON decodes the request body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

const maxBodyBytes = 1 << 20
