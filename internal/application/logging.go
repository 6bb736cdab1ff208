package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/openlibrary-kontrolle/internal/domain"
	"github.com/example/openlibrary-kontrolle/internal/logging"
	"github.com/example/openlibrary-kontrolle/internal/persistence"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// serviceLogger prefers the request logger carried by ctx so request_id and
// operation_id land on the same lines.
func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = defaultLogger(base)
	}
	pairs := append([]any{"service", serviceName, "operation", operation}, attrs...)
	return logger.With(pairs...)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrConcurrentModification):
		return "concurrent_modification"
	case errors.Is(err, persistence.ErrConflict), errors.Is(err, persistence.ErrAlreadyExists):
		return "conflict"
	case errors.Is(err, persistence.ErrTransient):
		return "transient"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnreadableDocument):
		return "unreadable"
	}

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
