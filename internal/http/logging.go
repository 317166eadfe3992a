package http

import (
	"context"
	"log/slog"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// handlerLogger prefers the request-scoped logger installed by RequestLogger
// and tags it with the handler, the operation and the caller's role.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = defaultLogger(fallback)
	}

	pairs := make([]any, 0, 6+len(attrs))
	pairs = append(pairs, "handler", handlerName)
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if principal, ok := PrincipalFromContext(ctx); ok {
		pairs = append(pairs, "caller_role", callerRole(principal.IsGuest(), principal.IsManager))
	}
	return logger.With(append(pairs, attrs...)...)
}

func callerRole(guest, manager bool) string {
	switch {
	case manager:
		return "manager"
	case guest:
		return "guest"
	default:
		return "member"
	}
}
