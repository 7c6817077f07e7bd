package services

import (
	"context"
	"log/slog"

	"ecorecovery/internal/infrastructure"
)

// logServiceError logs a failed service operation with the request's trace
// id and the standard service attributes.
func logServiceError(ctx context.Context, logger *slog.Logger, action, message string, attrs ...slog.Attr) {
	if logger == nil {
		logger = infrastructure.LoggerWithContext(ctx)
	}

	allAttrs := []slog.Attr{
		slog.String("action", action),
	}
	allAttrs = append(allAttrs, attrs...)

	logger.LogAttrs(ctx, slog.LevelError, message, allAttrs...)
}
