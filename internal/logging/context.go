package logging

import (
	"context"
	"log/slog"

	"docket/internal/services"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if runID, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, String(FieldRunID, runID))
	}
	if doc, ok := services.DocumentFromContext(ctx); ok {
		fields = append(fields, String(FieldDocument, doc))
	}
	return fields
}

// WithContext returns a logger enriched with run and document fields carried
// by the context. Returns a nop logger when logger is nil.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
