package common

import (
	"context"
	"log/slog"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyFileName  contextKey = "file_name"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithFileName records the uploaded file name for downstream logging.
func WithFileName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ContextKeyFileName, name)
}

// FileNameFromContext extracts the file name from context
func FileNameFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(ContextKeyFileName).(string); ok {
		return name
	}
	return ""
}

// LoggerFrom returns logger enriched with the request id and file name found in ctx.
func LoggerFrom(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if id := RequestIDFromContext(ctx); id != "" {
		logger = logger.With("req_id", id)
	}
	if name := FileNameFromContext(ctx); name != "" {
		logger = logger.With("file_name", name)
	}
	return logger
}
