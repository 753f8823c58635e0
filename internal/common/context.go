package common

import (
	"context"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeySessionID contextKey = "session_id"
	ContextKeyTrainer   contextKey = "trainer"
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

// WithSessionID adds a submission session ID to the context
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ContextKeySessionID, sessionID)
}

// SessionIDFromContext extracts the submission session ID from context
func SessionIDFromContext(ctx context.Context) string {
	if sessionID, ok := ctx.Value(ContextKeySessionID).(string); ok {
		return sessionID
	}
	return ""
}

// WithTrainer marks the context as authenticated trainer access.
func WithTrainer(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, ContextKeyTrainer, subject)
}

// TrainerFromContext returns the trainer subject, if any.
func TrainerFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(ContextKeyTrainer).(string)
	return s, ok && s != ""
}
