package common

import (
	"context"
	"time"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyDocumentID contextKey = "document_id"
	ContextKeyAttempt    contextKey = "attempt"
)

// WithDocumentID adds a document ID to the context
func WithDocumentID(ctx context.Context, documentID string) context.Context {
	return context.WithValue(ctx, ContextKeyDocumentID, documentID)
}

// DocumentIDFromContext extracts the document ID from context
func DocumentIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyDocumentID).(string); ok {
		return id
	}
	return ""
}

// WithAttempt tags the context with the navigation generation it belongs to
func WithAttempt(ctx context.Context, attempt uint64) context.Context {
	return context.WithValue(ctx, ContextKeyAttempt, attempt)
}

// AttemptFromContext extracts the navigation generation from context
func AttemptFromContext(ctx context.Context) uint64 {
	if n, ok := ctx.Value(ContextKeyAttempt).(uint64); ok {
		return n
	}
	return 0
}

// WithOptionalTimeout applies timeout when it is positive; otherwise it only adds a cancel func.
func WithOptionalTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(parent, timeout)
	}
	return context.WithCancel(parent)
}
