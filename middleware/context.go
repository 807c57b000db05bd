package middleware

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// CallerKey is the context key for the caller identity
	CallerKey contextKey = "caller"
)

// CallerSource tells how a caller was identified
type CallerSource string

const (
	CallerSourceToken CallerSource = "token"
	CallerSourceIP    CallerSource = "ip"
)

// Caller identifies who is making a request, for rate limiting and logging
type Caller struct {
	ID     string
	Source CallerSource
}

// Key returns the identifier used for per-caller budgets
func (c Caller) Key() string {
	if c.Source == CallerSourceToken {
		return "user:" + c.ID
	}
	return c.ID
}

// GetRequestIDFromContext retrieves the request ID from context,
// falling back to the one assigned by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return chimw.GetReqID(ctx)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetCallerFromContext retrieves the caller from context
func GetCallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(CallerKey).(Caller)
	return caller, ok
}

// WithCaller adds the caller to the context
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, CallerKey, caller)
}
