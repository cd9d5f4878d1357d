package middleware

import (
	"context"
	"sync"
)

type contextKey string

const (
	ctxSessionID contextKey = "session_id"
	ctxTrace     contextKey = "request_trace"
)

// SessionIDFromContext returns the caller's session id or "".
func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

// WithSessionID injects the session identifier into the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if tr := traceFromContext(ctx); tr != nil {
		tr.setSessionID(sessionID)
	}
	return context.WithValue(ctx, ctxSessionID, sessionID)
}

// RequestIDFromContext returns the id RequestID assigned, or "".
func RequestIDFromContext(ctx context.Context) string {
	if tr := traceFromContext(ctx); tr != nil {
		return tr.requestID
	}
	return ""
}

// requestTrace is shared by every middleware layer of one request. Outer
// layers such as Recoverer see values that inner layers recorded after them.
type requestTrace struct {
	requestID string

	mu        sync.Mutex
	sessionID string
}

func (t *requestTrace) setSessionID(id string) {
	t.mu.Lock()
	t.sessionID = id
	t.mu.Unlock()
}

func (t *requestTrace) session() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionID
}

func withTrace(ctx context.Context, t *requestTrace) context.Context {
	return context.WithValue(ctx, ctxTrace, t)
}

func traceFromContext(ctx context.Context) *requestTrace {
	if ctx == nil {
		return nil
	}
	t, _ := ctx.Value(ctxTrace).(*requestTrace)
	return t
}
