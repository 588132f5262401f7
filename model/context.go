package model

import "context"

// RequestContext carries per-request metadata for the lifetime of an intake
// API call. The flow is anonymous customer traffic, so there is no
// authenticated identity here; sessions are addressed by opaque server-issued
// identifiers. Immutable after construction and safe for concurrent reads.
type RequestContext struct {
	CorrelationID string
	TraceID       string
	Locale        string
	UserAgent     string
	ClientIP      string
}

type contextKey struct{}

// WithRequestContext attaches a RequestContext to the given context.
func WithRequestContext(ctx context.Context, rctx *RequestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, rctx)
}

// RequestContextFrom extracts the RequestContext from the context, or returns
// nil if not present.
func RequestContextFrom(ctx context.Context) *RequestContext {
	rctx, _ := ctx.Value(contextKey{}).(*RequestContext)
	return rctx
}
