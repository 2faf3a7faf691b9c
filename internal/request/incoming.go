package request

import (
	"context"
	"net/http"
)

type incomingKey struct{}

// WithIncoming attaches the request being served, so its headers can be
// forwarded by reactive fetches issued while handling it.
func WithIncoming(ctx context.Context, r *http.Request) context.Context {
	return context.WithValue(ctx, incomingKey{}, r)
}

// IncomingFromContext returns the attached request, or nil.
func IncomingFromContext(ctx context.Context) *http.Request {
	r, _ := ctx.Value(incomingKey{}).(*http.Request)
	return r
}

// ambientHeaders copies the named headers from the incoming request.
func ambientHeaders(ctx context.Context, names []string) map[string]string {
	r := IncomingFromContext(ctx)
	if r == nil || len(names) == 0 {
		return map[string]string{}
	}

	out := make(map[string]string, len(names))
	for _, name := range names {
		if v := r.Header.Get(name); v != "" {
			out[http.CanonicalHeaderKey(name)] = v
		}
	}
	return out
}
