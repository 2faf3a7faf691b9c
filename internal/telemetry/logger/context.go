package logger

import "context"

type ctxKey int

const (
	loggerKey ctxKey = iota
	requestIDKey
)

// WithLogger stores l in ctx.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored in ctx, or Default.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithRequestID stores the ID of the request being served or sent.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID in ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// L returns the logger from ctx bound to ctx, so its entries carry the
// request ID.
func L(ctx context.Context) Logger {
	return FromContext(ctx).WithContext(ctx)
}
