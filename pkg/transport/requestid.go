package transport

import (
	"context"

	"github.com/google/uuid"

	"github.com/rhuss/postsmith/pkg/api"
)

// RequestIDHeader carries a client-chosen request ID and is echoed on
// every response.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// WithRequestID returns a copy of ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID of ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestID makes sure every run has a request ID. IDs taken from
// RequestIDHeader by the HTTP adapter are kept.
func RequestID() Middleware {
	return func(next Generator) Generator {
		return GeneratorFunc(func(ctx context.Context, req *api.GenerateRequest, w ResultWriter) error {
			if RequestIDFromContext(ctx) == "" {
				ctx = WithRequestID(ctx, uuid.NewString())
			}
			return next.Generate(ctx, req, w)
		})
	}
}
