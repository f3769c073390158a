package transport

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/rhuss/postsmith/pkg/api"
)

// Recovery returns middleware that catches panics in the generator and
// converts them to server errors. The server keeps accepting requests
// after a recovered panic.
func Recovery() Middleware {
	return func(next Generator) Generator {
		return GeneratorFunc(func(ctx context.Context, req *api.GenerateRequest, w ResultWriter) (retErr error) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("panic in generator", "panic", r, "request_id", RequestIDFromContext(ctx), "stack", string(debug.Stack()))
					retErr = api.NewServerError(fmt.Sprintf("internal server error: %v", r))
				}
			}()
			return next.Generate(ctx, req, w)
		})
	}
}
