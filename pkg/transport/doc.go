// Package transport defines the handler interfaces and middleware chain for
// the postsmith HTTP/SSE transport layer.
//
// # Handler Interfaces
//
//   - Generator runs the post pipeline for one request and writes the
//     outcome to a ResultWriter.
//   - RunStore exposes run history, available only when a storage backend
//     is configured.
//
// The ResultWriter interface abstracts streaming and non-streaming output,
// letting the generator emit SSE progress events or a complete JSON post
// without knowing the underlying transport.
//
// # Middleware
//
// The middleware chain wraps Generator with cross-cutting concerns:
// panic recovery, request ID assignment (X-Request-ID) and structured
// logging via log/slog.
package transport
