package transport

import "log/slog"

// Middleware wraps a Generator. Chain(a, b)(g) runs a, then b, then g.
type Middleware func(Generator) Generator

// Chain composes middlewares so that the first one is the outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(g Generator) Generator {
		for i := len(middlewares) - 1; i >= 0; i-- {
			g = middlewares[i](g)
		}
		return g
	}
}

// Defaults is the middleware stack every front end puts in front of the
// pipeline.
func Defaults(logger *slog.Logger) Middleware {
	return Chain(Recovery(), RequestID(), Logging(logger))
}
