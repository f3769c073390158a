package transport

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/rhuss/postsmith/pkg/api"
)

// Logging writes one access log entry per generate request. The entry
// carries the status of the post that was delivered, so rejected and
// failed runs can be told apart without reading the pipeline log.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Generator) Generator {
		return GeneratorFunc(func(ctx context.Context, req *api.GenerateRequest, w ResultWriter) error {
			start := time.Now()
			rec := &statusRecorder{ResultWriter: w}

			err := next.Generate(ctx, req, rec)

			attrs := []slog.Attr{
				slog.String("request_id", RequestIDFromContext(ctx)),
				slog.Int("topic_chars", utf8.RuneCountInString(req.Topic)),
				slog.Bool("stream", req.Stream),
				slog.Duration("duration", time.Since(start)),
			}
			if rec.status != "" {
				attrs = append(attrs, slog.String("status", string(rec.status)))
			}

			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelError, "generate request failed", attrs...)
			} else {
				logger.LogAttrs(ctx, slog.LevelInfo, "generate request", attrs...)
			}
			return err
		})
	}
}

// statusRecorder remembers the status of the last post passed through it.
type statusRecorder struct {
	ResultWriter
	status api.PostStatus
}

func (r *statusRecorder) WriteEvent(ctx context.Context, ev api.StreamEvent) error {
	if ev.Post != nil {
		r.status = ev.Post.Status
	}
	return r.ResultWriter.WriteEvent(ctx, ev)
}

func (r *statusRecorder) WritePost(ctx context.Context, p *api.Post) error {
	r.status = p.Status
	return r.ResultWriter.WritePost(ctx, p)
}
