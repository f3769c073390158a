package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/rhuss/postsmith/pkg/api"
	"github.com/rhuss/postsmith/pkg/transport"
)

// Generate implements transport.Generator. Pipeline failures are delivered
// as a post in the failed or cancelled status; only request validation and
// write failures are returned.
func (p *Pipeline) Generate(ctx context.Context, req *api.GenerateRequest, w transport.ResultWriter) error {
	if apiErr := api.ValidateRequest(req, p.cfg.Validation); apiErr != nil {
		return apiErr
	}

	// The terminal write must survive cancellation of the run itself.
	writeCtx := context.WithoutCancel(ctx)

	if !req.Stream {
		res := p.Execute(ctx, Request{Topic: req.Topic})
		return w.WritePost(writeCtx, res.APIPost())
	}

	s := &streamer{w: w, ctx: writeCtx}
	id := api.NewPostID()

	s.emit(api.StreamEvent{
		Type: api.EventPostCreated,
		Post: &api.Post{
			ID:        id,
			Object:    "post",
			Status:    api.PostStatusInProgress,
			Topic:     req.Topic,
			CreatedAt: time.Now().Unix(),
		},
	})
	if s.err != nil {
		return s.err
	}

	res := p.Execute(ctx, Request{
		ID:    id,
		Topic: req.Topic,
		Progress: func(pr Progress) {
			s.emit(api.StreamEvent{
				Type:        api.EventPostProgress,
				Progress:    pr.Fraction,
				Description: pr.Description,
				State:       pr.State,
			})
		},
	})

	s.emit(api.StreamEvent{
		Type:  terminalEvent(res.Status()),
		Post:  res.APIPost(),
		State: res.State,
	})
	return s.err
}

func terminalEvent(status api.PostStatus) api.StreamEventType {
	switch status {
	case api.PostStatusFailed:
		return api.EventPostFailed
	case api.PostStatusCancelled:
		return api.EventPostCancelled
	default:
		return api.EventPostCompleted
	}
}

// streamer numbers events and stops writing after the first failure.
type streamer struct {
	w   transport.ResultWriter
	ctx context.Context
	seq int
	err error
}

func (s *streamer) emit(ev api.StreamEvent) {
	if s.err != nil {
		return
	}
	ev.SequenceNumber = s.seq
	s.seq++
	if err := s.w.WriteEvent(s.ctx, ev); err != nil {
		slog.Debug("stream write failed", "type", ev.Type, "error", err)
		s.err = err
	}
}
