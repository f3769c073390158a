package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rhuss/postsmith/pkg/api"
	"github.com/rhuss/postsmith/pkg/observability"
	"github.com/rhuss/postsmith/pkg/transport"
)

// responseMode is fixed by the first write.
type responseMode uint8

const (
	modeUnset responseMode = iota
	modeStream
	modeJSON
)

var (
	errWriterDone   = errors.New("result writer already finished")
	errModeConflict = errors.New("result writer already committed to another response mode")
)

// sseResultWriter answers a generate request either as a text/event-stream
// of post events or as one JSON post.
type sseResultWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController

	mu     sync.Mutex
	mode   responseMode
	done   bool
	gauged bool

	// onCreated receives the post ID of the first post.created event so the
	// run can be registered for cancellation.
	onCreated func(id string)
}

var _ transport.ResultWriter = (*sseResultWriter)(nil)

// newSSEResultWriter wraps w. onCreated may be nil.
func newSSEResultWriter(w http.ResponseWriter, onCreated func(id string)) *sseResultWriter {
	return &sseResultWriter{w: w, rc: http.NewResponseController(w), onCreated: onCreated}
}

// WriteEvent sends one "event: <type>\ndata: <json>\n\n" frame. A terminal
// event is followed by "data: [DONE]\n\n" and finishes the writer.
func (s *sseResultWriter) WriteEvent(ctx context.Context, event api.StreamEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commit(modeStream); err != nil {
		return err
	}

	if cb := s.onCreated; cb != nil && event.Type == api.EventPostCreated && event.Post != nil {
		s.onCreated = nil
		cb(event.Post.ID)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	if err := s.frame("event: %s\ndata: %s\n\n", event.Type, data); err != nil {
		return err
	}

	if !event.Type.IsTerminal() {
		return nil
	}
	s.done = true
	s.release()
	return s.frame("data: [DONE]\n\n")
}

// WritePost sends the finished post as application/json.
func (s *sseResultWriter) WritePost(ctx context.Context, post *api.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commit(modeJSON); err != nil {
		return err
	}
	s.done = true

	s.w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(s.w).Encode(post); err != nil {
		return fmt.Errorf("encode post: %w", err)
	}
	return nil
}

// Flush pushes buffered bytes to the client.
func (s *sseResultWriter) Flush() error {
	return s.rc.Flush()
}

// Close drops the streaming gauge for streams that ended without a
// terminal event. Idempotent.
func (s *sseResultWriter) Close() {
	s.mu.Lock()
	s.release()
	s.mu.Unlock()
}

// streamed reports whether event-stream headers have gone out, in which
// case errors must be reported as events.
func (s *sseResultWriter) streamed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode == modeStream
}

// commit must be called with mu held.
func (s *sseResultWriter) commit(mode responseMode) error {
	if s.done {
		return errWriterDone
	}
	switch s.mode {
	case mode:
		return nil
	case modeUnset:
	default:
		return errModeConflict
	}

	s.mode = mode
	if mode == modeStream {
		h := s.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		s.gauged = true
		observability.StreamingConnections.Inc()
	}
	return nil
}

func (s *sseResultWriter) frame(format string, args ...any) error {
	if _, err := fmt.Fprintf(s.w, format, args...); err != nil {
		return fmt.Errorf("write sse frame: %w", err)
	}
	if err := s.rc.Flush(); err != nil {
		return fmt.Errorf("flush sse frame: %w", err)
	}
	return nil
}

func (s *sseResultWriter) release() {
	if s.gauged {
		s.gauged = false
		observability.StreamingConnections.Dec()
	}
}
