package api

// StreamEventType identifies the kind of a streaming event.
type StreamEventType string

const (
	EventPostCreated   StreamEventType = "post.created"
	EventPostProgress  StreamEventType = "post.progress"
	EventPostCompleted StreamEventType = "post.completed"
	EventPostFailed    StreamEventType = "post.failed"
	EventPostCancelled StreamEventType = "post.cancelled"
)

// StreamEvent represents a single server-sent event in a streaming run.
// Progress events carry the milestone fraction and its description;
// lifecycle events carry the post snapshot.
type StreamEvent struct {
	Type           StreamEventType `json:"type"`
	SequenceNumber int             `json:"sequence_number"`
	Post           *Post           `json:"post,omitempty"`
	Progress       float64         `json:"progress,omitempty"`
	Description    string          `json:"description,omitempty"`
	State          State           `json:"state,omitempty"`
}

// IsTerminal reports whether the event ends the stream.
func (e StreamEventType) IsTerminal() bool {
	switch e {
	case EventPostCompleted, EventPostFailed, EventPostCancelled:
		return true
	}
	return false
}
