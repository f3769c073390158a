package pipeline

import (
	"errors"
	"time"

	"github.com/rhuss/postsmith/pkg/api"
)

// BlankTopicMessage is returned instead of running the pipeline when the
// topic is empty or whitespace only.
const BlankTopicMessage = "Please enter a topic to generate a LinkedIn post."

// Result is the outcome of one run. Exactly one of Post and Err is
// meaningful unless Rejected is set, in which case neither is.
type Result struct {
	ID        string
	Topic     string
	State     api.State
	Results   []api.SearchResult
	Summary   string
	Post      string
	Err       error
	Rejected  bool
	CreatedAt time.Time
	Duration  time.Duration
}

// Text flattens the result to what a user sees.
func (r *Result) Text() string {
	switch {
	case r.Rejected:
		return BlankTopicMessage
	case r.Err != nil:
		return "Error: " + r.Err.Error()
	default:
		return r.Post
	}
}

// Kind returns the error type of a failed run, or "" otherwise.
func (r *Result) Kind() api.ErrorType {
	return api.KindOf(r.Err)
}

// Status maps the run outcome onto the client-facing post status.
func (r *Result) Status() api.PostStatus {
	switch {
	case r.Rejected:
		return api.PostStatusRejected
	case r.Err == nil:
		return api.PostStatusCompleted
	case r.Kind() == api.ErrorTypeCancelled:
		return api.PostStatusCancelled
	default:
		return api.PostStatusFailed
	}
}

// APIPost converts the result to its wire representation.
func (r *Result) APIPost() *api.Post {
	p := &api.Post{
		ID:        r.ID,
		Object:    "post",
		Status:    r.Status(),
		Topic:     r.Topic,
		Output:    r.Text(),
		CreatedAt: r.CreatedAt.Unix(),
	}
	if r.Err != nil {
		var apiErr *api.APIError
		if !errors.As(r.Err, &apiErr) {
			apiErr = api.NewServerError(r.Err.Error())
		}
		p.Error = apiErr
	}
	return p
}

// Run converts the result to the metadata record kept in run history.
func (r *Result) Run() *api.Run {
	run := &api.Run{
		ID:          r.ID,
		Object:      "run",
		Topic:       r.Topic,
		State:       r.State,
		ResultCount: len(r.Results),
		CreatedAt:   r.CreatedAt.Unix(),
		DurationMS:  r.Duration.Milliseconds(),
	}
	if r.Err != nil {
		run.ErrorType = r.Kind()
		run.ErrorMessage = r.Err.Error()
	}
	return run
}

// outcome is the label used for the runs counter.
func (r *Result) outcome() string {
	switch {
	case r.Rejected:
		return "rejected"
	case r.Err != nil:
		return string(r.Kind())
	default:
		return string(api.StateDone)
	}
}
