package transport

import (
	"context"

	"github.com/rhuss/postsmith/pkg/api"
)

// Generator handles the core create-post operation. The implementation
// receives a request and writes the outcome (streaming progress events or
// a complete post) to the ResultWriter.
//
// Pipeline failures are part of the outcome, not returned errors: a
// Generator returns an error only when nothing could be written.
type Generator interface {
	Generate(ctx context.Context, req *api.GenerateRequest, w ResultWriter) error
}

// GeneratorFunc is an adapter that allows using an ordinary function
// as a Generator.
type GeneratorFunc func(ctx context.Context, req *api.GenerateRequest, w ResultWriter) error

// Generate calls f(ctx, req, w).
func (f GeneratorFunc) Generate(ctx context.Context, req *api.GenerateRequest, w ResultWriter) error {
	return f(ctx, req, w)
}

// ListOptions controls pagination, filtering, and ordering for list operations.
type ListOptions struct {
	After string    // Cursor: return runs after this ID.
	Limit int       // Maximum number of runs to return (default 20, max 100).
	State api.State // Filter runs by terminal state.
	Order string    // Sort order: "asc" or "desc" (default "desc").
}

// RunList holds a paginated list of runs.
type RunList struct {
	Object  string     `json:"object"`
	Data    []*api.Run `json:"data"`
	HasMore bool       `json:"has_more"`
	FirstID string     `json:"first_id"`
	LastID  string     `json:"last_id"`
}

// RunStore persists run metadata. It is only available when a storage
// backend is configured. Implementations scope every operation to the
// tenant found in the context, if any.
type RunStore interface {
	// SaveRun persists a finished run.
	SaveRun(ctx context.Context, run *api.Run) error

	// GetRun retrieves a run by ID. Returns storage.ErrNotFound if the run
	// does not exist.
	GetRun(ctx context.Context, id string) (*api.Run, error)

	// DeleteRun removes a run by ID.
	DeleteRun(ctx context.Context, id string) error

	// ListRuns returns a paginated list of runs.
	ListRuns(ctx context.Context, opts ListOptions) (*RunList, error)

	// HealthCheck verifies the store connection is functional.
	HealthCheck(ctx context.Context) error

	// Close releases database connections and resources.
	Close() error
}

// ResultWriter abstracts streaming and non-streaming output for the
// Generator. WriteEvent and WritePost are mutually exclusive on a single
// writer instance, and no event may follow a terminal event.
type ResultWriter interface {
	// WriteEvent sends a single streaming event.
	WriteEvent(ctx context.Context, event api.StreamEvent) error

	// WritePost sends a complete non-streaming result.
	WritePost(ctx context.Context, post *api.Post) error

	// Flush ensures buffered data is sent to the client. Returns an error
	// if the client has disconnected.
	Flush() error
}
