package transport

import (
	"context"
	"sync"
	"time"
)

// InFlightRegistry maps the post IDs of running streams to the cancel
// function of their context. DELETE /v1/posts/{id} and server shutdown use
// it to abort the provider call a run is waiting on.
type InFlightRegistry struct {
	mu   sync.Mutex
	runs map[string]inflightRun
}

type inflightRun struct {
	cancel  context.CancelFunc
	started time.Time
}

// NewInFlightRegistry creates an empty registry.
func NewInFlightRegistry() *InFlightRegistry {
	return &InFlightRegistry{runs: make(map[string]inflightRun)}
}

// Register records a cancellable run.
func (r *InFlightRegistry) Register(id string, cancel context.CancelFunc) {
	r.mu.Lock()
	r.runs[id] = inflightRun{cancel: cancel, started: time.Now()}
	r.mu.Unlock()
}

// Cancel aborts the run and reports how long it had been running. ok is
// false when the run already finished or never existed.
func (r *InFlightRegistry) Cancel(id string) (age time.Duration, ok bool) {
	r.mu.Lock()
	run, ok := r.runs[id]
	delete(r.runs, id)
	r.mu.Unlock()

	if !ok {
		return 0, false
	}
	run.cancel()
	return time.Since(run.started), true
}

// CancelAll aborts every registered run and returns how many there were.
func (r *InFlightRegistry) CancelAll() int {
	r.mu.Lock()
	runs := r.runs
	r.runs = make(map[string]inflightRun)
	r.mu.Unlock()

	for _, run := range runs {
		run.cancel()
	}
	return len(runs)
}

// Remove forgets a finished run without cancelling it.
func (r *InFlightRegistry) Remove(id string) {
	r.mu.Lock()
	delete(r.runs, id)
	r.mu.Unlock()
}

// Len returns the number of registered runs.
func (r *InFlightRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}
