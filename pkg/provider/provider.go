package provider

import "context"

// Completer generates text for a single prompt. Implementations issue one
// outbound request per call, never retry, and return errors classified as
// *api.APIError.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Completer interface {
	// Name returns the provider identifier used in logs, metrics and errors.
	Name() string

	// Complete sends prompt as the only user message and returns the
	// generated text with surrounding whitespace removed.
	Complete(ctx context.Context, prompt string) (string, error)
}
