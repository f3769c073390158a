// Package search retrieves web search results for a topic and normalizes
// them into the fixed-shape [api.SearchResult] list the pipeline consumes.
//
// A [Backend] talks to one search provider (SerpAPI or SearXNG). The
// [Client] wraps a backend with the rules every backend shares: at most
// maxResults entries in provider order, and an empty list is a
// no-results error.
package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/rhuss/postsmith/pkg/api"
	"github.com/rhuss/postsmith/pkg/debug"
	"github.com/rhuss/postsmith/pkg/observability"
)

// Backend is the interface for pluggable search providers. Implementations
// issue exactly one outbound request per call and never retry.
type Backend interface {
	// Name identifies the provider in logs, metrics and error messages.
	Name() string

	// Search returns up to maxResults normalized results in provider order.
	Search(ctx context.Context, query string, maxResults int) ([]api.SearchResult, error)
}

// Client applies the shared result rules on top of a Backend.
type Client struct {
	backend Backend
}

// NewClient creates a Client for the given backend.
func NewClient(backend Backend) *Client {
	return &Client{backend: backend}
}

// Backend returns the wrapped backend.
func (c *Client) Backend() Backend {
	return c.backend
}

// Search retrieves results for topic. The returned slice is non-empty and
// holds at most maxResults entries.
func (c *Client) Search(ctx context.Context, topic string, maxResults int) ([]api.SearchResult, error) {
	if maxResults <= 0 {
		return nil, api.NewConfigurationError("max search results must be positive")
	}

	name := c.backend.Name()
	debug.Log("search", "query", "backend", name, "topic", topic, "max_results", maxResults)

	start := time.Now()
	results, err := c.backend.Search(ctx, topic, maxResults)
	elapsed := time.Since(start)
	if err != nil {
		observability.ObserveProviderCall(name, string(api.KindOf(err)), elapsed)
		slog.Debug("search failed", "backend", name, "error", err, "duration", elapsed)
		return nil, err
	}
	observability.ObserveProviderCall(name, "ok", elapsed)

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	observability.SearchResults.WithLabelValues(name).Observe(float64(len(results)))

	if len(results) == 0 {
		return nil, api.NewNoResultsError("No search results found")
	}

	debug.Log("search", "results", "backend", name, "count", len(results), "duration", elapsed)
	return results, nil
}
