package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/rhuss/postsmith/pkg/api"
)

const searxngName = "SearXNG"

// plainText drops every tag SearXNG uses to highlight matches.
var plainText = bluemonday.StrictPolicy()

// SearXNG implements Backend using a self-hosted SearXNG instance.
type SearXNG struct {
	BaseURL    string
	HTTPClient *http.Client
}

var _ Backend = (*SearXNG)(nil)

// NewSearXNG creates a SearXNG backend with the given base URL.
func NewSearXNG(baseURL string, timeout time.Duration) *SearXNG {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &SearXNG{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Name returns the provider name.
func (s *SearXNG) Name() string { return searxngName }

// searxngResponse represents the JSON response from SearXNG.
type searxngResponse struct {
	Results []searxngResult `json:"results"`
}

// searxngResult represents a single result from SearXNG.
type searxngResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Search queries the SearXNG instance and returns search results.
func (s *SearXNG) Search(ctx context.Context, query string, maxResults int) ([]api.SearchResult, error) {
	if s.BaseURL == "" {
		return nil, api.NewConfigurationError("SearXNG URL is not configured")
	}

	searchURL := fmt.Sprintf("%s/search?q=%s&format=json&categories=general",
		s.BaseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to create search request: %s", err.Error()))
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, api.NewTransportError(searxngName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, api.NewUpstreamError(searxngName, resp.StatusCode, string(body))
	}

	var sr searxngResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, api.NewMalformedResponseError(searxngName,
			fmt.Sprintf("SearXNG returned an unreadable response: %s", err.Error()))
	}

	results := make([]api.SearchResult, 0, min(len(sr.Results), maxResults))
	for i, r := range sr.Results {
		if i >= maxResults {
			break
		}
		results = append(results, api.SearchResult{
			Title:   stripHTML(r.Title),
			Snippet: stripHTML(r.Content),
		})
	}

	return results, nil
}

// stripHTML reduces a highlighted fragment to plain prompt text. The
// policy escapes entities, so they are decoded afterwards.
func stripHTML(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(plainText.Sanitize(s))), " ")
}
