package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rhuss/postsmith/pkg/api"
	"github.com/rhuss/postsmith/pkg/debug"
)

// DefaultSerpAPIURL is the SerpAPI search endpoint.
const DefaultSerpAPIURL = "https://serpapi.com/search"

const serpAPIName = "SerpAPI"

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 64 * 1024

// SerpAPIConfig configures a SerpAPI backend.
type SerpAPIConfig struct {
	BaseURL      string
	APIKey       string
	GoogleDomain string
	GL           string
	HL           string
	Timeout      time.Duration
}

// SerpAPI implements Backend using the SerpAPI Google engine.
type SerpAPI struct {
	cfg        SerpAPIConfig
	HTTPClient *http.Client
}

var _ Backend = (*SerpAPI)(nil)

// NewSerpAPI creates a SerpAPI backend. Empty fields fall back to the
// google.com / us / en locale and a 30 second timeout. A missing API key is
// not an error here; it is reported on the first Search call.
func NewSerpAPI(cfg SerpAPIConfig) *SerpAPI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultSerpAPIURL
	}
	if cfg.GoogleDomain == "" {
		cfg.GoogleDomain = "google.com"
	}
	if cfg.GL == "" {
		cfg.GL = "us"
	}
	if cfg.HL == "" {
		cfg.HL = "en"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SerpAPI{
		cfg:        cfg,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the provider name.
func (s *SerpAPI) Name() string { return serpAPIName }

// serpAPIResponse is the subset of the SerpAPI payload that is consumed.
type serpAPIResponse struct {
	OrganicResults []serpAPIResult `json:"organic_results"`
}

type serpAPIResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Search queries SerpAPI for query and returns the organic results.
func (s *SerpAPI) Search(ctx context.Context, query string, maxResults int) ([]api.SearchResult, error) {
	if s.cfg.APIKey == "" {
		return nil, api.NewConfigurationError("SerpAPI key is not configured")
	}

	params := url.Values{}
	params.Set("api_key", s.cfg.APIKey)
	params.Set("q", query)
	params.Set("google_domain", s.cfg.GoogleDomain)
	params.Set("gl", s.cfg.GL)
	params.Set("hl", s.cfg.HL)
	params.Set("num", strconv.Itoa(maxResults))

	endpoint := s.cfg.BaseURL
	if strings.Contains(endpoint, "?") {
		endpoint += "&" + params.Encode()
	} else {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to create search request: %s", err.Error()))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, api.NewTransportError(serpAPIName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, api.NewTransportError(serpAPIName, err)
	}

	if debug.TraceIsEnabled("search") {
		debug.Trace("search", "serpapi response", "status", resp.StatusCode, "body", debug.Truncate(string(body), 2048))
	}

	if resp.StatusCode != http.StatusOK {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, api.NewUpstreamError(serpAPIName, resp.StatusCode, string(body))
	}

	var sr serpAPIResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, api.NewMalformedResponseError(serpAPIName,
			fmt.Sprintf("SerpAPI returned an unreadable response: %s", err.Error()))
	}

	results := make([]api.SearchResult, 0, min(len(sr.OrganicResults), maxResults))
	for i, r := range sr.OrganicResults {
		if i >= maxResults {
			break
		}
		results = append(results, api.SearchResult{
			Title:   r.Title,
			Snippet: r.Snippet,
		})
	}

	return results, nil
}
