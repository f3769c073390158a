package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rhuss/postsmith/pkg/api"
	"github.com/rhuss/postsmith/pkg/debug"
	"github.com/rhuss/postsmith/pkg/observability"
	"github.com/rhuss/postsmith/pkg/provider"
)

// Defaults applied by NewClient for zero-valued Config fields.
const (
	DefaultBaseURL     = "https://api.groq.com/openai"
	DefaultModel       = "meta-llama/llama-4-maverick-17b-128e-instruct"
	DefaultName        = "GroqCloud"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1024
	DefaultTimeout     = 60 * time.Second
)

// Config configures a Client.
type Config struct {
	// Name identifies the backend in error messages and metrics.
	Name string

	// BaseURL is the API root; "/v1/chat/completions" is appended.
	BaseURL string
	APIKey  string
	Model   string

	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client performs single-prompt completions against an OpenAI-compatible
// Chat Completions backend.
type Client struct {
	httpClient  *http.Client
	name        string
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
}

var _ provider.Completer = (*Client)(nil)

// NewClient creates a new Client. A missing API key is not an error here;
// it is reported on the first Complete call.
func NewClient(cfg Config) *Client {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		name:        cfg.Name,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string { return c.name }

// Model returns the model id sent with every request.
func (c *Client) Model() string { return c.model }

// Complete sends prompt as a single user message and returns the trimmed
// content of the first choice.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := c.complete(ctx, prompt)

	status := "ok"
	if err != nil {
		status = string(api.KindOf(err))
	}
	observability.ObserveProviderCall(c.name, status, time.Since(start))

	return text, err
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", api.NewConfigurationError(c.name + " API key is not configured")
	}

	chatReq := ChatCompletionRequest{
		Model:       c.model,
		Messages:    []ChatMessage{{Role: "user", Content: prompt}},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return "", api.NewServerError(fmt.Sprintf("failed to marshal request: %s", err.Error()))
	}

	url := c.baseURL + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", api.NewServerError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	debug.Log("providers", "chat completion request", "url", url, "model", c.model, "prompt_chars", len(prompt))
	debug.Trace("providers", "chat completion request body", "body", debug.Truncate(string(body), 4096))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", api.NewTransportError(c.name, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		apiErr := MapHTTPError(c.name, httpResp)
		if msg := ExtractErrorMessage(apiErr.Body); msg != "" {
			slog.Debug("backend rejected completion", "provider", c.name, "status", httpResp.StatusCode, "message", msg)
		}
		return "", apiErr
	}

	var chatResp ChatCompletionResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&chatResp); err != nil {
		return "", api.NewMalformedResponseError(c.name,
			fmt.Sprintf("%s returned an unreadable response: %s", c.name, err.Error()))
	}

	if chatResp.Usage != nil {
		observability.ProviderTokensTotal.WithLabelValues(c.name, "input").Add(float64(chatResp.Usage.PromptTokens))
		observability.ProviderTokensTotal.WithLabelValues(c.name, "output").Add(float64(chatResp.Usage.CompletionTokens))
	}

	return ExtractContent(c.name, &chatResp)
}

// ExtractContent returns choices[0].message.content with surrounding
// whitespace removed. Any missing step of that path is a malformed response.
func ExtractContent(providerName string, resp *ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", api.NewMalformedResponseError(providerName,
			fmt.Sprintf("%s response contains no choices", providerName))
	}
	msg := resp.Choices[0].Message
	if msg == nil {
		return "", api.NewMalformedResponseError(providerName,
			fmt.Sprintf("%s response choice has no message", providerName))
	}
	if msg.Content == nil {
		return "", api.NewMalformedResponseError(providerName,
			fmt.Sprintf("%s response message has no content", providerName))
	}
	return strings.TrimSpace(*msg.Content), nil
}

// Close releases client resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
