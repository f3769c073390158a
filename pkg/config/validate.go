package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rhuss/postsmith/pkg/debug"
)

// Validate checks the configuration for required fields and valid values.
// All problems are reported together, each with its field path.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		add("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.MaxBodySize <= 0 {
		add("server.max_body_size must be > 0, got %d", c.Server.MaxBodySize)
	}

	switch c.Search.Backend {
	case "serpapi":
	case "searxng":
		if c.Search.BaseURL == "" {
			add("search.base_url is required when search.backend is \"searxng\"")
		}
	default:
		add("search.backend must be \"serpapi\" or \"searxng\", got %q", c.Search.Backend)
	}
	if c.Search.MaxResults <= 0 {
		add("search.max_results must be > 0, got %d", c.Search.MaxResults)
	}
	if c.Search.Timeout <= 0 {
		add("search.timeout must be > 0, got %s", c.Search.Timeout)
	}

	if c.LLM.BaseURL == "" {
		add("llm.base_url is required")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		add("llm.temperature must be between 0 and 2, got %v", c.LLM.Temperature)
	}
	if c.LLM.MaxTokens <= 0 {
		add("llm.max_tokens must be > 0, got %d", c.LLM.MaxTokens)
	}
	if c.LLM.Timeout <= 0 {
		add("llm.timeout must be > 0, got %s", c.LLM.Timeout)
	}

	switch c.Storage.Type {
	case "none", "memory":
	case "postgres":
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			add("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\"")
		}
	default:
		add("storage.type must be \"none\", \"memory\" or \"postgres\", got %q", c.Storage.Type)
	}

	switch c.Auth.Type {
	case "none":
	case "apikey":
		if len(c.Auth.APIKeys) == 0 {
			add("auth.api_keys must not be empty when auth.type is \"apikey\"")
		}
		for i, k := range c.Auth.APIKeys {
			if k.Key == "" {
				add("auth.api_keys[%d].key is empty", i)
			}
		}
	case "jwt":
		if c.Auth.JWT.Secret == "" && c.Auth.JWT.JWKSURL == "" {
			add("auth.jwt.secret or auth.jwt.jwks_url is required when auth.type is \"jwt\"")
		}
	default:
		add("auth.type must be \"none\", \"apikey\" or \"jwt\", got %q", c.Auth.Type)
	}
	if c.Auth.RateLimit < 0 {
		add("auth.rate_limit must not be negative, got %d", c.Auth.RateLimit)
	}

	if c.MCP.Enabled && !strings.HasPrefix(c.MCP.Path, "/") {
		add("mcp.path must start with \"/\", got %q", c.MCP.Path)
	}
	if c.Observability.Metrics.Enabled && !strings.HasPrefix(c.Observability.Metrics.Path, "/") {
		add("observability.metrics.path must start with \"/\", got %q", c.Observability.Metrics.Path)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		add("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}
	if c.Logging.Level != "" && !debug.ValidLevel(c.Logging.Level) {
		add("logging.level %q is not one of TRACE, DEBUG, INFO, WARN, ERROR", c.Logging.Level)
	}
	for _, cat := range debug.UnknownCategories(c.Logging.Debug) {
		add("logging.debug: unknown category %q (known: %s)", cat, strings.Join(debug.Known, ", "))
	}

	return errors.Join(errs...)
}
