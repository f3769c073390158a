// Package config provides unified configuration for postsmith.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. .env file (does not override variables already in the environment)
//  3. YAML config file (discovered or explicitly specified)
//  4. Environment variable overrides (POSTSMITH_ prefix and legacy names)
//  5. File reference resolution (_file suffix fields)
//  6. Validation
//
// Provider credentials are optional at load time. A missing credential
// surfaces as a configuration error on the first call that needs it.
package config

import "time"

// Config holds all configuration for postsmith.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Search        SearchConfig        `yaml:"search"`
	LLM           LLMConfig           `yaml:"llm"`
	Storage       StorageConfig       `yaml:"storage"`
	Auth          AuthConfig          `yaml:"auth"`
	MCP           MCPConfig           `yaml:"mcp"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int           `yaml:"port"`             // default: 8080
	ReadTimeout    time.Duration `yaml:"read_timeout"`     // default: 30s
	WriteTimeout   time.Duration `yaml:"write_timeout"`    // default: 180s
	MaxBodySize    int64         `yaml:"max_body_size"`    // default: 64 KiB
	MaxTopicLength int           `yaml:"max_topic_length"` // default: 500
}

// SearchConfig selects and configures the web search backend.
type SearchConfig struct {
	Backend      string        `yaml:"backend"`  // "serpapi" or "searxng", default: "serpapi"
	BaseURL      string        `yaml:"base_url"` // required for searxng
	APIKey       string        `yaml:"api_key"`
	APIKeyFile   string        `yaml:"api_key_file"`
	MaxResults   int           `yaml:"max_results"` // default: 7
	GoogleDomain string        `yaml:"google_domain"`
	GL           string        `yaml:"gl"`
	HL           string        `yaml:"hl"`
	Timeout      time.Duration `yaml:"timeout"` // default: 30s
}

// LLMConfig configures the OpenAI-compatible chat completion provider.
type LLMConfig struct {
	Name        string        `yaml:"name"` // provider name in logs and errors, default: "GroqCloud"
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	APIKeyFile  string        `yaml:"api_key_file"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"` // default: 0.7
	MaxTokens   int           `yaml:"max_tokens"`  // default: 1024
	Timeout     time.Duration `yaml:"timeout"`     // default: 60s
}

// StorageConfig holds run history settings.
type StorageConfig struct {
	Type     string         `yaml:"type"`     // "none", "memory" or "postgres", default: "memory"
	MaxSize  int            `yaml:"max_size"` // for memory store, default: 1000
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`
	MaxConns       int32  `yaml:"max_conns"`        // default: 10
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	Type    string         `yaml:"type"` // "none", "apikey" or "jwt", default: "none"
	APIKeys []APIKeyConfig `yaml:"api_keys"`
	JWT     JWTConfig      `yaml:"jwt"`

	// RateLimit caps POST requests per subject and minute. Each run
	// spends one search and two completions. 0 disables the limit.
	RateLimit int `yaml:"rate_limit"`
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Key      string `yaml:"key" json:"key"`
	KeyFile  string `yaml:"key_file" json:"key_file"`
	Subject  string `yaml:"subject" json:"subject"`
	TenantID string `yaml:"tenant_id" json:"tenant_id"`
}

// JWTConfig holds bearer token validation settings. Either Secret (HS256)
// or JWKSURL (RS256/384/512) must be set when auth.type is "jwt".
type JWTConfig struct {
	Secret      string `yaml:"secret"`
	SecretFile  string `yaml:"secret_file"`
	JWKSURL     string `yaml:"jwks_url"`
	Issuer      string `yaml:"issuer"`
	Audience    string `yaml:"audience"`
	TenantClaim string `yaml:"tenant_claim"` // default: "tenant_id"
}

// MCPConfig controls the MCP tool endpoint.
type MCPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // default: "/mcp"
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// LoggingConfig holds log output settings. POSTSMITH_LOG_LEVEL and
// POSTSMITH_DEBUG take precedence over the file values.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // TRACE, DEBUG, INFO, WARN, ERROR; default: INFO
	Debug  string `yaml:"debug"`  // comma-separated debug categories
	Format string `yaml:"format"` // "text" or "json", default: "text"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:           8080,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   180 * time.Second,
			MaxBodySize:    64 << 10,
			MaxTopicLength: 500,
		},
		Search: SearchConfig{
			Backend:      "serpapi",
			MaxResults:   7,
			GoogleDomain: "google.com",
			GL:           "us",
			HL:           "en",
			Timeout:      30 * time.Second,
		},
		LLM: LLMConfig{
			Name:        "GroqCloud",
			BaseURL:     "https://api.groq.com/openai",
			Model:       "meta-llama/llama-4-maverick-17b-128e-instruct",
			Temperature: 0.7,
			MaxTokens:   1024,
			Timeout:     60 * time.Second,
		},
		Storage: StorageConfig{
			Type:    "memory",
			MaxSize: 1000,
			Postgres: PostgresConfig{
				MaxConns: 10,
			},
		},
		Auth: AuthConfig{
			Type: "none",
			JWT: JWTConfig{
				TenantClaim: "tenant_id",
			},
		},
		MCP: MCPConfig{
			Path: "/mcp",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}

const redacted = "********"

// Redacted returns a copy of the configuration with every secret replaced,
// suitable for printing.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return redacted
	}

	out := c
	out.Search.APIKey = mask(c.Search.APIKey)
	out.LLM.APIKey = mask(c.LLM.APIKey)
	out.Storage.Postgres.DSN = mask(c.Storage.Postgres.DSN)
	out.Auth.JWT.Secret = mask(c.Auth.JWT.Secret)

	out.Auth.APIKeys = make([]APIKeyConfig, len(c.Auth.APIKeys))
	for i, k := range c.Auth.APIKeys {
		k.Key = mask(k.Key)
		out.Auth.APIKeys[i] = k
	}
	return out
}
