package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rhuss/postsmith/pkg/debug"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. .env file (POSTSMITH_ENV_FILE or ./.env)
//  3. YAML config file (explicit path, POSTSMITH_CONFIG env, ./config.yaml, /etc/postsmith/config.yaml)
//  4. Environment variable overrides
//  5. File reference resolution (_file suffix)
//  6. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
		debug.Log("config", "loaded config file", "path", filePath)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile populates the process environment from a dotenv file.
// Variables already set are left untouched. A missing ./.env is fine;
// a missing file named by POSTSMITH_ENV_FILE is an error.
func loadEnvFile() error {
	path := os.Getenv("POSTSMITH_ENV_FILE")
	explicit := path != ""
	if !explicit {
		path = ".env"
	}

	err := godotenv.Load(path)
	if err == nil {
		debug.Log("config", "loaded env file", "path", path)
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading env file %s: %w", path, err)
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. POSTSMITH_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/postsmith/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("POSTSMITH_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/postsmith/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
// Unknown keys are rejected so typos do not pass silently.
func loadYAMLFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnvOverrides maps environment variables to config fields. The
// variable names used by the original deployment (SERPAPI_KEY,
// GROQ_API_KEY, MAX_SEARCH_RESULTS, GROQ_MODEL) are applied first so the
// POSTSMITH_* names win when both are present.
func applyEnvOverrides(cfg *Config) error {
	var errs []error

	str := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = n
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v := os.Getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = d
		}
	}
	flag := func(name string, dst *bool) {
		if v := os.Getenv(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = b
		}
	}

	// Legacy names.
	str("SERPAPI_KEY", &cfg.Search.APIKey)
	str("GROQ_API_KEY", &cfg.LLM.APIKey)
	num("MAX_SEARCH_RESULTS", &cfg.Search.MaxResults)
	str("GROQ_MODEL", &cfg.LLM.Model)

	num("POSTSMITH_PORT", &cfg.Server.Port)

	str("POSTSMITH_SEARCH_BACKEND", &cfg.Search.Backend)
	str("POSTSMITH_SEARCH_URL", &cfg.Search.BaseURL)
	str("POSTSMITH_SEARCH_API_KEY", &cfg.Search.APIKey)
	num("POSTSMITH_MAX_RESULTS", &cfg.Search.MaxResults)
	dur("POSTSMITH_SEARCH_TIMEOUT", &cfg.Search.Timeout)

	str("POSTSMITH_LLM_URL", &cfg.LLM.BaseURL)
	str("POSTSMITH_LLM_API_KEY", &cfg.LLM.APIKey)
	str("POSTSMITH_MODEL", &cfg.LLM.Model)
	dur("POSTSMITH_LLM_TIMEOUT", &cfg.LLM.Timeout)

	str("POSTSMITH_STORAGE", &cfg.Storage.Type)
	num("POSTSMITH_STORAGE_SIZE", &cfg.Storage.MaxSize)
	str("POSTSMITH_POSTGRES_DSN", &cfg.Storage.Postgres.DSN)

	str("POSTSMITH_AUTH_TYPE", &cfg.Auth.Type)
	str("POSTSMITH_JWT_SECRET", &cfg.Auth.JWT.Secret)
	str("POSTSMITH_JWT_JWKS_URL", &cfg.Auth.JWT.JWKSURL)
	num("POSTSMITH_RATE_LIMIT", &cfg.Auth.RateLimit)

	flag("POSTSMITH_MCP_ENABLED", &cfg.MCP.Enabled)
	flag("POSTSMITH_METRICS_ENABLED", &cfg.Observability.Metrics.Enabled)

	str("POSTSMITH_LOG_LEVEL", &cfg.Logging.Level)
	str("POSTSMITH_DEBUG", &cfg.Logging.Debug)
	str("POSTSMITH_LOG_FORMAT", &cfg.Logging.Format)

	// POSTSMITH_API_KEYS: JSON array of API key configs.
	if v := os.Getenv("POSTSMITH_API_KEYS"); v != "" {
		keys, err := parseAPIKeysJSON(v)
		if err != nil {
			errs = append(errs, err)
		} else if len(keys) > 0 {
			cfg.Auth.APIKeys = keys
		}
	}

	return errors.Join(errs...)
}

// parseAPIKeysJSON parses a JSON array of API key configurations.
func parseAPIKeysJSON(jsonStr string) ([]APIKeyConfig, error) {
	var keys []APIKeyConfig
	if err := json.Unmarshal([]byte(jsonStr), &keys); err != nil {
		return nil, fmt.Errorf("parsing POSTSMITH_API_KEYS: %w", err)
	}
	return keys, nil
}

type secretRef struct {
	name string
	file string
	dst  *string
}

// resolveFileReferences reads _file fields and populates the corresponding
// value fields. A file is only read when the value field is still empty;
// its content is whitespace-trimmed.
func resolveFileReferences(cfg *Config) error {
	refs := []secretRef{
		{"search.api_key_file", cfg.Search.APIKeyFile, &cfg.Search.APIKey},
		{"llm.api_key_file", cfg.LLM.APIKeyFile, &cfg.LLM.APIKey},
		{"storage.postgres.dsn_file", cfg.Storage.Postgres.DSNFile, &cfg.Storage.Postgres.DSN},
		{"auth.jwt.secret_file", cfg.Auth.JWT.SecretFile, &cfg.Auth.JWT.Secret},
	}
	for i := range cfg.Auth.APIKeys {
		refs = append(refs, secretRef{fmt.Sprintf("auth.api_keys[%d].key_file", i), cfg.Auth.APIKeys[i].KeyFile, &cfg.Auth.APIKeys[i].Key})
	}

	for _, ref := range refs {
		if ref.file == "" || *ref.dst != "" {
			continue
		}
		val, err := readSecretFile(ref.file)
		if err != nil {
			return fmt.Errorf("%s: %w", ref.name, err)
		}
		*ref.dst = val
	}
	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
