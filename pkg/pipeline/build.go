package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rhuss/postsmith/pkg/api"
	"github.com/rhuss/postsmith/pkg/config"
	"github.com/rhuss/postsmith/pkg/provider/openaicompat"
	"github.com/rhuss/postsmith/pkg/search"
	"github.com/rhuss/postsmith/pkg/storage/memory"
	"github.com/rhuss/postsmith/pkg/storage/postgres"
	"github.com/rhuss/postsmith/pkg/transport"
)

// Components bundles a configured pipeline with the resources it owns.
type Components struct {
	Pipeline  *Pipeline
	Searcher  *search.Client
	Completer *openaicompat.Client

	// Store is nil when run history is disabled.
	Store transport.RunStore
}

// Close releases the store and idle provider connections.
func (c *Components) Close() error {
	c.Completer.Close()
	if c.Store != nil {
		return c.Store.Close()
	}
	return nil
}

// FromConfig builds the search backend, completion client, run store and
// pipeline described by cfg.
func FromConfig(ctx context.Context, cfg *config.Config) (*Components, error) {
	backend, err := NewSearchBackend(cfg.Search)
	if err != nil {
		return nil, err
	}
	searcher := search.NewClient(backend)

	completer := openaicompat.NewClient(openaicompat.Config{
		Name:        cfg.LLM.Name,
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	})

	store, err := NewStore(ctx, cfg.Storage)
	if err != nil {
		completer.Close()
		return nil, err
	}

	p, err := New(searcher, completer, store, Config{
		MaxResults: cfg.Search.MaxResults,
		Validation: api.ValidationConfig{MaxTopicLength: cfg.Server.MaxTopicLength},
	})
	if err != nil {
		completer.Close()
		if store != nil {
			store.Close()
		}
		return nil, err
	}

	slog.Info("pipeline configured",
		"search", backend.Name(),
		"llm", completer.Name(),
		"model", completer.Model(),
		"max_results", cfg.Search.MaxResults,
		"search_key_set", cfg.Search.APIKey != "",
		"llm_key_set", cfg.LLM.APIKey != "",
	)

	return &Components{
		Pipeline:  p,
		Searcher:  searcher,
		Completer: completer,
		Store:     store,
	}, nil
}

// NewSearchBackend creates the search backend selected by cfg.Backend.
func NewSearchBackend(cfg config.SearchConfig) (search.Backend, error) {
	switch cfg.Backend {
	case "", "serpapi":
		return search.NewSerpAPI(search.SerpAPIConfig{
			BaseURL:      cfg.BaseURL,
			APIKey:       cfg.APIKey,
			GoogleDomain: cfg.GoogleDomain,
			GL:           cfg.GL,
			HL:           cfg.HL,
			Timeout:      cfg.Timeout,
		}), nil
	case "searxng":
		return search.NewSearXNG(cfg.BaseURL, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown search backend %q", cfg.Backend)
	}
}

// NewStore creates the run store selected by cfg.Type. It returns a nil
// store for "none".
func NewStore(ctx context.Context, cfg config.StorageConfig) (transport.RunStore, error) {
	switch cfg.Type {
	case "", "none":
		slog.Info("run history disabled")
		return nil, nil
	case "memory":
		slog.Info("run history enabled", "type", "memory", "max_size", cfg.MaxSize)
		return memory.New(cfg.MaxSize), nil
	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("creating postgres store: %w", err)
		}
		slog.Info("run history enabled", "type", "postgres")
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
