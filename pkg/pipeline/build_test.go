package pipeline

import (
	"context"
	"testing"

	"github.com/rhuss/postsmith/pkg/config"
	"github.com/rhuss/postsmith/pkg/search"
	"github.com/rhuss/postsmith/pkg/storage/memory"
)

func TestFromConfig_Defaults(t *testing.T) {
	cfg := config.Defaults()

	c, err := FromConfig(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}
	defer c.Close()

	if c.Searcher.Backend().Name() != "SerpAPI" {
		t.Errorf("search backend = %q, want SerpAPI", c.Searcher.Backend().Name())
	}
	if c.Completer.Name() != "GroqCloud" {
		t.Errorf("completer = %q, want GroqCloud", c.Completer.Name())
	}
	if _, ok := c.Store.(*memory.Store); !ok {
		t.Errorf("store = %T, want *memory.Store", c.Store)
	}
}

func TestFromConfig_MissingCredentialsFailAtCallTime(t *testing.T) {
	cfg := config.Defaults()
	cfg.Storage.Type = "none"

	c, err := FromConfig(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}
	defer c.Close()

	if c.Store != nil {
		t.Errorf("store = %T, want nil", c.Store)
	}
	got := c.Pipeline.Run(context.Background(), "AI trends 2025")
	if got != "Error: SerpAPI key is not configured" {
		t.Errorf("Run() = %q", got)
	}
}

func TestNewSearchBackend(t *testing.T) {
	b, err := NewSearchBackend(config.SearchConfig{Backend: "searxng", BaseURL: "http://searx:8080"})
	if err != nil {
		t.Fatalf("NewSearchBackend() error = %v", err)
	}
	if _, ok := b.(*search.SearXNG); !ok {
		t.Errorf("backend = %T, want *search.SearXNG", b)
	}

	if _, err := NewSearchBackend(config.SearchConfig{Backend: "bing"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestNewStore_Unknown(t *testing.T) {
	if _, err := NewStore(context.Background(), config.StorageConfig{Type: "redis"}); err == nil {
		t.Error("expected error for unknown storage type")
	}
}
