package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rhuss/postsmith/pkg/api"
)

// fakeProviders serves a SerpAPI search endpoint and an OpenAI-compatible
// chat endpoint. Topics containing "broken" make the search fail.
func fakeProviders(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var llmCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("q"), "broken") {
			http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"organic_results":[{"title":"One","snippet":"first"},{"title":"Two","snippet":"second"}]}`))
	})
	mux.HandleFunc("POST /v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		llmCalls.Add(1)
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		content := "summary text"
		if len(req.Messages) > 0 && strings.Contains(req.Messages[len(req.Messages)-1].Content, "RESEARCH SUMMARY:") {
			content = "post text"
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []any{map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": content}}},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &llmCalls
}

func writeConfig(t *testing.T, providerURL string) string {
	t.Helper()
	for _, name := range []string{
		"POSTSMITH_ENV_FILE", "POSTSMITH_CONFIG", "SERPAPI_KEY", "GROQ_API_KEY",
		"POSTSMITH_SEARCH_URL", "POSTSMITH_SEARCH_API_KEY", "POSTSMITH_LLM_URL",
		"POSTSMITH_LLM_API_KEY", "POSTSMITH_STORAGE", "POSTSMITH_SEARCH_BACKEND",
	} {
		t.Setenv(name, "")
	}
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "config.yaml")
	content := `
search:
  backend: serpapi
  base_url: ` + providerURL + `/search
  api_key: serp-secret
llm:
  base_url: ` + providerURL + `
  api_key: llm-secret
  model: test-model
storage:
  type: none
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestGenerateSingleTopic(t *testing.T) {
	srv, calls := fakeProviders(t)
	cfgPath := writeConfig(t, srv.URL)

	stdout, stderr, err := execute(t, "--config", cfgPath, "generate", "remote work")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(stdout) != "post text" {
		t.Errorf("stdout = %q, want post text", stdout)
	}
	for _, want := range []string{"Starting search...", "Analyzing search results...", "Finalizing post..."} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}
	if calls.Load() != 2 {
		t.Errorf("llm calls = %d, want 2", calls.Load())
	}
}

func TestGenerateQuiet(t *testing.T) {
	srv, _ := fakeProviders(t)
	cfgPath := writeConfig(t, srv.URL)

	_, stderr, err := execute(t, "--config", cfgPath, "generate", "-q", "remote work")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stderr != "" {
		t.Errorf("stderr = %q, want empty", stderr)
	}
}

func TestGenerateKeepsArgumentOrder(t *testing.T) {
	srv, _ := fakeProviders(t)
	cfgPath := writeConfig(t, srv.URL)

	stdout, _, err := execute(t, "--config", cfgPath, "generate", "--json", "-q", "-c", "3", "alpha", "beta", "gamma")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dec := json.NewDecoder(strings.NewReader(stdout))
	var topics []string
	for dec.More() {
		var p api.Post
		if err := dec.Decode(&p); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if p.Status != api.PostStatusCompleted {
			t.Errorf("%s: status = %s", p.Topic, p.Status)
		}
		topics = append(topics, p.Topic)
	}
	if strings.Join(topics, ",") != "alpha,beta,gamma" {
		t.Errorf("topics = %v", topics)
	}
}

func TestGenerateFailureExitsNonZero(t *testing.T) {
	srv, calls := fakeProviders(t)
	cfgPath := writeConfig(t, srv.URL)

	stdout, _, err := execute(t, "--config", cfgPath, "generate", "-q", "broken topic")
	if err != errRunFailed {
		t.Fatalf("err = %v, want errRunFailed", err)
	}
	if !strings.HasPrefix(stdout, "Error: ") {
		t.Errorf("stdout = %q, want Error: prefix", stdout)
	}
	if calls.Load() != 0 {
		t.Errorf("llm called %d times after search failure", calls.Load())
	}
}

func TestGenerateBlankTopic(t *testing.T) {
	srv, calls := fakeProviders(t)
	cfgPath := writeConfig(t, srv.URL)

	stdout, _, err := execute(t, "--config", cfgPath, "generate", "-q", "   ")
	if err != errRunFailed {
		t.Fatalf("err = %v, want errRunFailed", err)
	}
	if strings.HasPrefix(stdout, "Error: ") || strings.TrimSpace(stdout) == "" {
		t.Errorf("stdout = %q, want the retry prompt", stdout)
	}
	if calls.Load() != 0 {
		t.Errorf("llm called %d times for a blank topic", calls.Load())
	}
}

func TestGenerateRequiresTopic(t *testing.T) {
	srv, _ := fakeProviders(t)
	cfgPath := writeConfig(t, srv.URL)

	if _, _, err := execute(t, "--config", cfgPath, "generate"); err == nil {
		t.Fatal("expected an argument error")
	}
}

func TestConfigRedactsSecrets(t *testing.T) {
	srv, _ := fakeProviders(t)
	cfgPath := writeConfig(t, srv.URL)

	stdout, _, err := execute(t, "--config", cfgPath, "config")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(stdout, "serp-secret") || strings.Contains(stdout, "llm-secret") {
		t.Errorf("secrets leaked:\n%s", stdout)
	}
	if !strings.Contains(stdout, "model: test-model") {
		t.Errorf("config output missing model:\n%s", stdout)
	}
}

func TestVersionSkipsConfig(t *testing.T) {
	// An unreadable config path would fail PersistentPreRunE.
	stdout, _, err := execute(t, "--config", "/nonexistent/config.yaml", "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(stdout, "postsmith dev") {
		t.Errorf("stdout = %q", stdout)
	}
}
