// Command mock-backend runs deterministic stand-ins for SerpAPI and a
// Chat Completions endpoint so postsmith can run end to end without
// credentials or network access.
//
// Point postsmith at it with:
//
//	POSTSMITH_SEARCH_URL=http://localhost:9090/search
//	POSTSMITH_LLM_URL=http://localhost:9090
//	SERPAPI_KEY=mock GROQ_API_KEY=mock
//
// Topics containing "noresults" yield an empty organic_results list and
// topics containing "llmfail" make the completion endpoint answer 500.
//
// Configuration:
//
//	MOCK_PORT    - Listen port (default: 9090)
//	MOCK_LATENCY - Delay added to every response, e.g. "2s" (default: none)
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"
)

func main() {
	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "9090"
	}

	var latency time.Duration
	if v := os.Getenv("MOCK_LATENCY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Error("invalid MOCK_LATENCY", "value", v, "error", err)
			os.Exit(1)
		}
		latency = d
	}

	srv := &http.Server{Addr: ":" + port, Handler: newMux(latency)}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock backend starting", "port", port, "latency", latency)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock backend failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock backend shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

func newMux(latency time.Duration) *http.ServeMux {
	delay := func(h http.HandlerFunc) http.HandlerFunc {
		if latency <= 0 {
			return h
		}
		return func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(latency):
				h(w, r)
			case <-r.Context().Done():
			}
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", delay(handleSearch))
	mux.HandleFunc("GET /search.json", delay(handleSearch))
	mux.HandleFunc("POST /v1/chat/completions", delay(handleChatCompletions))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	return mux
}

// --- SerpAPI ---

type organicResult struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
}

func handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("api_key") == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid API key. Your API key should be here: https://serpapi.com/manage-api-key"})
		return
	}

	query := q.Get("q")
	num, err := strconv.Atoi(q.Get("num"))
	if err != nil || num <= 0 {
		num = 10
	}

	results := []organicResult{}
	if !strings.Contains(strings.ToLower(query), "noresults") {
		for i := 1; i <= num; i++ {
			results = append(results, organicResult{
				Position: i,
				Title:    fmt.Sprintf("%s: finding #%d", query, i),
				Link:     fmt.Sprintf("https://example.com/%d", i),
				Snippet:  fmt.Sprintf("Observation %d about %s, with a statistic of %d%% growth year over year.", i, query, 10*i),
			})
		}
	}

	slog.Info("search", "q", query, "num", num, "results", len(results))
	writeJSON(w, http.StatusOK, map[string]any{
		"search_metadata": map[string]string{"status": "Success"},
		"search_parameters": map[string]string{
			"q":             query,
			"google_domain": q.Get("google_domain"),
			"gl":            q.Get("gl"),
			"hl":            q.Get("hl"),
		},
		"organic_results": results,
	})
}

// --- Chat Completions ---

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error": map[string]string{"message": "Invalid API Key", "type": "invalid_request_error"},
		})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]string{"message": "invalid request body", "type": "invalid_request_error"},
		})
		return
	}

	prompt := req.Messages[len(req.Messages)-1].Content
	topic := quotedTopic(prompt)

	if strings.Contains(strings.ToLower(topic), "llmfail") {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": map[string]string{"message": "The server had an error while processing your request.", "type": "internal_server_error"},
		})
		return
	}

	var text string
	switch {
	case strings.Contains(prompt, "RESEARCH SUMMARY:"):
		text = fmt.Sprintf("Bro, I just went down a rabbit hole on %s... and wow.\n\n"+
			"Three things stood out:\n- growth is real\n- people are actually using it\n- the numbers surprised even me\n\n"+
			"What's your take?\n\n#%s #LinkedIn", topic, hashtag(topic))
	case strings.Contains(prompt, "SEARCH RESULTS:"):
		findings := strings.Count(prompt, "Title: ")
		text = fmt.Sprintf("Across %d sources, %s shows steady growth, broad adoption and strong expert interest.", findings, topic)
	default:
		text = "Mock completion."
	}

	slog.Info("chat completion", "model", req.Model, "topic", topic, "chars", len(text))
	promptTokens := len(strings.Fields(prompt))
	completionTokens := len(strings.Fields(text))
	writeJSON(w, http.StatusOK, map[string]any{
		"id":      "chatcmpl-mock",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   req.Model,
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": text},
			"finish_reason": "stop",
		}},
		"usage": map[string]int{
			"prompt_tokens":     promptTokens,
			"completion_tokens": completionTokens,
			"total_tokens":      promptTokens + completionTokens,
		},
	})
}

// quotedTopic returns the first double-quoted string in prompt.
func quotedTopic(prompt string) string {
	_, rest, ok := strings.Cut(prompt, `"`)
	if !ok {
		return ""
	}
	topic, _, _ := strings.Cut(rest, `"`)
	return topic
}

func hashtag(topic string) string {
	var b strings.Builder
	for _, f := range strings.Fields(topic) {
		b.WriteString(strings.ToUpper(f[:1]) + f[1:])
	}
	return b.String()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
