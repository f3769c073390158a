package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/rhuss/postsmith/pkg/api"
	"github.com/rhuss/postsmith/pkg/observability"
	"github.com/rhuss/postsmith/pkg/storage/memory"
)

// fakeSearcher returns canned results and counts calls.
type fakeSearcher struct {
	results []api.SearchResult
	err     error
	calls   int
	max     int
}

func (f *fakeSearcher) Search(_ context.Context, _ string, maxResults int) ([]api.SearchResult, error) {
	f.calls++
	f.max = maxResults
	return f.results, f.err
}

// fakeCompleter answers prompts in order and records them.
type fakeCompleter struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	prompts []string
	onCall  func(n int)
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	n := len(f.prompts)
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.onCall != nil {
		f.onCall(n)
	}
	if n < len(f.errs) && f.errs[n] != nil {
		return "", f.errs[n]
	}
	if n < len(f.replies) {
		return f.replies[n], nil
	}
	return "", nil
}

func newTestPipeline(t *testing.T, s Searcher, c *fakeCompleter, cfg Config) *Pipeline {
	t.Helper()
	p, err := New(s, c, nil, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("writing metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestNew_RequiresCollaborators(t *testing.T) {
	if _, err := New(nil, &fakeCompleter{}, nil, Config{}); err == nil {
		t.Error("expected error for nil searcher")
	}
	if _, err := New(&fakeSearcher{}, nil, nil, Config{}); err == nil {
		t.Error("expected error for nil completer")
	}
}

func TestRun_Success(t *testing.T) {
	searcher := &fakeSearcher{results: []api.SearchResult{
		{Title: "AI in 2025", Snippet: "Enterprises scale AI."},
	}}
	completer := &fakeCompleter{replies: []string{
		"AI adoption is accelerating.",
		"Bhai, AI is everywhere now! #AI",
	}}
	p := newTestPipeline(t, searcher, completer, Config{})

	got := p.Run(context.Background(), "AI trends 2025")
	if got != "Bhai, AI is everywhere now! #AI" {
		t.Errorf("Run() = %q", got)
	}

	if searcher.calls != 1 {
		t.Errorf("search calls = %d, want 1", searcher.calls)
	}
	if searcher.max != DefaultMaxResults {
		t.Errorf("maxResults = %d, want %d", searcher.max, DefaultMaxResults)
	}
	if len(completer.prompts) != 2 {
		t.Fatalf("completion calls = %d, want 2", len(completer.prompts))
	}
	if !strings.Contains(completer.prompts[0], "AI trends 2025") ||
		!strings.Contains(completer.prompts[0], "Title: AI in 2025") {
		t.Errorf("summary prompt missing topic or results:\n%s", completer.prompts[0])
	}
	if !strings.Contains(completer.prompts[1], "AI adoption is accelerating.") {
		t.Errorf("post prompt does not embed the summary:\n%s", completer.prompts[1])
	}
}

func TestRun_BlankTopic(t *testing.T) {
	for _, topic := range []string{"", "   ", "\t\n"} {
		searcher := &fakeSearcher{}
		completer := &fakeCompleter{}
		p := newTestPipeline(t, searcher, completer, Config{})

		before := counterValue(t, observability.PipelineRunsTotal.WithLabelValues("rejected"))
		if got := p.Run(context.Background(), topic); got != BlankTopicMessage {
			t.Errorf("Run(%q) = %q, want %q", topic, got, BlankTopicMessage)
		}
		if searcher.calls != 0 || len(completer.prompts) != 0 {
			t.Errorf("Run(%q) made outbound calls: search=%d llm=%d", topic, searcher.calls, len(completer.prompts))
		}
		after := counterValue(t, observability.PipelineRunsTotal.WithLabelValues("rejected"))
		if after-before != 1 {
			t.Errorf("rejected counter delta = %v, want 1", after-before)
		}
	}
}

func TestExecute_Failures(t *testing.T) {
	results := []api.SearchResult{{Title: "t", Snippet: "s"}}

	tests := []struct {
		name        string
		searcher    *fakeSearcher
		completer   *fakeCompleter
		wantKind    api.ErrorType
		wantPrompts int
		wantText    string
	}{
		{
			name:        "search upstream error",
			searcher:    &fakeSearcher{err: api.NewUpstreamError("SerpAPI", 500, "boom")},
			completer:   &fakeCompleter{},
			wantKind:    api.ErrorTypeUpstream,
			wantPrompts: 0,
			wantText:    "Error: SerpAPI request failed with status code 500: boom",
		},
		{
			name:        "no results",
			searcher:    &fakeSearcher{err: api.NewNoResultsError("No search results found")},
			completer:   &fakeCompleter{},
			wantKind:    api.ErrorTypeNoResults,
			wantPrompts: 0,
			wantText:    "Error: No search results found",
		},
		{
			name:        "empty list from searcher",
			searcher:    &fakeSearcher{},
			completer:   &fakeCompleter{},
			wantKind:    api.ErrorTypeNoResults,
			wantPrompts: 0,
			wantText:    "Error: No search results found",
		},
		{
			name:     "summary malformed",
			searcher: &fakeSearcher{results: results},
			completer: &fakeCompleter{errs: []error{
				api.NewMalformedResponseError("fake", "fake response contains no choices"),
			}},
			wantKind:    api.ErrorTypeMalformedResponse,
			wantPrompts: 1,
			wantText:    "Error: fake response contains no choices",
		},
		{
			name:     "post configuration error",
			searcher: &fakeSearcher{results: results},
			completer: &fakeCompleter{
				replies: []string{"summary"},
				errs:    []error{nil, api.NewConfigurationError("fake API key is not configured")},
			},
			wantKind:    api.ErrorTypeConfiguration,
			wantPrompts: 2,
			wantText:    "Error: fake API key is not configured",
		},
		{
			name:        "unclassified error",
			searcher:    &fakeSearcher{err: errors.New("disk on fire")},
			completer:   &fakeCompleter{},
			wantKind:    api.ErrorTypeServerError,
			wantPrompts: 0,
			wantText:    "Error: disk on fire",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPipeline(t, tt.searcher, tt.completer, Config{})
			res := p.Execute(context.Background(), Request{Topic: "topic"})

			if res.State != api.StateFailed {
				t.Errorf("State = %q, want failed", res.State)
			}
			if res.Kind() != tt.wantKind {
				t.Errorf("Kind() = %q, want %q", res.Kind(), tt.wantKind)
			}
			if len(tt.completer.prompts) != tt.wantPrompts {
				t.Errorf("completion calls = %d, want %d", len(tt.completer.prompts), tt.wantPrompts)
			}
			if res.Text() != tt.wantText {
				t.Errorf("Text() = %q, want %q", res.Text(), tt.wantText)
			}
			if res.Status() != api.PostStatusFailed {
				t.Errorf("Status() = %q, want failed", res.Status())
			}
		})
	}
}

func TestExecute_ProgressMilestones(t *testing.T) {
	p := newTestPipeline(t,
		&fakeSearcher{results: []api.SearchResult{{Title: "t"}}},
		&fakeCompleter{replies: []string{"summary", "post"}},
		Config{MaxResults: 3},
	)

	var got []Progress
	res := p.Execute(context.Background(), Request{
		Topic:    "topic",
		Progress: func(pr Progress) { got = append(got, pr) },
	})
	if res.State != api.StateDone {
		t.Fatalf("State = %q, want done", res.State)
	}

	want := []Progress{progressSearching, progressAnalyzing, progressFinalizing}
	if len(got) != len(want) {
		t.Fatalf("got %d milestones, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("milestone %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestExecute_ProgressStopsOnFailure(t *testing.T) {
	p := newTestPipeline(t,
		&fakeSearcher{err: api.NewUpstreamError("SerpAPI", 503, "busy")},
		&fakeCompleter{},
		Config{},
	)

	var got []float64
	p.Execute(context.Background(), Request{
		Topic:    "topic",
		Progress: func(pr Progress) { got = append(got, pr.Fraction) },
	})
	if len(got) != 1 || got[0] != 0.1 {
		t.Errorf("milestones = %v, want [0.1]", got)
	}
}

func TestExecute_CancelBetweenStages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	completer := &fakeCompleter{
		replies: []string{"summary", "post"},
		onCall: func(n int) {
			if n == 0 {
				cancel()
			}
		},
	}
	p := newTestPipeline(t, &fakeSearcher{results: []api.SearchResult{{Title: "t"}}}, completer, Config{})

	res := p.Execute(ctx, Request{Topic: "topic"})
	if res.Kind() != api.ErrorTypeCancelled {
		t.Errorf("Kind() = %q, want cancelled", res.Kind())
	}
	if res.Status() != api.PostStatusCancelled {
		t.Errorf("Status() = %q, want cancelled", res.Status())
	}
	if len(completer.prompts) != 1 {
		t.Errorf("completion calls = %d, want 1 (post stage must not start)", len(completer.prompts))
	}
}

func TestExecute_RecordsRun(t *testing.T) {
	store := memory.New(10)
	p, err := New(
		&fakeSearcher{results: []api.SearchResult{{Title: "a"}, {Title: "b"}}},
		&fakeCompleter{replies: []string{"summary", "post"}},
		store, Config{},
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res := p.Execute(context.Background(), Request{Topic: "quantum"})

	run, err := store.GetRun(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if run.State != api.StateDone || run.ResultCount != 2 || run.Topic != "quantum" {
		t.Errorf("recorded run = %+v", run)
	}
	if run.ErrorType != "" {
		t.Errorf("ErrorType = %q, want empty", run.ErrorType)
	}
}

func TestExecute_RecordsFailedRunEvenWhenCancelled(t *testing.T) {
	store := memory.New(10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, _ := New(
		&fakeSearcher{err: api.NewCancelledError("SerpAPI request cancelled")},
		&fakeCompleter{},
		store, Config{},
	)
	res := p.Execute(ctx, Request{Topic: "quantum"})

	run, err := store.GetRun(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if run.State != api.StateFailed || run.ErrorType != api.ErrorTypeCancelled {
		t.Errorf("recorded run = %+v", run)
	}
}

func TestExecute_BlankTopicNotRecorded(t *testing.T) {
	store := memory.New(10)
	p, _ := New(&fakeSearcher{}, &fakeCompleter{}, store, Config{})

	res := p.Execute(context.Background(), Request{Topic: " "})
	if _, err := store.GetRun(context.Background(), res.ID); err == nil {
		t.Error("blank-topic run should not be recorded")
	}
}

func TestResult_APIPost(t *testing.T) {
	res := &Result{
		ID:    "post_abc",
		Topic: "t",
		State: api.StateFailed,
		Err:   api.NewUpstreamError("GroqCloud", 429, "rate limited"),
	}
	post := res.APIPost()
	if post.Object != "post" || post.Status != api.PostStatusFailed {
		t.Errorf("post = %+v", post)
	}
	if post.Error == nil || post.Error.Type != api.ErrorTypeUpstream {
		t.Errorf("post.Error = %+v, want upstream error", post.Error)
	}
	if post.Output != "Error: GroqCloud request failed with status code 429: rate limited" {
		t.Errorf("post.Output = %q", post.Output)
	}

	res = &Result{ID: "post_def", Err: errors.New("plain")}
	if got := res.APIPost().Error; got == nil || got.Type != api.ErrorTypeServerError {
		t.Errorf("plain error mapped to %+v, want server_error", got)
	}
}
