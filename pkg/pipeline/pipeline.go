package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rhuss/postsmith/pkg/api"
	"github.com/rhuss/postsmith/pkg/auth"
	"github.com/rhuss/postsmith/pkg/debug"
	"github.com/rhuss/postsmith/pkg/observability"
	"github.com/rhuss/postsmith/pkg/prompt"
	"github.com/rhuss/postsmith/pkg/provider"
	"github.com/rhuss/postsmith/pkg/transport"
)

// Searcher fetches normalized search results for a topic.
// search.Client is the production implementation.
type Searcher interface {
	Search(ctx context.Context, topic string, maxResults int) ([]api.SearchResult, error)
}

// Pipeline sequences search, summary and post generation.
// It holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	searcher  Searcher
	completer provider.Completer
	store     transport.RunStore
	cfg       Config
}

var _ transport.Generator = (*Pipeline)(nil)

// New creates a Pipeline. The searcher and completer must not be nil;
// store may be nil, in which case runs are not recorded.
func New(searcher Searcher, completer provider.Completer, store transport.RunStore, cfg Config) (*Pipeline, error) {
	if searcher == nil {
		return nil, fmt.Errorf("pipeline: searcher must not be nil")
	}
	if completer == nil {
		return nil, fmt.Errorf("pipeline: completer must not be nil")
	}
	return &Pipeline{
		searcher:  searcher,
		completer: completer,
		store:     store,
		cfg:       cfg,
	}, nil
}

// Request describes one run.
type Request struct {
	// ID identifies the run; a post ID is generated when empty.
	ID       string
	Topic    string
	Progress ProgressFunc
}

// Run executes the pipeline for topic and returns the text to show the
// user. It never fails: errors come back as "Error: <message>".
func (p *Pipeline) Run(ctx context.Context, topic string) string {
	return p.Execute(ctx, Request{Topic: topic}).Text()
}

// Execute runs the pipeline and returns its structured outcome.
func (p *Pipeline) Execute(ctx context.Context, req Request) *Result {
	start := time.Now()
	res := &Result{
		ID:        req.ID,
		Topic:     req.Topic,
		State:     api.StateIdle,
		CreatedAt: start,
	}
	if res.ID == "" {
		res.ID = api.NewPostID()
	}

	if api.IsBlankTopic(req.Topic) {
		res.Rejected = true
	} else {
		r := &run{p: p, res: res, progress: req.Progress}
		r.execute(ctx)
	}

	res.Duration = time.Since(start)
	p.finish(ctx, res)
	return res
}

// run carries the mutable state of one execution.
type run struct {
	p        *Pipeline
	res      *Result
	progress ProgressFunc
}

func (r *run) execute(ctx context.Context) {
	topic := r.res.Topic

	r.transition(api.StateSearching)
	r.report(progressSearching)
	err := r.stage("search", func() error {
		results, err := r.p.searcher.Search(ctx, topic, r.p.cfg.maxResults())
		r.res.Results = results
		return err
	})
	if err != nil {
		r.fail(ctx, err)
		return
	}
	if len(r.res.Results) == 0 {
		r.fail(ctx, api.NewNoResultsError("No search results found"))
		return
	}
	if r.cancelled(ctx) {
		return
	}

	r.transition(api.StateSummarizing)
	r.report(progressAnalyzing)
	err = r.stage("summary", func() error {
		summary, err := r.p.completer.Complete(ctx, prompt.Summary(topic, r.res.Results))
		r.res.Summary = summary
		return err
	})
	if err != nil {
		r.fail(ctx, err)
		return
	}
	if r.cancelled(ctx) {
		return
	}

	r.transition(api.StatePostGenerating)
	err = r.stage("post", func() error {
		post, err := r.p.completer.Complete(ctx, prompt.Post(topic, r.res.Summary))
		r.res.Post = post
		return err
	})
	if err != nil {
		r.fail(ctx, err)
		return
	}

	r.report(progressFinalizing)
	r.transition(api.StateDone)
}

func (r *run) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	observability.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	debug.Log("pipeline", "stage finished",
		"run_id", r.res.ID, "stage", name, "duration", time.Since(start), "error", err)
	return err
}

// cancelled fails the run if ctx ended between stages.
func (r *run) cancelled(ctx context.Context) bool {
	if ctx.Err() == nil {
		return false
	}
	r.fail(ctx, ctx.Err())
	return true
}

func (r *run) fail(ctx context.Context, err error) {
	r.res.Err = classify(ctx, err)
	r.transition(api.StateFailed)
}

func (r *run) transition(to api.State) {
	from := r.res.State
	if err := api.ValidateStateTransition(from, to); err != nil {
		slog.Error("invalid pipeline transition", "run_id", r.res.ID, "error", err)
	}
	debug.Log("pipeline", "state transition", "run_id", r.res.ID, "from", from, "to", to)
	r.res.State = to
}

func (r *run) report(p Progress) {
	if r.progress != nil {
		r.progress(p)
	}
}

// classify makes sure err carries an error type. Client errors are already
// classified; context errors surfacing between stages are not.
func classify(ctx context.Context, err error) error {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return api.NewCancelledError("request cancelled")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return api.NewUpstreamError("pipeline", 0, "request timed out")
	}
	return api.NewServerError(err.Error())
}

// finish logs, counts and records a finished run.
func (p *Pipeline) finish(ctx context.Context, res *Result) {
	observability.PipelineRunsTotal.WithLabelValues(res.outcome()).Inc()

	level := slog.LevelInfo
	attrs := []slog.Attr{
		slog.String("run_id", res.ID),
		slog.String("state", string(res.State)),
		slog.Int("topic_chars", len(res.Topic)),
		slog.Int("results", len(res.Results)),
		slog.Duration("duration", res.Duration),
	}
	if reqID := transport.RequestIDFromContext(ctx); reqID != "" {
		attrs = append(attrs, slog.String("request_id", reqID))
	}
	if subject := auth.SubjectFromContext(ctx); subject != "" {
		attrs = append(attrs, slog.String("subject", subject))
	}
	if res.Err != nil {
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("error_kind", string(res.Kind())),
			slog.String("error", res.Err.Error()),
		)
	}
	if res.Rejected {
		attrs = append(attrs, slog.Bool("rejected", true))
	}
	slog.LogAttrs(ctx, level, "run finished", attrs...)

	if p.store == nil || res.Rejected {
		return
	}
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.storeTimeout())
	defer cancel()
	if err := p.store.SaveRun(storeCtx, res.Run()); err != nil {
		slog.Warn("failed to record run", "run_id", res.ID, "error", err)
	}
}
