package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rhuss/postsmith/pkg/api"
	"github.com/rhuss/postsmith/pkg/pipeline"
)

// errRunFailed makes the process exit non-zero after the output of a
// failed or rejected run has been printed.
var errRunFailed = errors.New("one or more runs did not complete")

type generateOptions struct {
	concurrency int
	jsonOutput  bool
	quiet       bool
}

func newGenerateCmd(c *cli) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate <topic> [topic...]",
		Short: "Generate a LinkedIn post for each topic",
		Long: `Runs search, summary and post generation for every topic and prints
the posts to stdout in argument order. Progress goes to stderr.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runGenerate(ctx, c, opts, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "c", 1, "number of topics processed in parallel")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "print each post as a JSON object")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "do not report progress on stderr")
	return cmd
}

func runGenerate(ctx context.Context, c *cli, opts *generateOptions, topics []string, stdout, stderr io.Writer) error {
	components, err := pipeline.FromConfig(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer components.Close()

	validation := api.ValidationConfig{MaxTopicLength: c.cfg.Server.MaxTopicLength}
	results := make([]*pipeline.Result, len(topics))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.concurrency, 1))

	for i, topic := range topics {
		if apiErr := api.ValidateRequest(&api.GenerateRequest{Topic: topic}, validation); apiErr != nil {
			results[i] = &pipeline.Result{Topic: topic, State: api.StateFailed, Err: apiErr, CreatedAt: time.Now()}
			continue
		}

		req := pipeline.Request{Topic: topic}
		if !opts.quiet {
			label := topic
			if len(topics) == 1 {
				label = ""
			}
			req.Progress = progressPrinter(stderr, label)
		}

		g.Go(func() error {
			// Failures are part of the result; the group only limits
			// concurrency.
			results[i] = components.Pipeline.Execute(gctx, req)
			return nil
		})
	}
	g.Wait()

	failed := false
	for i, res := range results {
		if res.Status() != api.PostStatusCompleted {
			failed = true
		}
		if err := printResult(stdout, res, opts.jsonOutput, i > 0); err != nil {
			return err
		}
	}

	if failed {
		return errRunFailed
	}
	return nil
}

func progressPrinter(w io.Writer, label string) pipeline.ProgressFunc {
	prefix := ""
	if label != "" {
		prefix = "[" + label + "] "
	}
	return func(p pipeline.Progress) {
		fmt.Fprintf(w, "%s%3.0f%% %s\n", prefix, p.Fraction*100, p.Description)
	}
}

func printResult(w io.Writer, res *pipeline.Result, asJSON, separate bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(res.APIPost())
	}
	if separate {
		fmt.Fprintln(w, "\n---")
	}
	_, err := fmt.Fprintln(w, res.Text())
	return err
}
