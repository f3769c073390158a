// Command server runs the postsmith LinkedIn post generator.
//
// Configuration is read from a YAML file (-config, POSTSMITH_CONFIG,
// ./config.yaml or /etc/postsmith/config.yaml), an optional .env file and
// POSTSMITH_* environment variables. The variables SERPAPI_KEY,
// GROQ_API_KEY, MAX_SEARCH_RESULTS and GROQ_MODEL are honored as well.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rhuss/postsmith/pkg/config"
	"github.com/rhuss/postsmith/pkg/debug"
	"github.com/rhuss/postsmith/pkg/pipeline"
	"github.com/rhuss/postsmith/pkg/transport"
	transporthttp "github.com/rhuss/postsmith/pkg/transport/http"
	transportmcp "github.com/rhuss/postsmith/pkg/transport/mcp"
)

var version = "dev"

// storeCheckInterval is how often the run store's health is logged.
const storeCheckInterval = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	debug.Init(cfg.Logging.Debug, cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components, err := pipeline.FromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}
	defer components.Close()

	opts := []transporthttp.ServerOption{
		transporthttp.WithAddr(":" + strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithMaxBodySize(cfg.Server.MaxBodySize),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithLogger(slog.Default()),
	}

	if cfg.Observability.Metrics.Enabled {
		opts = append(opts, transporthttp.WithMetricsPath(cfg.Observability.Metrics.Path))
	} else {
		opts = append(opts, transporthttp.WithMetricsPath(""))
	}

	authMW, err := buildAuthMiddleware(cfg.Auth, cfg.Observability.Metrics.Path)
	if err != nil {
		return fmt.Errorf("configuring auth: %w", err)
	}
	if authMW != nil {
		opts = append(opts, transporthttp.WithHTTPMiddleware(authMW))
	}

	if cfg.MCP.Enabled {
		// The MCP tool runs the pipeline through the same middleware the
		// HTTP adapter applies.
		gen := transport.Defaults(slog.Default())(components.Pipeline)
		mcpServer := transportmcp.NewServer(gen, version, slog.Default())
		opts = append(opts, transporthttp.WithHandler(cfg.MCP.Path, mcpServer.Handler()))
		slog.Info("mcp tool endpoint enabled", "path", cfg.MCP.Path, "tool", transportmcp.ToolName)
	}

	srv := transporthttp.NewServer(components.Pipeline, components.Store, opts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if components.Store != nil {
		g.Go(func() error {
			watchStore(gctx, components.Store, storeCheckInterval)
			return nil
		})
	}

	slog.Info("postsmith started",
		"version", version,
		"port", cfg.Server.Port,
		"auth", cfg.Auth.Type,
		"storage", cfg.Storage.Type,
	)
	return g.Wait()
}

// watchStore logs run store health transitions until ctx is done.
func watchStore(ctx context.Context, store transport.RunStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	healthy := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := store.HealthCheck(checkCtx)
		cancel()

		switch {
		case err != nil && healthy:
			slog.Warn("run store unhealthy", "error", err)
			healthy = false
		case err == nil && !healthy:
			slog.Info("run store recovered")
			healthy = true
		}
	}
}
