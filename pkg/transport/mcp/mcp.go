// Package mcp exposes post generation as a Model Context Protocol tool so
// agents can request LinkedIn posts the same way the HTML form does.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rhuss/postsmith/pkg/api"
	"github.com/rhuss/postsmith/pkg/transport"
)

// ToolName is the name of the generation tool.
const ToolName = "generate_post"

// GenerateInput is the tool's argument object.
type GenerateInput struct {
	Topic string `json:"topic" jsonschema:"the subject to research and write a LinkedIn post about"`
}

// GenerateOutput is the tool's structured result.
type GenerateOutput struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Post   string `json:"post"`
}

// Server serves the generate_post tool.
type Server struct {
	server    *mcp.Server
	generator transport.Generator
	logger    *slog.Logger
}

// NewServer registers the tool on a new MCP server backed by gen.
func NewServer(gen transport.Generator, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		server: mcp.NewServer(
			&mcp.Implementation{Name: "postsmith", Version: version},
			nil,
		),
		generator: gen,
		logger:    logger,
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolName,
		Description: "Searches the web for a topic, summarizes the findings and writes an engaging LinkedIn post about them.",
	}, s.generate)

	return s
}

// MCPServer returns the underlying SDK server, for in-process transports.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}

// Handler serves the tool over streamable HTTP. The handler is stateless so
// every tool call runs with its HTTP request's context, which carries the
// caller's identity and tenant.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, &mcp.StreamableHTTPOptions{Stateless: true})
}

func (s *Server) generate(ctx context.Context, _ *mcp.CallToolRequest, in GenerateInput) (*mcp.CallToolResult, GenerateOutput, error) {
	collector := &postCollector{}
	err := s.generator.Generate(ctx, &api.GenerateRequest{Topic: in.Topic}, collector)

	var out GenerateOutput
	switch {
	case err != nil:
		var apiErr *api.APIError
		msg := err.Error()
		if errors.As(err, &apiErr) {
			msg = apiErr.Message
		}
		out = GenerateOutput{Status: string(api.PostStatusFailed), Post: "Error: " + msg}
	case collector.post != nil:
		out = GenerateOutput{
			ID:     collector.post.ID,
			Status: string(collector.post.Status),
			Post:   collector.post.Output,
		}
	default:
		out = GenerateOutput{Status: string(api.PostStatusFailed), Post: "Error: no post was produced"}
	}

	s.logger.Debug("mcp tool call finished", "tool", ToolName, "status", out.Status)

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: out.Post}},
		IsError: out.Status != string(api.PostStatusCompleted),
	}, out, nil
}

// postCollector captures the single post of a tool call.
type postCollector struct {
	post *api.Post
}

var _ transport.ResultWriter = (*postCollector)(nil)

func (c *postCollector) WriteEvent(context.Context, api.StreamEvent) error {
	return errors.New("streaming is not supported for tool calls")
}

func (c *postCollector) WritePost(_ context.Context, p *api.Post) error {
	c.post = p
	return nil
}

func (c *postCollector) Flush() error { return nil }
