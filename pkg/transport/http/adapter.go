package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/rhuss/postsmith/pkg/api"
	"github.com/rhuss/postsmith/pkg/storage"
	"github.com/rhuss/postsmith/pkg/transport"
)

// Adapter serves the post generation API and the HTML form over HTTP.
type Adapter struct {
	generator transport.Generator
	store     transport.RunStore // nil if run history is disabled
	inflight  *transport.InFlightRegistry
	mux       *http.ServeMux
	config    Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize int64
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize: 64 << 10,
	}
}

// NewAdapter creates an HTTP adapter for the given Generator. The RunStore
// is optional; when nil, the run history endpoints answer 501.
// Middleware is applied to the Generator in the given order.
func NewAdapter(gen transport.Generator, store transport.RunStore, cfg Config, middlewares ...transport.Middleware) *Adapter {
	if len(middlewares) > 0 {
		gen = transport.Chain(middlewares...)(gen)
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultConfig().MaxBodySize
	}

	a := &Adapter{
		generator: gen,
		store:     store,
		inflight:  transport.NewInFlightRegistry(),
		mux:       http.NewServeMux(),
		config:    cfg,
	}

	a.mux.HandleFunc("GET /{$}", a.handleIndex)
	a.mux.HandleFunc("POST /{$}", a.handleFormSubmit)
	a.mux.HandleFunc("POST /v1/posts", a.handleCreatePost)
	a.mux.HandleFunc("DELETE /v1/posts/{id}", a.handleCancelPost)
	a.mux.HandleFunc("GET /v1/runs", a.handleListRuns)
	a.mux.HandleFunc("GET /v1/runs/{id}", a.handleGetRun)
	a.mux.HandleFunc("DELETE /v1/runs/{id}", a.handleDeleteRun)

	return a
}

// Handler returns the http.Handler for this adapter. The returned handler
// propagates the X-Request-ID header.
func (a *Adapter) Handler() http.Handler {
	return httpRequestIDMiddleware(a.mux)
}

// InFlight returns the registry of cancellable streaming runs.
func (a *Adapter) InFlight() *transport.InFlightRegistry {
	return a.inflight
}

// httpRequestIDMiddleware propagates a client-supplied X-Request-ID into
// the context and echoes the request ID (client or generated) back in the
// response headers.
func httpRequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get(transport.RequestIDHeader); id != "" {
			r = r.WithContext(transport.WithRequestID(r.Context(), id))
		}
		rw := &requestIDResponseWriter{ResponseWriter: w, r: r}
		next.ServeHTTP(rw, r)
	})
}

// requestIDResponseWriter wraps http.ResponseWriter to inject the
// X-Request-ID header before the first write.
type requestIDResponseWriter struct {
	http.ResponseWriter
	r           *http.Request
	headersSent bool
}

func (w *requestIDResponseWriter) WriteHeader(statusCode int) {
	w.ensureRequestIDHeader()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *requestIDResponseWriter) Write(b []byte) (int, error) {
	w.ensureRequestIDHeader()
	return w.ResponseWriter.Write(b)
}

func (w *requestIDResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying ResponseWriter for http.NewResponseController.
func (w *requestIDResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *requestIDResponseWriter) ensureRequestIDHeader() {
	if w.headersSent {
		return
	}
	w.headersSent = true
	if id := transport.RequestIDFromContext(w.r.Context()); id != "" {
		w.ResponseWriter.Header().Set(transport.RequestIDHeader, id)
	}
}

// handleCreatePost handles POST /v1/posts. Pipeline failures are part of
// the post and answered with 200; only malformed requests get an error
// status.
func (a *Adapter) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || mt != "application/json" {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
				http.StatusUnsupportedMediaType,
			)
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	var req api.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return
		}
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()),
			http.StatusBadRequest,
		)
		return
	}

	if req.Stream {
		a.handleStreamingPost(w, r, &req)
		return
	}

	rw := newSSEResultWriter(w, nil)
	if err := a.generator.Generate(r.Context(), &req, rw); err != nil {
		a.writeHandlerError(w, rw, err)
	}
}

// handleStreamingPost runs a streaming request. The run's context is
// registered in the in-flight registry once post.created is written so
// DELETE /v1/posts/{id} can cancel it.
func (a *Adapter) handleStreamingPost(w http.ResponseWriter, r *http.Request, req *api.GenerateRequest) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var registeredID string
	rw := newSSEResultWriter(w, func(id string) {
		registeredID = id
		a.inflight.Register(id, cancel)
	})
	defer rw.Close()

	err := a.generator.Generate(ctx, req, rw)

	if registeredID != "" {
		a.inflight.Remove(registeredID)
	}

	if err != nil {
		a.writeHandlerError(w, rw, err)
	}
}

// handleCancelPost handles DELETE /v1/posts/{id}.
func (a *Adapter) handleCancelPost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !api.ValidatePostID(id) {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("id", "malformed post ID"),
			http.StatusBadRequest,
		)
		return
	}

	age, ok := a.inflight.Cancel(id)
	if !ok {
		transport.WriteAPIError(w, api.NewNotFoundError("post "+id+" is not in progress"))
		return
	}
	slog.Info("post cancelled", "post_id", id, "running_for", age)
	w.WriteHeader(http.StatusNoContent)
}

// handleGetRun handles GET /v1/runs/{id}.
func (a *Adapter) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if !a.requireStore(w, "run retrieval") {
		return
	}

	id := r.PathValue("id")
	if !api.ValidatePostID(id) {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("id", "malformed run ID"),
			http.StatusBadRequest,
		)
		return
	}

	run, err := a.store.GetRun(r.Context(), id)
	if err != nil {
		writeStoreError(w, id, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run)
}

// handleDeleteRun handles DELETE /v1/runs/{id}.
func (a *Adapter) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if !a.requireStore(w, "run deletion") {
		return
	}

	id := r.PathValue("id")
	if !api.ValidatePostID(id) {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("id", "malformed run ID"),
			http.StatusBadRequest,
		)
		return
	}

	if err := a.store.DeleteRun(r.Context(), id); err != nil {
		writeStoreError(w, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListRuns handles GET /v1/runs.
func (a *Adapter) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if !a.requireStore(w, "run listing") {
		return
	}

	opts, apiErr := parseListOptions(r)
	if apiErr != nil {
		transport.WriteErrorResponse(w, apiErr, http.StatusBadRequest)
		return
	}

	result, err := a.store.ListRuns(r.Context(), opts)
	if err != nil {
		writeStoreError(w, "", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (a *Adapter) requireStore(w http.ResponseWriter, op string) bool {
	if a.store != nil {
		return true
	}
	transport.WriteErrorResponse(w,
		api.NewInvalidRequestError("", op+" is not available (no store configured)"),
		http.StatusNotImplemented,
	)
	return false
}

func writeStoreError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		transport.WriteAPIError(w, api.NewNotFoundError("run "+id+" not found"))
		return
	}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		transport.WriteAPIError(w, apiErr)
		return
	}
	transport.WriteAPIError(w, api.NewServerError(err.Error()))
}

// parseListOptions extracts pagination parameters from the query string.
func parseListOptions(r *http.Request) (transport.ListOptions, *api.APIError) {
	q := r.URL.Query()
	opts := transport.ListOptions{
		After: q.Get("after"),
		State: api.State(q.Get("state")),
		Order: q.Get("order"),
	}

	if opts.Order != "" && opts.Order != "asc" && opts.Order != "desc" {
		return opts, api.NewInvalidRequestError("order", "order must be 'asc' or 'desc'")
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	if opts.State != "" && !opts.State.IsTerminal() {
		return opts, api.NewInvalidRequestError("state", "state must be 'done' or 'failed'")
	}

	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			return opts, api.NewInvalidRequestError("limit", "limit must be a positive integer")
		}
		opts.Limit = limit
	}

	return opts, nil
}

// writeHandlerError writes an error returned by the generator. If
// streaming has already started it sends a post.failed event, otherwise a
// JSON error response.
func (a *Adapter) writeHandlerError(w http.ResponseWriter, rw *sseResultWriter, err error) {
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		apiErr = api.NewServerError(err.Error())
	}

	if rw.streamed() {
		rw.WriteEvent(context.Background(), api.StreamEvent{
			Type: api.EventPostFailed,
			Post: &api.Post{
				Object: "post",
				Status: api.PostStatusFailed,
				Output: "Error: " + apiErr.Message,
				Error:  apiErr,
			},
		})
		return
	}

	transport.WriteAPIError(w, apiErr)
}
