package transport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rhuss/postsmith/pkg/api"
)

func TestHTTPStatusFromError(t *testing.T) {
	tests := []struct {
		err  *api.APIError
		want int
	}{
		{api.NewInvalidRequestError("topic", "too long"), http.StatusBadRequest},
		{api.NewUnauthorizedError("authentication required"), http.StatusUnauthorized},
		{api.NewNotFoundError("run not found"), http.StatusNotFound},
		{api.NewRateLimitError("slow down"), http.StatusTooManyRequests},
		{api.NewUpstreamError("SerpAPI", 500, "boom"), http.StatusBadGateway},
		{api.NewConfigurationError("SerpAPI key is not configured"), http.StatusServiceUnavailable},
		{api.NewNoResultsError("No search results found"), http.StatusInternalServerError},
		{api.NewServerError("internal"), http.StatusInternalServerError},
		{&api.APIError{Type: "something_new"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Type), func(t *testing.T) {
			if got := HTTPStatusFromError(tt.err); got != tt.want {
				t.Errorf("HTTPStatusFromError(%s) = %d, want %d", tt.err.Type, got, tt.want)
			}
		})
	}
}

func TestWriteAPIError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteAPIError(rec, api.NewInvalidRequestError("topic", "is too long"))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff header")
	}

	var resp api.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error == nil {
		t.Fatal("error object missing")
	}
	if resp.Error.Type != api.ErrorTypeInvalidRequest || resp.Error.Param != "topic" || resp.Error.Message != "is too long" {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestWriteErrorResponseKeepsExplicitStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteErrorResponse(rec, api.NewInvalidRequestError("body", "too large"), http.StatusRequestEntityTooLarge)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}
