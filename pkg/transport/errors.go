package transport

import (
	"encoding/json"
	"net/http"

	"github.com/rhuss/postsmith/pkg/api"
)

// statusByType lists the error types that do not map to 500. Pipeline
// failures reach a client as a 200 post with the flattened error text, so
// upstream and configuration errors only show up here when a request fails
// outside a run.
var statusByType = map[api.ErrorType]int{
	api.ErrorTypeInvalidRequest: http.StatusBadRequest,
	api.ErrorTypeUnauthorized:   http.StatusUnauthorized,
	api.ErrorTypeNotFound:       http.StatusNotFound,
	api.ErrorTypeRateLimited:    http.StatusTooManyRequests,
	api.ErrorTypeUpstream:       http.StatusBadGateway,
	api.ErrorTypeConfiguration:  http.StatusServiceUnavailable,
}

// HTTPStatusFromError returns the HTTP status for err's type.
func HTTPStatusFromError(err *api.APIError) int {
	if code, ok := statusByType[err.Type]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// WriteErrorResponse writes apiErr wrapped in an api.ErrorResponse with the
// given status.
func WriteErrorResponse(w http.ResponseWriter, apiErr *api.APIError, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: apiErr})
}

// WriteAPIError is WriteErrorResponse with the status derived from the
// error type.
func WriteAPIError(w http.ResponseWriter, apiErr *api.APIError) {
	WriteErrorResponse(w, apiErr, HTTPStatusFromError(apiErr))
}
