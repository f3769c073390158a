package api

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorType represents the category of an error.
type ErrorType string

const (
	// Pipeline failures.
	ErrorTypeConfiguration     ErrorType = "configuration_error"
	ErrorTypeUpstream          ErrorType = "upstream_error"
	ErrorTypeNoResults         ErrorType = "no_results_error"
	ErrorTypeMalformedResponse ErrorType = "malformed_response_error"
	ErrorTypeCancelled         ErrorType = "cancelled"

	// Transport failures.
	ErrorTypeServerError    ErrorType = "server_error"
	ErrorTypeInvalidRequest ErrorType = "invalid_request"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeUnauthorized   ErrorType = "unauthorized"
	ErrorTypeRateLimited    ErrorType = "rate_limit_exceeded"
)

// APIError represents a classified error. Upstream errors additionally carry
// the provider name, the HTTP status code and the raw response body.
type APIError struct {
	Type       ErrorType `json:"type"`
	Param      string    `json:"param,omitempty"`
	Message    string    `json:"message"`
	Provider   string    `json:"provider,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`
	Body       string    `json:"-"`
}

// Error implements the error interface. The returned text is the message
// alone so it can be shown to end users verbatim.
func (e *APIError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s (param: %s)", e.Message, e.Param)
	}
	return e.Message
}

// ErrorResponse wraps an APIError for JSON serialization as the top-level error response.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// NewConfigurationError creates an APIError for a missing or invalid setting
// detected at call time, such as an absent provider credential.
func NewConfigurationError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeConfiguration,
		Message: message,
	}
}

// NewUpstreamError creates an APIError for a failed call to an external
// provider. A zero status code means no HTTP response was received.
func NewUpstreamError(provider string, statusCode int, body string) *APIError {
	msg := fmt.Sprintf("%s request failed with status code %d: %s", provider, statusCode, body)
	if statusCode == 0 {
		msg = fmt.Sprintf("%s request failed: %s", provider, body)
	}
	return &APIError{
		Type:       ErrorTypeUpstream,
		Message:    msg,
		Provider:   provider,
		StatusCode: statusCode,
		Body:       body,
	}
}

// NewNoResultsError creates an APIError for a search that produced no usable results.
func NewNoResultsError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeNoResults,
		Message: message,
	}
}

// NewMalformedResponseError creates an APIError for a provider response
// that lacks the expected structure.
func NewMalformedResponseError(provider, message string) *APIError {
	return &APIError{
		Type:     ErrorTypeMalformedResponse,
		Message:  message,
		Provider: provider,
	}
}

// NewCancelledError creates an APIError for a run aborted by its caller.
func NewCancelledError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeCancelled,
		Message: message,
	}
}

// NewInvalidRequestError creates an APIError for invalid request parameters.
func NewInvalidRequestError(param, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeInvalidRequest,
		Param:   param,
		Message: message,
	}
}

// NewNotFoundError creates an APIError for resources that cannot be found.
func NewNotFoundError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewUnauthorizedError creates an APIError for missing or invalid credentials.
func NewUnauthorizedError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeUnauthorized,
		Message: message,
	}
}

// NewRateLimitError creates an APIError for callers over their request budget.
func NewRateLimitError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeRateLimited,
		Message: message,
	}
}

// NewServerError creates an APIError for internal server errors.
func NewServerError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeServerError,
		Message: message,
	}
}

// NewTransportError classifies an error returned by an HTTP client before
// any response arrived. Cancellation by the caller becomes a cancelled error;
// timeouts and connection failures become upstream errors without a status.
func NewTransportError(provider string, err error) *APIError {
	if errors.Is(err, context.Canceled) {
		return NewCancelledError(fmt.Sprintf("%s request cancelled", provider))
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return NewUpstreamError(provider, 0, "request timed out")
	}
	return NewUpstreamError(provider, 0, err.Error())
}

// KindOf returns the ErrorType of err. Errors that are not (and do not wrap)
// an *APIError are reported as server errors; nil yields "".
func KindOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type
	}
	return ErrorTypeServerError
}
