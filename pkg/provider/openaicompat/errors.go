package openaicompat

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rhuss/postsmith/pkg/api"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 * 1024

// MapHTTPError converts an HTTP response with a non-2xx status code into an
// upstream APIError carrying the status code and the raw body.
func MapHTTPError(provider string, resp *http.Response) *api.APIError {
	var body []byte
	if resp.Body != nil {
		body, _ = io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	}
	return api.NewUpstreamError(provider, resp.StatusCode, string(body))
}

// ExtractErrorMessage returns the message of a ChatErrorResponse body, or ""
// when body is not in that format.
func ExtractErrorMessage(body string) string {
	var errResp ChatErrorResponse
	if err := json.Unmarshal([]byte(body), &errResp); err == nil {
		return errResp.Error.Message
	}
	return ""
}
