package api

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidationConfig holds configurable limits for request validation.
type ValidationConfig struct {
	MaxTopicLength int
}

// DefaultValidationConfig returns a ValidationConfig with sensible defaults.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MaxTopicLength: 500,
	}
}

// ValidateRequest checks a GenerateRequest for transport-level validity.
// A blank topic is not a validation failure: the pipeline answers it with
// a prompt to retry.
func ValidateRequest(req *GenerateRequest, cfg ValidationConfig) *APIError {
	if req == nil {
		return NewInvalidRequestError("", "request body is required")
	}
	if cfg.MaxTopicLength > 0 && utf8.RuneCountInString(req.Topic) > cfg.MaxTopicLength {
		return NewInvalidRequestError("topic",
			fmt.Sprintf("topic exceeds maximum of %d characters", cfg.MaxTopicLength))
	}
	return nil
}

// IsBlankTopic reports whether topic is empty or whitespace only.
func IsBlankTopic(topic string) bool {
	return strings.TrimSpace(topic) == ""
}
