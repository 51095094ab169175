package models

import (
	"errors"
	"fmt"
)

// ValidationError rejects malformed input before any provider call runs
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return "validation failed: " + e.Message
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// RateLimitError marks provider quota exhaustion. It is classified
// distinctly from generic provider failures so callers can surface a
// retry-friendly message.
type RateLimitError struct {
	Provider string
	Err      error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limit exceeded: %v", e.Provider, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// ProviderError is a generic upstream failure: network, 5xx, or a
// malformed response
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s request failed (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// RetrievalError wraps a retrieval-stage failure together with the timing
// collected before the pipeline aborted, so failure payloads still report
// how long the stage ran. Unwrap preserves the rate-limit and provider
// classification of the underlying error.
type RetrievalError struct {
	Timing PipelineTiming
	Err    error
}

func (e *RetrievalError) Error() string {
	return e.Err.Error()
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsRateLimit reports whether err carries a rate-limit classification
func IsRateLimit(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

// Generation degradation tags. A degraded generation is not an error: the
// pipeline still returns an answer payload carrying one of these tags.
const (
	GenerationErrorTimeout   = "timeout"
	GenerationErrorRateLimit = "rate_limit"
	GenerationErrorUpstream  = "upstream_error"
	GenerationErrorGeneric   = "generation_failed"
)
