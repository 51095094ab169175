package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/ternarybob/percontor/internal/models"
)

// ClassifyError wraps a raw provider SDK error into the shared error
// taxonomy. Context cancellation and deadline errors pass through unchanged
// so callers can distinguish timeouts from upstream failures.
func ClassifyError(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	if isRateLimitError(err) {
		return &models.RateLimitError{Provider: provider, Err: err}
	}
	return &models.ProviderError{Provider: provider, StatusCode: statusCode(err), Err: err}
}

// isRateLimitError checks if an error is a provider rate limit error.
// Matches 429 status codes, RESOURCE_EXHAUSTED, and quota errors.
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "rate_limit") ||
		strings.Contains(errStr, "quota")
}

// statusCode extracts an HTTP status code from an SDK error message when one
// is embedded, otherwise 0. Provider SDKs prefix messages with the status
// line ("500 Internal Server Error", "529 ...") for API-level failures.
func statusCode(err error) int {
	errStr := err.Error()
	for _, code := range []struct {
		marker string
		status int
	}{
		{"500", 500},
		{"502", 502},
		{"503", 503},
		{"529", 529},
	} {
		if strings.Contains(errStr, code.marker) {
			return code.status
		}
	}
	return 0
}
