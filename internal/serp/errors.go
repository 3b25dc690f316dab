package serp

import (
	"fmt"
	"net/http"
)

const maxErrorBody = 512

// APIError is returned for a non-2xx or undecodable search response.
type APIError struct {
	StatusCode int
	Status     string // API status string, e.g. RESOURCE_EXHAUSTED
	Message    string
	Body       string // truncated raw body
	Malformed  bool   // 2xx with a body that could not be decoded
}

func (e *APIError) Error() string {
	switch {
	case e.Malformed:
		return fmt.Sprintf("serp: malformed response (HTTP %d): %s", e.StatusCode, e.Message)
	case e.Message != "":
		return fmt.Sprintf("serp: HTTP %d %s: %s", e.StatusCode, e.Status, e.Message)
	default:
		return fmt.Sprintf("serp: HTTP %d", e.StatusCode)
	}
}

// Retryable reports whether another attempt may succeed.
func (e *APIError) Retryable() bool {
	return e.Malformed || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody])
	}
	return string(b)
}
