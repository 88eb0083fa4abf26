package jolpica

import (
	"fmt"
	"net/http"
	"time"
)

// StatusError is a non-200 response from the API.
type StatusError struct {
	URL        string
	StatusCode int
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("GET %s: status %d (retry after %s)", e.URL, e.StatusCode, e.RetryAfter.Round(time.Second))
	}
	return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
}

// RateLimited reports whether the API asked the client to back off: a 429,
// or a 503 that names a retry delay.
func (e *StatusError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests ||
		(e.StatusCode == http.StatusServiceUnavailable && e.RetryAfter > 0)
}

// RetryAfterDelay is the Retry-After the server sent, or zero.
func (e *StatusError) RetryAfterDelay() time.Duration {
	return e.RetryAfter
}

func retryAfterHeader(resp *http.Response) time.Duration {
	if resp == nil || resp.Header == nil {
		return 0
	}

	retry := resp.Header.Get("Retry-After")
	if retry == "" {
		return 0
	}

	if seconds, err := time.ParseDuration(retry + "s"); err == nil {
		return seconds
	}
	if parsed, err := http.ParseTime(retry); err == nil {
		return time.Until(parsed)
	}
	return 0
}
