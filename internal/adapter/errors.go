package adapter

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors mapped from HTTP status codes by mapHTTPError so callers
// can branch with [errors.Is] without knowing about transport details.
var (
	ErrUnauthorized = errors.New("client unauthorized")
)

// RateLimitError is returned when the backend answers 429. RetryAfter
// carries the server's cool-down hint (Retry-After header or retry_after
// body field), zero when the server gave none. The save orchestrator
// branches on this type with [errors.As] instead of sniffing error text.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

// RejectedError is returned for 4xx responses other than 401/408/429: the
// backend understood the request and refused it, so retrying the same
// payload cannot succeed. The sync engine marks such mutations failed
// instead of retrying them forever.
type RejectedError struct {
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("rejected by backend (http %d): %s", e.StatusCode, e.Body)
}

// IsRateLimited reports whether err carries a rate-limit signal.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// IsRejected reports whether err is a permanent backend rejection, as
// opposed to a transient failure worth retrying.
func IsRejected(err error) bool {
	var rej *RejectedError
	return errors.As(err, &rej)
}
