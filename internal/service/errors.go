package service

import (
	"errors"
	"fmt"
	"time"
)

// ErrOracleDisabled is returned when no API key is configured.
var ErrOracleDisabled = errors.New("gemini API is not enabled (missing API key)")

// ErrNotSelect marks a synthesized query rejected before execution because it
// does not begin with a SELECT statement.
var ErrNotSelect = errors.New("generated query is not a SELECT statement")

// TransportError wraps a network or timeout failure talking to the oracle.
// Retryable under the bounded retry policy.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("oracle transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RateLimitError is a 429 from the oracle. RetryAfter carries the
// server-supplied backoff when present.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("oracle rate limited, retry after %s", e.RetryAfter)
}

// APIError is a non-retryable HTTP failure (4xx/5xx logic errors).
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("oracle request failed with status %d: %s", e.Status, e.Body)
}

// MalformedError marks a response that arrived but could not be interpreted:
// missing candidates, unparsable JSON, empty text. Never retried.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("oracle response malformed: %s", e.Reason)
}

// retryable reports whether the bounded retry policy applies to err. Only
// transient transport failures and rate limiting qualify; malformed responses
// and logic errors never do.
func retryable(err error) bool {
	var te *TransportError
	var rl *RateLimitError
	return errors.As(err, &te) || errors.As(err, &rl)
}
