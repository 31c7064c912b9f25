package cluster

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse marks a batch response that does not match the
// declared {clusters:[...]} contract. It is fatal for the whole generation:
// a broken envelope means the prompt/contract itself broke, not that the
// model hallucinated one id.
var ErrMalformedResponse = errors.New("cluster: malformed completion response")

// RetryableError wraps an upstream failure (timeout, rate limit, transient
// unavailability) that the caller may present as "try again".
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("cluster: completion service unavailable: %v", e.Err)
}
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is (or wraps) a RetryableError.
func IsRetryable(err error) bool {
	var rErr *RetryableError
	return errors.As(err, &rErr)
}
