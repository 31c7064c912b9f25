// Package llm wraps the external completion providers behind a small JSON
// generation interface. Providers are decorated with middleware for retries,
// rate limiting and per-call timeouts.
package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrInvalidJSON is returned when a provider answers with something that is
// not a JSON document.
var ErrInvalidJSON = errors.New("llm: invalid JSON from model")

// Client is one completion provider. GenerateJSON sends a system prompt and
// a user payload and returns the raw JSON document the model produced.
type Client interface {
	Name() string
	GenerateJSON(ctx context.Context, system string, input any) (json.RawMessage, error)
	Close() error
}

// PermanentError marks a failure that will not resolve with retries (auth,
// malformed request, context length). Everything else from a provider is
// treated as retryable.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err is (or wraps) a PermanentError.
func IsPermanent(err error) bool {
	var pErr *PermanentError
	return errors.As(err, &pErr)
}
