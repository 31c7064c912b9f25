package accept

import (
	"errors"
	"fmt"
)

// ErrNoSelection is returned when accept is called with nothing selected.
// No network or store call has happened.
var ErrNoSelection = errors.New("accept: no clusters selected")

// ErrInvalidSelection is returned when any selected item has an empty or
// over-length name or no member queries. The whole batch is rejected and
// nothing is persisted.
var ErrInvalidSelection = errors.New("accept: invalid clusters selected")

// PartialError reports an accept call where some items failed. Groups listed
// in Result.Created were persisted before or after the failures and remain
// durable.
type PartialError struct {
	Result Result
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("accept: %d of %d clusters failed",
		len(e.Result.Failures), len(e.Result.Failures)+len(e.Result.Created))
}
