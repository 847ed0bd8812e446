// Package transport defines the boundary to the remote controller: a
// session-oriented peer exposing named scalar tags, each readable and
// writable as a float. The control loop treats any read or write error as
// session-invalidating and replaces the session wholesale via the Dialer.
package transport

import (
	"context"
	"errors"
)

// ErrUnknownTag is returned when a session is asked for a tag it did not
// resolve at dial time.
var ErrUnknownTag = errors.New("unknown tag")

// Session is an established connection with its tags resolved. A session
// that has returned an error from Read or Write must be discarded; only
// Close may be called on it afterwards.
type Session interface {
	// Read returns the current value of the named tag.
	Read(ctx context.Context, tag string) (float64, error)

	// Write sets the named tag to value.
	Write(ctx context.Context, tag string, value float64) error

	// Close tears the session down. Best effort: callers discard the
	// session regardless of the result.
	Close(ctx context.Context) error
}

// Dialer performs a single connection attempt. Retry policy lives with the
// caller, not here.
type Dialer interface {
	Dial(ctx context.Context) (Session, error)
}
