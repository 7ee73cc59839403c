package gcal

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrContactNotFound is returned by ContactResolver when no known address
// matches. Recoverable: the scheduler prompts the user for the address.
var ErrContactNotFound = errors.New("contact not found")

// TransportError wraps a network-level failure of a collaborator call.
// Transient transport errors are retried a small fixed number of times on
// poller-originated calls and propagated unchanged on user-facing paths.
type TransportError struct {
	Op        string // collaborator operation, e.g. "gmail.threads.get"
	Transient bool   // retryable network fault vs. hard protocol error
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error in %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AuthError signals that a usable credential could not be obtained.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable transport fault.
func IsTransient(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Transient
}
