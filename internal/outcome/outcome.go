// Package outcome defines the discriminated failure kinds the response
// pipeline may return. Handlers map each kind to a localized user-facing
// message exactly once; raw causes stay in the log.
package outcome

import (
	"errors"
	"fmt"
)

var (
	// ErrUserUnknown means no profile exists for the user. The caller should
	// prompt for /start; this is not logged as an error.
	ErrUserUnknown = errors.New("user unknown")

	// ErrConfig means the remote API credential is missing. A deployment
	// precondition, never retried automatically.
	ErrConfig = errors.New("missing api credential")

	// ErrTransient covers network failures, timeouts and remote-service
	// errors. Safe to retry later, not retried inline.
	ErrTransient = errors.New("transient completion failure")

	// ErrBadFormat means the remote response is missing expected fields or
	// is not well-formed JSON. A remote contract violation, not a local bug.
	ErrBadFormat = errors.New("malformed completion response")
)

// Transient wraps cause as a transient failure.
func Transient(cause error) error {
	return fmt.Errorf("%w: %v", ErrTransient, cause)
}

// BadFormat wraps cause as a format failure.
func BadFormat(cause error) error {
	return fmt.Errorf("%w: %v", ErrBadFormat, cause)
}

// IsUserUnknown reports whether err is the user-unknown outcome.
func IsUserUnknown(err error) bool { return errors.Is(err, ErrUserUnknown) }
