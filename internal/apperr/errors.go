// Package apperr defines the sentinel errors shared across the application.
package apperr

import "errors"

var (
	// ErrMalformedDocument marks a script that cannot be compiled: invalid
	// JSON, a missing template, a bad color, or a field of the wrong shape.
	// It is fatal for the offending script only; the previously compiled
	// scene stays on screen.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrCorruptBlob marks a persisted blob whose magic or checksums do not
	// verify. Callers treat it exactly like "no stored configuration".
	ErrCorruptBlob = errors.New("corrupt blob")

	// ErrLinkFault is a retryable network-link failure.
	ErrLinkFault = errors.New("link fault")

	// ErrBrokerFault is a retryable broker failure.
	ErrBrokerFault = errors.New("broker fault")
)
