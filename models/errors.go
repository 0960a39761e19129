package models

import "errors"

// Error taxonomy shared by the service packages. Unauthorized and
// Forbidden are produced at the middleware boundary and never reach
// this layer.
var (
	// ErrNotFound: no meter exists under the given key or id.
	ErrNotFound = errors.New("meter not found")

	// ErrInvalidInput: malformed status, non-positive assignment count,
	// or a missing required field. Detected before any mutation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoUnassignedMeters is a recoverable, reportable condition, not
	// a fault: the unassigned pool is simply empty.
	ErrNoUnassignedMeters = errors.New("no unassigned meters available")

	// ErrStoreUnavailable: transient datastore failure, retriable by
	// the caller with backoff.
	ErrStoreUnavailable = errors.New("datastore unavailable")
)
