package catalog

import "errors"

// Domain sentinel errors shared across stores and services.
var (
	// ErrNotFound means the referenced entry id is unknown.
	ErrNotFound = errors.New("entry not found")
	// ErrRejected means the backing store refused a write; it is not
	// retryable and is counted in partial-success summaries.
	ErrRejected = errors.New("storage rejected write")
)
