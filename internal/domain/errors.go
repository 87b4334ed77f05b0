package domain

import "errors"

var (
	// ErrValidation signals invalid request parameters, raised before any
	// backend call.
	ErrValidation = errors.New("invalid parameters")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrBackendTimeout signals that the search backend reported a timed-out
	// execution. Fatal to the caller, never retried here.
	ErrBackendTimeout = errors.New("search backend timed out")
	// ErrTreeInvariant signals a structural violation while assembling the
	// disease tree (root as child, node as its own child). Programming or
	// data error, not user input.
	ErrTreeInvariant = errors.New("tree invariant violation")
)
