package documents

import "errors"

var (
	// ErrNotFound is returned when a document or knowledge base is unknown.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a request cannot be applied in the
	// document's current state.
	ErrConflict = errors.New("conflict")

	// ErrInvalid is returned for malformed requests.
	ErrInvalid = errors.New("invalid request")

	// ErrStaleRun is returned for worker reports from a superseded run.
	ErrStaleRun = errors.New("stale run")

	// ErrUnavailable is returned when the worker cannot accept a run.
	ErrUnavailable = errors.New("worker unavailable")
)
