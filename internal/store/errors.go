package store

import "errors"

// These sentinel errors exist for full model encapsulation, so the upper layers aren't concerned with the
// underlying datastore or reliant on backend specific errors (like sql.ErrNoRows or redis.Nil).

var (
	// ErrNotFound to be returned when no document is stored under the requested key.
	// It's value is "no such record exists".
	ErrNotFound = errors.New("no such record exists")

	// ErrConnectionFailed is returned when the backend could not be reached. Callers
	// treat it as transient: the consumer retries it, the API reports it as 503.
	ErrConnectionFailed = errors.New("connection to the store failed")

	// ErrConflict is returned when an optimistic update kept losing the race
	// against concurrent writers.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrInvalidPath is returned by PutField when the path does not lead
	// through objects or arrays of the stored document.
	ErrInvalidPath = errors.New("invalid document path")
)
