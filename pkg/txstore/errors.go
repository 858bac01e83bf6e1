package txstore

import "errors"

var (
	// ErrNotFound is returned when a lookup key has no record, whether it
	// never existed or was already deleted.
	ErrNotFound = errors.New("txstore: not found")

	// ErrExpired is returned when a record exists but its ExpiresAt has
	// passed. Callers treat this the same as ErrNotFound for most
	// purposes, but it is distinguished for logging.
	ErrExpired = errors.New("txstore: expired")

	// ErrAlreadyExists is returned by the Create* methods when the given
	// key collides with a live record.
	ErrAlreadyExists = errors.New("txstore: already exists")

	// ErrConsumed is returned when a single-use code or refresh chain has
	// already been consumed. Distinguished from ErrNotFound so the Flow
	// Engine can report invalid_grant with a replay-specific log line.
	ErrConsumed = errors.New("txstore: already consumed")

	// ErrInvalidRequest is returned for caller errors: empty keys, nil
	// records, or a zero ExpiresAt.
	ErrInvalidRequest = errors.New("txstore: invalid request")
)
