package store

import "errors"

var (
	// ErrNotFound is returned when a requested row does not exist, and by
	// the conditioned status updates when the request is no longer pending.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned on uniqueness or referential violations,
	// such as a receipt collision or a second key for one username.
	ErrConflict = errors.New("constraint violation")

	// ErrInconsistent is returned when a query that must match at most one
	// row matches several. It means an invariant is broken and is surfaced
	// as an internal error, never as a user-facing 404.
	ErrInconsistent = errors.New("store inconsistency")
)
