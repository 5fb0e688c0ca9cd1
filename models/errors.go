// models/errors.go
package models

import "errors"

// Typed failures surfaced by repositories and services. Controllers map these
// to HTTP responses; nothing below this layer writes status codes.
var (
	// ErrNotFound covers both a missing entity and an entity outside the
	// actor's subtree. The two cases must stay indistinguishable to callers
	// so the tree structure cannot be probed through error responses.
	ErrNotFound = errors.New("not found")

	// ErrInvalidParent means an agency creation referenced a parent that
	// does not exist.
	ErrInvalidParent = errors.New("parent agency not found")

	// ErrDuplicateEmail means the agency or user email is already in use.
	ErrDuplicateEmail = errors.New("email already in use")

	// ErrDuplicateClient means a client with the same email or phone exists.
	ErrDuplicateClient = errors.New("client already registered")

	// ErrHasChildren blocks deletion of an agency that still has sub-agencies.
	ErrHasChildren = errors.New("agency has sub-agencies")

	// ErrInvalidTransition means the requested client status is not a
	// recognized lifecycle state.
	ErrInvalidTransition = errors.New("invalid status")

	// ErrConcurrentModification means a lifecycle transition lost a race
	// against another transition on the same client.
	ErrConcurrentModification = errors.New("client was modified concurrently")

	// ErrUnauthorized means the actor's role does not permit the operation
	// at all, independent of tree scope.
	ErrUnauthorized = errors.New("insufficient permissions")
)
