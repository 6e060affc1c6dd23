package services

import "errors"

// Invariant violations are expected operator-input mistakes, surfaced as
// sentinel errors so handlers can answer with a specific message rather than
// a generic failure. Infrastructure errors are wrapped and propagated.
var (
	// ErrPersonNotFound means the person does not exist or is outside the
	// caller's organisation scope; the two cases are deliberately
	// indistinguishable.
	ErrPersonNotFound = errors.New("person not found")

	// ErrSelfLink means a link was attempted between a person and itself
	ErrSelfLink = errors.New("cannot link a person to itself")

	// ErrAlreadyLinked means an edge already exists between the pair, in
	// either direction
	ErrAlreadyLinked = errors.New("persons are already linked")

	// ErrSelfMerge means a merge was attempted with target == source
	ErrSelfMerge = errors.New("cannot merge a person into itself")
)
