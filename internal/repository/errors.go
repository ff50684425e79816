package repository

import "errors"

var (
	// ErrNotFound is returned when no record matches the query, including
	// conditional updates that lost a race (the token no longer matches).
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when a write violates the unique
	// {role, email} constraint. The index is the source of truth for the
	// uniqueness invariant; application-level checks are only a fast path.
	ErrDuplicateEmail = errors.New("email already registered for this role")
)
