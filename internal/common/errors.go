// Package common defines the sentinel errors shared across the verification
// workflow and its collaborators. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Link-level errors.
	ErrInvalidLink   = errors.New("invalid verification link")
	ErrMalformedLink = errors.New("no forum identifier in link")

	// Fetch/parse errors.
	ErrFetch = errors.New("verification page fetch failed")

	// Decision-level errors.
	ErrNoProof        = errors.New("no verification post found")
	ErrDuplicateName  = errors.New("display name already in use")
	ErrDuplicateForum = errors.New("forum account already used")

	// Platform lookup errors.
	ErrMemberNotFound = errors.New("member not found")
)
