package review

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when approving or rejecting an item
	// that has already left the draft state.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrItemNotFound is returned when an item ID is not in the session.
	ErrItemNotFound = errors.New("item not found")

	// ErrAlreadyIngested is returned when Ingest is called on a populated session.
	ErrAlreadyIngested = errors.New("session already ingested")

	// ErrInvalidEdit is returned when an edit references a field that is not
	// part of the item kind's schema.
	ErrInvalidEdit = errors.New("invalid edit field")

	// ErrMalformedState is returned when persisted review state is missing
	// required fields or contains unrecognized values.
	ErrMalformedState = errors.New("malformed review state")
)

// IncompleteError is returned by the export gate when items are still pending
// review. It carries the pending count so callers can report what is left.
type IncompleteError struct {
	Pending int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("review incomplete: %d items still need review", e.Pending)
}
