package planner

import "errors"

// Sentinel errors returned by group operations. All of them are user-level
// conditions: the caller reports a warning and the board stays unchanged.
var (
	// ErrGroupNotFound is returned when a group key no longer resolves,
	// e.g. the group was deleted while a context menu was open.
	ErrGroupNotFound = errors.New("group not found")

	// ErrNoCapacity is returned when a move produces an empty spread:
	// the destination has no available capacity in the visible range.
	ErrNoCapacity = errors.New("no available capacity on destination")

	// ErrInvalidSplit is returned when the split date does not fall
	// strictly inside the group's date span.
	ErrInvalidSplit = errors.New("invalid split point")

	// ErrInvalidQuantity is returned for a non-positive quantity edit.
	ErrInvalidQuantity = errors.New("quantity must be positive")
)
