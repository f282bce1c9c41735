package database

import "errors"

var (
	// ErrRoomNotAvailable is returned when the check-then-insert booking
	// transaction finds an overlapping stay on the requested room.
	ErrRoomNotAvailable = errors.New("room is not available for the requested dates")

	// ErrInsufficientStock is returned by stock deductions that would take
	// current_stock below zero.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrNotFound is returned for missing rooms, stays, supplies or usages.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned for illegal stay status transitions.
	ErrInvalidTransition = errors.New("invalid stay status transition")
)
