package repository

import "errors"

var (
	// ErrNotFound is returned by guarded writes whose WHERE clause matched nothing.
	ErrNotFound = errors.New("repository: no matching row")

	// ErrBidConflict means the auction price moved (or the auction closed)
	// between the read and the conditional update.
	ErrBidConflict = errors.New("repository: auction price changed concurrently")

	// ErrSlotTaken means another booking already holds the agent's slot.
	ErrSlotTaken = errors.New("repository: booking slot already taken")
)
