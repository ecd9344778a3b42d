package model

import "errors"

var (
	// Ledger or store temporarily unavailable, the cycle is retried on the next tick
	ErrTransientSource = errors.New("transient source error")

	// Record with this hash already exists
	ErrDuplicateRecord = errors.New("duplicate record")

	ErrRecordNotFound = errors.New("record not found")
	ErrCursorNotFound = errors.New("cursor not found")

	// Conditional update didn't match, the record is already terminal
	ErrRecordTerminal = errors.New("record already in terminal state")
)
