package enable

import "errors"

// Enablement errors.
var (
	// ErrNoDocument is returned when an operation defaults to the current
	// document and the host has none.
	ErrNoDocument = errors.New("no current document")

	// ErrUnknownCommand is returned by Dispatch for unrecognized input.
	ErrUnknownCommand = errors.New("unknown command")
)
