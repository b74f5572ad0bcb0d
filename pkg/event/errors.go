// Package event defines the closed set of immutable change records for the
// document engine, a factory that constructs them, and inverse synthesis
// for undo.
package event

import "errors"

var (
	// ErrUnknownKind indicates an event kind outside the closed set.
	ErrUnknownKind = errors.New("event: unknown event kind")

	// ErrNotFound indicates an event id absent from the log.
	ErrNotFound = errors.New("event: event not found")
)
