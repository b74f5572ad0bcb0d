// ABOUTME: Sentinel errors for snapshot encoding, decoding, and the item bridge
// ABOUTME: Parse failures and structural failures are distinct by contract

// Package snapshot persists document states as compact JSON and restores
// them, rebuilding the derived indices and validating structural
// integrity on the way in. It also implements the bridge contract for
// external history-item stores.
package snapshot

import "errors"

var (
	// ErrParse reports malformed snapshot bytes: not JSON, or JSON that
	// does not decode into the snapshot shape.
	ErrParse = errors.New("snapshot: parse error")

	// ErrInvalidStructure reports well-formed JSON whose content is not a
	// coherent document state: illegal tree shape, dangling stack ids,
	// version disagreement.
	ErrInvalidStructure = errors.New("snapshot: invalid structure")

	// ErrNoDocumentData reports a history item carrying no restorable
	// document state.
	ErrNoDocumentData = errors.New("snapshot: no document data available")
)
