// Package state holds the document state (tree, event log, undo/redo
// stacks, derived indices) and the pure reducer that advances it one
// event at a time.
package state

import "errors"

var (
	// ErrNodeNotFound indicates an event referenced a node absent from the index.
	ErrNodeNotFound = errors.New("state: node not found")

	// ErrWrongKind indicates an event targeted a node of an unexpected kind.
	ErrWrongKind = errors.New("state: wrong node kind for operation")

	// ErrIndexOutOfRange indicates a child index outside the parent's span.
	ErrIndexOutOfRange = errors.New("state: child index out of range")

	// ErrDuplicateNode indicates an insert of an id already in the tree.
	ErrDuplicateNode = errors.New("state: duplicate node id")

	// ErrInvalidChild indicates a child kind not allowed under the parent kind.
	ErrInvalidChild = errors.New("state: child kind not allowed under parent")

	// ErrRootImmovable indicates an attempt to delete or move the root.
	ErrRootImmovable = errors.New("state: root node cannot be deleted or moved")

	// ErrVersionRegression indicates an event whose version does not advance the state.
	ErrVersionRegression = errors.New("state: event version does not advance state")

	// ErrInternal indicates the reducer could not apply a synthesized
	// inverse or redo event. This is a defect, not a user error.
	ErrInternal = errors.New("state: internal consistency failure")

	// ErrInconsistent indicates the derived indices disagree with the tree.
	ErrInconsistent = errors.New("state: index disagrees with tree")
)
