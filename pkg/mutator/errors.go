// Package mutator provides the stateful editing façade over the pure
// reducer: one live document state, validated high-level operations,
// batching, undo/redo, and change subscriptions.
package mutator

import "errors"

var (
	// ErrNodeNotFound indicates the operation referenced a node absent
	// from the current index.
	ErrNodeNotFound = errors.New("mutator: node not found")

	// ErrWrongKind indicates the operation targeted a node of an
	// unexpected kind.
	ErrWrongKind = errors.New("mutator: wrong node kind for operation")

	// ErrCannotDeleteRoot rejects deletion of the document root.
	ErrCannotDeleteRoot = errors.New("mutator: cannot delete root node")

	// ErrOffsetOutOfRange indicates a text offset or span outside the
	// node's content.
	ErrOffsetOutOfRange = errors.New("mutator: text offset out of range")

	// ErrIndexOutOfRange indicates a child index outside the parent's span.
	ErrIndexOutOfRange = errors.New("mutator: child index out of range")

	// ErrNotAdjacent indicates a merge of paragraphs that are not
	// immediate siblings.
	ErrNotAdjacent = errors.New("mutator: paragraphs are not adjacent siblings")

	// ErrNothingToUndo indicates an undo with an empty undo stack.
	ErrNothingToUndo = errors.New("mutator: nothing to undo")

	// ErrNothingToRedo indicates a redo with an empty redo stack.
	ErrNothingToRedo = errors.New("mutator: nothing to redo")

	// ErrBatchNested rejects starting a batch inside a batch.
	ErrBatchNested = errors.New("mutator: batch already in progress")

	// ErrInvalidInBatch rejects operations that cannot run inside a batch.
	ErrInvalidInBatch = errors.New("mutator: operation not allowed inside a batch")

	// ErrNilDocument rejects an import without a document root.
	ErrNilDocument = errors.New("mutator: nil document root")
)
