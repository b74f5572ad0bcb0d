// Package ast models sermon transcript documents as a tagged tree of
// content nodes: a document root holding paragraphs, which hold text runs
// and scripture passages, which hold text runs and interjections.
package ast

import "errors"

var (
	// ErrNotContainer is returned when children are requested of a leaf kind.
	ErrNotContainer = errors.New("ast: node kind carries no children")

	// ErrUnknownKind is returned when decoding a node with an unrecognized type tag.
	ErrUnknownKind = errors.New("ast: unknown node kind")
)
