// Package wal implements a write-ahead event journal for crash recovery
package wal

import "errors"

var (
	// ErrCorrupted indicates a corrupted journal entry (CRC mismatch)
	ErrCorrupted = errors.New("wal: corrupted entry")

	// ErrInvalidEntry indicates a journal entry whose payload cannot be decoded
	ErrInvalidEntry = errors.New("wal: invalid entry")

	// ErrLogClosed indicates an operation on a closed journal
	ErrLogClosed = errors.New("wal: journal closed")

	// ErrLogNotFound indicates journal files don't exist
	ErrLogNotFound = errors.New("wal: journal not found")

	// ErrTruncated indicates a truncated journal entry
	ErrTruncated = errors.New("wal: truncated entry")
)
