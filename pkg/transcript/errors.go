// ABOUTME: Sentinel errors for transcript parsing and document building
// ABOUTME: Parse failures and empty-input failures are distinct by contract

// Package transcript turns the timed segments produced by the
// transcription stage into the initial document tree for editing.
package transcript

import "errors"

var (
	// ErrParse indicates the transcript JSON could not be decoded.
	ErrParse = errors.New("transcript: parse error")

	// ErrNilTranscript indicates Build was handed a nil transcript.
	ErrNilTranscript = errors.New("transcript: nil transcript")

	// ErrEmptyTranscript indicates no segment survived trimming, so
	// there is no content to edit.
	ErrEmptyTranscript = errors.New("transcript: no segments with content")
)
