// ABOUTME: Sentinel errors for the editor bridge
// ABOUTME: One failure class: malformed external editor input

// Package bridge converts between the engine's document tree and the
// JSON node model of the rich-text editor surface. Both directions are
// total: malformed input yields an error, never a panic.
package bridge

import "errors"

// ErrMalformedForm reports editor input that does not describe a legal
// document: wrong node types, illegal nesting, missing required
// attributes.
var ErrMalformedForm = errors.New("bridge: malformed editor form")
