// ABOUTME: Bridge contract for external history-item stores
// ABOUTME: Items may carry a structured document state or nothing at all

package snapshot

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/Blakthorne/whispersermons-sub001/pkg/state"
)

// Item is one record in an external history store. Newer records carry
// the structured document state; older records predate it and carry
// none.
type Item struct {
	ID            string          `json:"id"`
	Title         string          `json:"title,omitempty"`
	SavedAt       time.Time       `json:"savedAt"`
	DocumentState json.RawMessage `json:"documentState,omitempty"`
}

// HasState reports whether the item carries a restorable document state.
func HasState(item *Item) bool {
	return item != nil &&
		len(item.DocumentState) > 0 &&
		!bytes.Equal(item.DocumentState, []byte("null"))
}

// Restore rebuilds a full state from the item. Items without document
// data fail with ErrNoDocumentData; items carrying corrupt data fail
// with the deserialization error.
func Restore(item *Item) (*state.State, error) {
	if !HasState(item) {
		return nil, ErrNoDocumentData
	}
	return Deserialize(item.DocumentState)
}

// Save returns a copy of the item carrying the state serialized with the
// given options. A nil item produces a fresh one. The input item is not
// modified.
func Save(item *Item, s *state.State, opts Options) (*Item, error) {
	data, err := Serialize(s, opts)
	if err != nil {
		return nil, err
	}
	var out Item
	if item != nil {
		out = *item
	}
	out.DocumentState = data
	out.SavedAt = time.Now().UTC()
	return &out, nil
}
