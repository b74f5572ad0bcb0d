// ABOUTME: Immutable change records for the document engine
// ABOUTME: Defines the event envelope and the closed set of event kinds

package event

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind discriminates the event union.
type Kind string

const (
	KindDocumentCreated        Kind = "document_created"
	KindDocumentImported       Kind = "document_imported"
	KindDocumentUpdated        Kind = "document_updated"
	KindNodeCreated            Kind = "node_created"
	KindNodeDeleted            Kind = "node_deleted"
	KindNodeMoved              Kind = "node_moved"
	KindTextChanged            Kind = "text_changed"
	KindContentReplaced        Kind = "content_replaced"
	KindPassageCreated         Kind = "passage_created"
	KindQuoteCreated           Kind = "quote_created"
	KindPassageRemoved         Kind = "passage_removed"
	KindPassageMetadataUpdated Kind = "passage_metadata_updated"
	KindPassageVerified        Kind = "passage_verified"
	KindPassageBoundaryChanged Kind = "passage_boundary_changed"
	KindInterjectionAdded      Kind = "interjection_added"
	KindInterjectionRemoved    Kind = "interjection_removed"
	KindNodesJoined            Kind = "nodes_joined"
	KindNodeSplit              Kind = "node_split"
	KindParagraphMerged        Kind = "paragraph_merged"
	KindParagraphSplit         Kind = "paragraph_split"
	KindBatch                  Kind = "batch"
	KindUndo                   Kind = "undo"
	KindRedo                   Kind = "redo"
)

// Origin records which actor produced an event.
type Origin string

const (
	OriginSystem Origin = "system"
	OriginUser   Origin = "user"
	OriginImport Origin = "import"
)

// Event is one immutable record of a state transition. Version is the
// document version the event produces when applied; inverse events carried
// inside an undo are effect-only and keep the version they were
// synthesized at.
type Event struct {
	ID        string
	Kind      Kind
	Timestamp time.Time
	Version   int
	Origin    Origin
	Payload   Payload
}

// Payload is the kind-specific body of an event. Implementations live in
// payloads.go; the set is closed.
type Payload interface {
	isPayload()
}

// Kinds returns every event kind, in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindDocumentCreated, KindDocumentImported, KindDocumentUpdated,
		KindNodeCreated, KindNodeDeleted, KindNodeMoved,
		KindTextChanged, KindContentReplaced,
		KindPassageCreated, KindQuoteCreated, KindPassageRemoved,
		KindPassageMetadataUpdated, KindPassageVerified, KindPassageBoundaryChanged,
		KindInterjectionAdded, KindInterjectionRemoved,
		KindNodesJoined, KindNodeSplit,
		KindParagraphMerged, KindParagraphSplit,
		KindBatch, KindUndo, KindRedo,
	}
}

// IsLogOnly reports whether k is recorded in the log without any tree or
// index effect.
func IsLogOnly(k Kind) bool {
	switch k {
	case KindDocumentCreated, KindDocumentImported, KindNodesJoined, KindNodeSplit:
		return true
	}
	return false
}

// IsUndoable reports whether events of kind k are pushed onto the undo
// stack when applied. Undo and redo manage the stacks themselves, and
// log-only kinds have nothing to reverse.
func IsUndoable(k Kind) bool {
	switch k {
	case KindUndo, KindRedo:
		return false
	}
	return !IsLogOnly(k)
}

// newEventID returns a ULID string; ids sort in creation order, matching
// the event log's append order.
func newEventID() string {
	return ulid.Make().String()
}

// Find returns the event with the given id from a log slice, or nil.
func Find(events []*Event, id string) *Event {
	for _, ev := range events {
		if ev.ID == id {
			return ev
		}
	}
	return nil
}

// Tail returns the most recent n events (the whole slice if n <= 0 or n
// exceeds the length). The returned slice shares backing storage.
func Tail(events []*Event, n int) []*Event {
	if n <= 0 || n >= len(events) {
		return events
	}
	return events[len(events)-n:]
}
