// ABOUTME: Event factory: one constructor per kind
// ABOUTME: Stamps ids, timestamps, origins and resulting versions

package event

import (
	"time"

	"github.com/Blakthorne/whispersermons-sub001/pkg/ast"
)

// Factory builds events. It stamps each with a fresh id, the configured
// origin, the current time, and the version the event will produce.
type Factory struct {
	origin Origin
	now    func() time.Time
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithOrigin sets the originator recorded on built events.
func WithOrigin(o Origin) FactoryOption {
	return func(f *Factory) { f.origin = o }
}

// WithNow sets the clock used for event timestamps.
func WithNow(now func() time.Time) FactoryOption {
	return func(f *Factory) { f.now = now }
}

// NewFactory returns a factory stamping the "user" origin and UTC wall time.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		origin: OriginUser,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Origin returns the origin stamped on built events.
func (f *Factory) Origin() Origin { return f.origin }

func (f *Factory) build(kind Kind, version int, p Payload) *Event {
	return &Event{
		ID:        newEventID(),
		Kind:      kind,
		Timestamp: f.now(),
		Version:   version,
		Origin:    f.origin,
		Payload:   p,
	}
}

// buildAs is build with an explicit origin, used for synthesized events.
func (f *Factory) buildAs(kind Kind, version int, origin Origin, p Payload) *Event {
	ev := f.build(kind, version, p)
	ev.Origin = origin
	return ev
}

func (f *Factory) DocumentCreated(version int) *Event {
	return f.build(KindDocumentCreated, version, &DocumentCreated{})
}

func (f *Factory) DocumentImported(version int, source string, segments, paragraphs int) *Event {
	return f.build(KindDocumentImported, version, &DocumentImported{
		Source: source, SegmentCount: segments, ParagraphCount: paragraphs,
	})
}

func (f *Factory) DocumentUpdated(version int, previous, next DocumentMeta) *Event {
	return f.build(KindDocumentUpdated, version, &DocumentUpdated{Previous: previous, New: next})
}

func (f *Factory) NodeCreated(version int, node ast.Node, parentID string, index int) *Event {
	return f.build(KindNodeCreated, version, &NodeCreated{Node: node, ParentID: parentID, Index: index})
}

func (f *Factory) NodeDeleted(version int, node ast.Node, parentID string, index int) *Event {
	return f.build(KindNodeDeleted, version, &NodeDeleted{
		NodeID: node.ID(), Node: node, ParentID: parentID, Index: index,
	})
}

func (f *Factory) NodeMoved(version int, nodeID, fromParent string, fromIndex int, toParent string, toIndex int) *Event {
	return f.build(KindNodeMoved, version, &NodeMoved{
		NodeID: nodeID, FromParentID: fromParent, FromIndex: fromIndex,
		ToParentID: toParent, ToIndex: toIndex,
	})
}

func (f *Factory) TextChanged(version int, nodeID string, offset, deleteCount int, inserted, previous, next string) *Event {
	return f.build(KindTextChanged, version, &TextChanged{
		NodeID: nodeID, Offset: offset, DeleteCount: deleteCount,
		Inserted: inserted, Previous: previous, New: next,
	})
}

func (f *Factory) ContentReplaced(version int, nodeID, previous, next string) *Event {
	return f.build(KindContentReplaced, version, &ContentReplaced{NodeID: nodeID, Previous: previous, New: next})
}

func (f *Factory) PassageCreated(version int, passage ast.Node, parentID string, index int) *Event {
	return f.build(KindPassageCreated, version, &PassageCreated{Node: passage, ParentID: parentID, Index: index})
}

func (f *Factory) QuoteCreated(version int, passage ast.Node, parentID string, index int) *Event {
	return f.build(KindQuoteCreated, version, &QuoteCreated{Node: passage, ParentID: parentID, Index: index})
}

func (f *Factory) PassageRemoved(version int, passage ast.Node, parentID string, index int, replacements []ast.Node) *Event {
	return f.build(KindPassageRemoved, version, &PassageRemoved{
		PassageID: passage.ID(), Node: passage, ParentID: parentID,
		Index: index, Replacements: replacements,
	})
}

func (f *Factory) PassageMetadataUpdated(version int, passageID string, previous, next ast.PassageData) *Event {
	return f.build(KindPassageMetadataUpdated, version, &PassageMetadataUpdated{
		PassageID: passageID, Previous: previous, New: next,
	})
}

func (f *Factory) PassageVerified(version int, passageID string, verified, previous bool) *Event {
	return f.build(KindPassageVerified, version, &PassageVerified{
		PassageID: passageID, Verified: verified, Previous: previous,
	})
}

func (f *Factory) PassageBoundaryChanged(version int, passageID string, prevStart, prevEnd, newStart, newEnd *int) *Event {
	return f.build(KindPassageBoundaryChanged, version, &PassageBoundaryChanged{
		PassageID: passageID, PrevStart: prevStart, PrevEnd: prevEnd,
		NewStart: newStart, NewEnd: newEnd,
	})
}

func (f *Factory) InterjectionAdded(version int, passageID string, descriptor ast.InterjectionRef, node ast.Node, childIndex int) *Event {
	return f.build(KindInterjectionAdded, version, &InterjectionAdded{
		PassageID: passageID, Descriptor: descriptor, Node: node, ChildIndex: childIndex,
	})
}

func (f *Factory) InterjectionRemoved(version int, passageID string, descriptor ast.InterjectionRef, node ast.Node, childIndex int) *Event {
	return f.build(KindInterjectionRemoved, version, &InterjectionRemoved{
		PassageID: passageID, InterjectionID: descriptor.ID,
		Descriptor: descriptor, Node: node, ChildIndex: childIndex,
	})
}

func (f *Factory) NodesJoined(version int, nodeIDs []string, survivorID string) *Event {
	return f.build(KindNodesJoined, version, &NodesJoined{NodeIDs: nodeIDs, SurvivorID: survivorID})
}

func (f *Factory) NodeSplit(version int, nodeID string, resultIDs []string) *Event {
	return f.build(KindNodeSplit, version, &NodeSplit{NodeID: nodeID, ResultIDs: resultIDs})
}

func (f *Factory) ParagraphMerged(version int, firstID, secondID string, removed ast.Node, appended int) *Event {
	return f.build(KindParagraphMerged, version, &ParagraphMerged{
		FirstID: firstID, SecondID: secondID, Removed: removed, AppendedCount: appended,
	})
}

func (f *Factory) ParagraphSplit(version int, paragraphID string, childIndex int, newParagraphID string) *Event {
	return f.build(KindParagraphSplit, version, &ParagraphSplit{
		ParagraphID: paragraphID, ChildIndex: childIndex, NewParagraphID: newParagraphID,
	})
}

func (f *Factory) Batch(version int, description string, members []*Event) *Event {
	return f.build(KindBatch, version, &Batch{Description: description, Events: members})
}

func (f *Factory) Undo(version int, targetEventID string, inverse []*Event) *Event {
	return f.buildAs(KindUndo, version, OriginSystem, &Undo{TargetEventID: targetEventID, Inverse: inverse})
}

func (f *Factory) Redo(version int, undoEventID string, events []*Event) *Event {
	return f.buildAs(KindRedo, version, OriginSystem, &Redo{UndoEventID: undoEventID, Events: events})
}
