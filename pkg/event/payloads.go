// ABOUTME: Kind-specific event payload structs
// ABOUTME: Forward events capture the prior context their inverses need

package event

import "github.com/Blakthorne/whispersermons-sub001/pkg/ast"

// DocumentMeta is the document-level metadata snapshot carried by
// document_updated events.
type DocumentMeta struct {
	Title        string   `json:"title"`
	BiblePassage string   `json:"biblePassage"`
	Speaker      string   `json:"speaker"`
	Tags         []string `json:"tags"`
}

// DocumentCreated marks the birth of a fresh document. Log only.
type DocumentCreated struct{}

// DocumentImported records that a parsed transcript seeded the tree. Log only.
type DocumentImported struct {
	Source         string `json:"source,omitempty"`
	SegmentCount   int    `json:"segmentCount"`
	ParagraphCount int    `json:"paragraphCount"`
}

// DocumentUpdated replaces document-level metadata.
type DocumentUpdated struct {
	Previous DocumentMeta `json:"previous"`
	New      DocumentMeta `json:"new"`
}

// NodeCreated splices a new subtree under a parent at an index.
type NodeCreated struct {
	Node     ast.Node `json:"node"`
	ParentID string   `json:"parentId"`
	Index    int      `json:"index"`
}

// NodeDeleted removes a subtree. The removed node, its parent, and its
// position are captured so the deletion can be inverted.
type NodeDeleted struct {
	NodeID   string   `json:"nodeId"`
	Node     ast.Node `json:"node"`
	ParentID string   `json:"parentId"`
	Index    int      `json:"index"`
}

// NodeMoved relocates a subtree between parents or positions.
type NodeMoved struct {
	NodeID       string `json:"nodeId"`
	FromParentID string `json:"fromParentId"`
	FromIndex    int    `json:"fromIndex"`
	ToParentID   string `json:"toParentId"`
	ToIndex      int    `json:"toIndex"`
}

// TextChanged splices a text leaf's content. Offsets and counts are in
// runes. Previous and New carry the full before/after content; the splice
// fields describe the edit for consumers that render deltas.
type TextChanged struct {
	NodeID      string `json:"nodeId"`
	Offset      int    `json:"offset"`
	DeleteCount int    `json:"deleteCount"`
	Inserted    string `json:"inserted"`
	Previous    string `json:"previous"`
	New         string `json:"new"`
}

// ContentReplaced swaps a text leaf's content wholesale.
type ContentReplaced struct {
	NodeID   string `json:"nodeId"`
	Previous string `json:"previous"`
	New      string `json:"new"`
}

// PassageCreated splices a detected scripture passage under a paragraph.
// The nodes it may have replaced are not retained, so it has no inverse.
type PassageCreated struct {
	Node     ast.Node `json:"node"`
	ParentID string   `json:"parentId"`
	Index    int      `json:"index"`
}

// QuoteCreated splices a user-authored quotation passage. Like
// PassageCreated it does not retain pre-wrap nodes and has no inverse.
type QuoteCreated struct {
	Node     ast.Node `json:"node"`
	ParentID string   `json:"parentId"`
	Index    int      `json:"index"`
}

// PassageRemoved replaces a passage with plain replacement nodes.
type PassageRemoved struct {
	PassageID    string     `json:"passageId"`
	Node         ast.Node   `json:"node"`
	ParentID     string     `json:"parentId"`
	Index        int        `json:"index"`
	Replacements []ast.Node `json:"replacements"`
}

// PassageMetadataUpdated swaps a passage's structured metadata.
type PassageMetadataUpdated struct {
	PassageID string          `json:"passageId"`
	Previous  ast.PassageData `json:"previous"`
	New       ast.PassageData `json:"new"`
}

// PassageVerified flips a passage's user-verified flag.
type PassageVerified struct {
	PassageID string `json:"passageId"`
	Verified  bool   `json:"verified"`
	Previous  bool   `json:"previous"`
}

// PassageBoundaryChanged updates a passage's character span within its
// parent paragraph.
type PassageBoundaryChanged struct {
	PassageID string `json:"passageId"`
	PrevStart *int   `json:"prevStart"`
	PrevEnd   *int   `json:"prevEnd"`
	NewStart  *int   `json:"newStart"`
	NewEnd    *int   `json:"newEnd"`
}

// InterjectionAdded inserts an interjection node into a passage and
// registers its descriptor in the passage metadata.
type InterjectionAdded struct {
	PassageID  string              `json:"passageId"`
	Descriptor ast.InterjectionRef `json:"descriptor"`
	Node       ast.Node            `json:"node"`
	ChildIndex int                 `json:"childIndex"`
}

// InterjectionRemoved removes an interjection node and its descriptor.
// The removed pieces are captured for inversion.
type InterjectionRemoved struct {
	PassageID      string              `json:"passageId"`
	InterjectionID string              `json:"interjectionId"`
	Descriptor     ast.InterjectionRef `json:"descriptor"`
	Node           ast.Node            `json:"node"`
	ChildIndex     int                 `json:"childIndex"`
}

// NodesJoined records that an external editor joined nodes. Log only; the
// tree effect arrives as separate events.
type NodesJoined struct {
	NodeIDs    []string `json:"nodeIds"`
	SurvivorID string   `json:"survivorId"`
}

// NodeSplit records that an external editor split a node. Log only.
type NodeSplit struct {
	NodeID    string   `json:"nodeId"`
	ResultIDs []string `json:"resultIds"`
}

// ParagraphMerged appends the second paragraph's children to the first and
// removes the second. The boundary between the two is not retained, so the
// merge has no inverse.
type ParagraphMerged struct {
	FirstID       string   `json:"firstId"`
	SecondID      string   `json:"secondId"`
	Removed       ast.Node `json:"removed,omitempty"`
	AppendedCount int      `json:"appendedCount"`
}

// ParagraphSplit moves the children from ChildIndex onward into a new
// following paragraph. NewParagraphID is pre-generated so replay is
// deterministic.
type ParagraphSplit struct {
	ParagraphID    string `json:"paragraphId"`
	ChildIndex     int    `json:"childIndex"`
	NewParagraphID string `json:"newParagraphId"`
}

// Batch applies an ordered list of member events as one atomic,
// one-log-entry, singly-undoable unit.
type Batch struct {
	Description string   `json:"description"`
	Events      []*Event `json:"events"`
}

// Undo reverses the named event by applying its precomputed inverses.
type Undo struct {
	TargetEventID string   `json:"targetEventId"`
	Inverse       []*Event `json:"inverse"`
}

// Redo reverses an undo by re-applying the originally-undone events.
type Redo struct {
	UndoEventID string   `json:"undoEventId"`
	Events      []*Event `json:"events"`
}

func (*DocumentCreated) isPayload()        {}
func (*DocumentImported) isPayload()       {}
func (*DocumentUpdated) isPayload()        {}
func (*NodeCreated) isPayload()            {}
func (*NodeDeleted) isPayload()            {}
func (*NodeMoved) isPayload()              {}
func (*TextChanged) isPayload()            {}
func (*ContentReplaced) isPayload()        {}
func (*PassageCreated) isPayload()         {}
func (*QuoteCreated) isPayload()           {}
func (*PassageRemoved) isPayload()         {}
func (*PassageMetadataUpdated) isPayload() {}
func (*PassageVerified) isPayload()        {}
func (*PassageBoundaryChanged) isPayload() {}
func (*InterjectionAdded) isPayload()      {}
func (*InterjectionRemoved) isPayload()    {}
func (*NodesJoined) isPayload()            {}
func (*NodeSplit) isPayload()              {}
func (*ParagraphMerged) isPayload()        {}
func (*ParagraphSplit) isPayload()         {}
func (*Batch) isPayload()                  {}
func (*Undo) isPayload()                   {}
func (*Redo) isPayload()                   {}
