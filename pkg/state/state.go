// ABOUTME: Document state: tree, event log, undo/redo stacks, derived indices
// ABOUTME: States are immutable; every mutation builds a new one via the reducer

package state

import (
	"time"

	"github.com/Blakthorne/whispersermons-sub001/pkg/ast"
	"github.com/Blakthorne/whispersermons-sub001/pkg/event"
)

// Entry is one node-index record: the node's current snapshot, its parent
// id (empty for the root), and its ancestor-id path, root first.
type Entry struct {
	Node     ast.Node
	ParentID string
	Path     []string
}

// PassageIndex locates scripture passages three ways. All slices hold node
// ids in document order.
type PassageIndex struct {
	ByReference map[string][]string
	ByBook      map[string][]string
	All         []string
}

// Summary is the shallow view kept for consumers that do not need the
// tree: the distinct normalized references in first-occurrence document
// order, and the document tags.
type Summary struct {
	References []string
	Tags       []string
}

// State is the unit of persistence and of undo/redo. A State is never
// mutated after construction: the reducer clones it, and prior snapshots
// stay valid for as long as anything references them.
type State struct {
	Version      int
	Root         *ast.Document
	EventLog     []*event.Event
	UndoStack    []string // event ids eligible for undo, most recent last
	RedoStack    []string // undo-event ids eligible for redo, most recent last
	NodeIndex    map[string]*Entry
	PassageIndex *PassageIndex
	Summary      Summary
	CreatedAt    time.Time
	LastModified time.Time
}

// New builds a state around the given root, deriving all indices. Used
// both for fresh documents and by snapshot restore.
func New(root *ast.Document) *State {
	now := time.Now().UTC()
	s := &State{
		Version:      0,
		Root:         root,
		CreatedAt:    now,
		LastModified: now,
	}
	s.NodeIndex = buildNodeIndex(root)
	s.PassageIndex = buildPassageIndex(root)
	s.Summary = buildSummary(root, s.NodeIndex, s.PassageIndex)
	return s
}

// Node returns the current snapshot of the node with the given id.
func (s *State) Node(id string) (ast.Node, bool) {
	e, ok := s.NodeIndex[id]
	if !ok {
		return nil, false
	}
	return e.Node, true
}

// Lookup returns the full index entry for id.
func (s *State) Lookup(id string) (*Entry, bool) {
	e, ok := s.NodeIndex[id]
	return e, ok
}

// clone returns a working copy safe to mutate during one reduction. Slice
// copies are exact-length so appends reallocate instead of sharing backing
// arrays with the source state.
func (s *State) clone() *State {
	c := &State{
		Version:      s.Version,
		Root:         s.Root,
		EventLog:     copyEvents(s.EventLog),
		UndoStack:    copyStrings(s.UndoStack),
		RedoStack:    copyStrings(s.RedoStack),
		NodeIndex:    make(map[string]*Entry, len(s.NodeIndex)),
		PassageIndex: s.PassageIndex,
		Summary:      s.Summary,
		CreatedAt:    s.CreatedAt,
		LastModified: s.LastModified,
	}
	for id, e := range s.NodeIndex {
		c.NodeIndex[id] = e
	}
	return c
}

func copyEvents(in []*event.Event) []*event.Event {
	if in == nil {
		return nil
	}
	out := make([]*event.Event, len(in))
	copy(out, in)
	return out
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func removeString(in []string, v string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
