// ABOUTME: Serialize/deserialize document states to a versioned JSON format
// ABOUTME: Indices are not persisted; deserialize rebuilds and validates them

package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Blakthorne/whispersermons-sub001/pkg/ast"
	"github.com/Blakthorne/whispersermons-sub001/pkg/event"
	"github.com/Blakthorne/whispersermons-sub001/pkg/state"
)

// FormatVersion is stamped into every snapshot. Readers reject formats
// newer than they understand.
const FormatVersion = 1

// Options controls how much history a snapshot carries. The tree,
// version, and timestamps are always included.
type Options struct {
	// IncludeEventLog persists the event log. Without it the undo and
	// redo stacks are dropped too: undo resolves its targets through the
	// log.
	IncludeEventLog bool
	// MaxEvents truncates the persisted log to its newest entries.
	// Zero keeps the whole log. Stack ids referencing evicted events are
	// filtered out.
	MaxEvents int
}

type snapshotWire struct {
	Format       int             `json:"format"`
	Version      int             `json:"version"`
	Root         json.RawMessage `json:"root"`
	EventLog     []*event.Event  `json:"eventLog,omitempty"`
	UndoStack    []string        `json:"undoStack,omitempty"`
	RedoStack    []string        `json:"redoStack,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	LastModified time.Time       `json:"lastModified"`
}

// Serialize encodes a state. The derived indices are never written; they
// are a function of the tree and are rebuilt on load.
func Serialize(s *state.State, opts Options) ([]byte, error) {
	if s == nil || s.Root == nil {
		return nil, fmt.Errorf("%w: nil state", ErrInvalidStructure)
	}
	root, err := json.Marshal(s.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: encode tree: %v", ErrParse, err)
	}
	w := snapshotWire{
		Format:       FormatVersion,
		Version:      s.Version,
		Root:         root,
		CreatedAt:    s.CreatedAt,
		LastModified: s.LastModified,
	}
	if opts.IncludeEventLog {
		w.EventLog = event.Tail(s.EventLog, opts.MaxEvents)
		retained := make(map[string]bool, len(w.EventLog))
		for _, ev := range w.EventLog {
			retained[ev.ID] = true
		}
		w.UndoStack = keepIDs(s.UndoStack, retained)
		w.RedoStack = keepIDs(s.RedoStack, retained)
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("%w: encode snapshot: %v", ErrParse, err)
	}
	return data, nil
}

// Deserialize decodes snapshot bytes back into a full state, rebuilding
// the node and passage indices and checking structural integrity. Parse
// failures return ErrParse; coherent JSON describing an impossible state
// returns ErrInvalidStructure.
func Deserialize(data []byte) (*state.State, error) {
	var w snapshotWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if w.Format < 1 || w.Format > FormatVersion {
		return nil, fmt.Errorf("%w: unsupported format %d", ErrInvalidStructure, w.Format)
	}
	if w.Version < 0 {
		return nil, fmt.Errorf("%w: negative version %d", ErrInvalidStructure, w.Version)
	}
	if len(w.Root) == 0 {
		return nil, fmt.Errorf("%w: missing root", ErrInvalidStructure)
	}
	node, err := ast.UnmarshalNode(w.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: decode tree: %v", ErrParse, err)
	}
	root, ok := node.(*ast.Document)
	if !ok {
		return nil, fmt.Errorf("%w: root is %s, want document", ErrInvalidStructure, node.Kind())
	}
	if err := validateTree(root); err != nil {
		return nil, err
	}
	if err := validateHistory(&w); err != nil {
		return nil, err
	}

	s := state.New(root)
	s.Version = w.Version
	s.EventLog = w.EventLog
	s.UndoStack = w.UndoStack
	s.RedoStack = w.RedoStack
	if !w.CreatedAt.IsZero() {
		s.CreatedAt = w.CreatedAt
	}
	if !w.LastModified.IsZero() {
		s.LastModified = w.LastModified
	}
	if err := state.CheckConsistency(s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStructure, err)
	}
	return s, nil
}

// EstimateSize reports the byte size the state would occupy when saved
// with the given options.
func EstimateSize(s *state.State, opts Options) (int, error) {
	data, err := Serialize(s, opts)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// PruneEventLog returns a state whose log keeps only the newest keep
// events (none when keep <= 0). Pruning severs the history the stacks
// depend on, so both stacks are cleared: the pruned state cannot undo or
// redo past mutations.
func PruneEventLog(s *state.State, keep int) *state.State {
	next := state.New(s.Root)
	next.Version = s.Version
	next.CreatedAt = s.CreatedAt
	next.LastModified = s.LastModified
	if keep > 0 {
		next.EventLog = append([]*event.Event(nil), event.Tail(s.EventLog, keep)...)
	}
	return next
}

// validateTree walks the decoded tree checking node ids and child
// legality before any index is built over it.
func validateTree(root *ast.Document) error {
	seen := make(map[string]bool)
	var walk func(n ast.Node) error
	walk = func(n ast.Node) error {
		id := n.ID()
		if id == "" {
			return fmt.Errorf("%w: %s node without id", ErrInvalidStructure, n.Kind())
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate node id %s", ErrInvalidStructure, id)
		}
		seen[id] = true
		for _, c := range ast.ChildrenOf(n) {
			if !ast.ValidChild(n.Kind(), c.Kind()) {
				return fmt.Errorf("%w: %s under %s", ErrInvalidStructure, c.Kind(), n.Kind())
			}
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(root)
}

// validateHistory checks that the log and stacks agree with each other
// and with the snapshot version.
func validateHistory(w *snapshotWire) error {
	if len(w.EventLog) == 0 {
		if len(w.UndoStack) > 0 || len(w.RedoStack) > 0 {
			return fmt.Errorf("%w: stacks present without an event log", ErrInvalidStructure)
		}
		return nil
	}
	byID := make(map[string]*event.Event, len(w.EventLog))
	for i, ev := range w.EventLog {
		if ev == nil || ev.ID == "" {
			return fmt.Errorf("%w: log entry %d without id", ErrInvalidStructure, i)
		}
		if byID[ev.ID] != nil {
			return fmt.Errorf("%w: duplicate log entry %s", ErrInvalidStructure, ev.ID)
		}
		byID[ev.ID] = ev
	}
	// The reducer stamps the state with the last applied event's version;
	// truncation keeps the newest entries, so the tail must still agree.
	if last := w.EventLog[len(w.EventLog)-1]; last.Version != w.Version {
		return fmt.Errorf("%w: version %d disagrees with last logged event %d",
			ErrInvalidStructure, w.Version, last.Version)
	}
	for _, id := range w.UndoStack {
		ev := byID[id]
		if ev == nil {
			return fmt.Errorf("%w: undo stack names unknown event %s", ErrInvalidStructure, id)
		}
		if !event.IsUndoable(ev.Kind) {
			return fmt.Errorf("%w: undo stack names %s event %s", ErrInvalidStructure, ev.Kind, id)
		}
	}
	for _, id := range w.RedoStack {
		ev := byID[id]
		if ev == nil {
			return fmt.Errorf("%w: redo stack names unknown event %s", ErrInvalidStructure, id)
		}
		if ev.Kind != event.KindUndo {
			return fmt.Errorf("%w: redo stack names %s event %s", ErrInvalidStructure, ev.Kind, id)
		}
	}
	return nil
}

func keepIDs(ids []string, retained map[string]bool) []string {
	var out []string
	for _, id := range ids {
		if retained[id] {
			out = append(out, id)
		}
	}
	return out
}
