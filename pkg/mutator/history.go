// ABOUTME: Batch, undo/redo, import, and provenance-note operations
// ABOUTME: Batches run against a scratch mutator; undo applies synthesized inverses

package mutator

import (
	"fmt"

	"github.com/Blakthorne/whispersermons-sub001/pkg/ast"
	"github.com/Blakthorne/whispersermons-sub001/pkg/event"
	"github.com/Blakthorne/whispersermons-sub001/pkg/state"
)

// Batch runs fn against a scratch mutator seeded from the current state.
// Events the scratch emits are wrapped into one batch event applied to
// the live state: one log entry, one version jump, one undo unit, one
// notification. A batch whose fn emits nothing is a no-op success; an fn
// error aborts the batch with the live state untouched.
//
// fn must use the mutator it is given, not the receiver.
func (m *Mutator) Batch(description string, fn func(*Mutator) error) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inBatch {
		return m.fail(ErrBatchNested)
	}

	scratch := &Mutator{
		cur:      m.cur,
		factory:  m.factory,
		importer: m.importer,
		limits:   m.limits,
		log:      m.log,
		subs:     make(map[string]Subscriber),
		inBatch:  true,
	}
	var members []*event.Event
	scratch.Subscribe(func(_ *state.State, ev *event.Event) {
		members = append(members, ev)
	})

	if err := fn(scratch); err != nil {
		return m.fail(fmt.Errorf("batch %q aborted: %w", description, err))
	}
	if len(members) == 0 {
		return Result{Success: true, State: m.cur}
	}
	ev := m.factory.Batch(m.cur.Version+len(members), description, members)
	return m.commit(ev)
}

// Undo reverses the most recent undoable event by applying its
// synthesized inverse. The undo is itself a logged mutation: the version
// advances and the undone event becomes redoable. For the kinds with no
// inverse the undo is a recorded no-op.
func (m *Mutator) Undo() Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inBatch {
		return m.fail(fmt.Errorf("%w: undo", ErrInvalidInBatch))
	}
	n := len(m.cur.UndoStack)
	if n == 0 {
		return m.fail(ErrNothingToUndo)
	}
	targetID := m.cur.UndoStack[n-1]
	target := event.Find(m.cur.EventLog, targetID)
	if target == nil {
		return m.fail(fmt.Errorf("%w: undoable event %s missing from log", state.ErrInconsistent, targetID))
	}
	inverse := m.factory.GenerateInverse(target, m.cur.Version+1)
	if len(inverse) == 0 {
		m.log.Debug().Str("kind", string(target.Kind)).Msg("undo of irreversible event recorded as no-op")
	}
	ev := m.factory.Undo(m.cur.Version+1, targetID, inverse)
	return m.commit(ev)
}

// Redo reapplies the most recently undone event.
func (m *Mutator) Redo() Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inBatch {
		return m.fail(fmt.Errorf("%w: redo", ErrInvalidInBatch))
	}
	n := len(m.cur.RedoStack)
	if n == 0 {
		return m.fail(ErrNothingToRedo)
	}
	undoID := m.cur.RedoStack[n-1]
	undoEv := event.Find(m.cur.EventLog, undoID)
	if undoEv == nil {
		return m.fail(fmt.Errorf("%w: undo event %s missing from log", state.ErrInconsistent, undoID))
	}
	up, ok := undoEv.Payload.(*event.Undo)
	if !ok {
		return m.fail(fmt.Errorf("%w: redo stack names non-undo event %s", state.ErrInconsistent, undoID))
	}
	target := event.Find(m.cur.EventLog, up.TargetEventID)
	if target == nil {
		return m.fail(fmt.Errorf("%w: undone event %s missing from log", state.ErrInconsistent, up.TargetEventID))
	}
	ev := m.factory.Redo(m.cur.Version+1, undoID, []*event.Event{target})
	return m.commit(ev)
}

// ImportDocument replaces the live document with a parsed transcript
// tree. Prior history does not survive an import: the new state starts
// its log with the document_imported record.
func (m *Mutator) ImportDocument(root *ast.Document, source string, segments int) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inBatch {
		return m.fail(fmt.Errorf("%w: import", ErrInvalidInBatch))
	}
	if root == nil {
		return m.fail(ErrNilDocument)
	}
	fresh := state.New(root)
	ev := m.importer.DocumentImported(1, source, segments, len(root.Kids))
	next, err := state.Apply(fresh, ev, m.limits)
	if err != nil {
		return m.fail(err)
	}
	return m.finish(next, ev)
}

// NoteNodesJoined records that an external editor joined nodes. The
// record is provenance only; any tree effect arrives as separate events.
func (m *Mutator) NoteNodesJoined(nodeIDs []string, survivorID string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev := m.factory.NodesJoined(m.cur.Version+1, append([]string(nil), nodeIDs...), survivorID)
	return m.commit(ev)
}

// NoteNodeSplit records that an external editor split a node.
func (m *Mutator) NoteNodeSplit(nodeID string, resultIDs []string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev := m.factory.NodeSplit(m.cur.Version+1, nodeID, append([]string(nil), resultIDs...))
	return m.commit(ev)
}
