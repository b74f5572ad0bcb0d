// ABOUTME: Tests for snapshot serialization and validation
// ABOUTME: Verifies round trips, log truncation, and corrupt-wire rejection

package snapshot

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Blakthorne/whispersermons-sub001/pkg/ast"
	"github.com/Blakthorne/whispersermons-sub001/pkg/event"
	"github.com/Blakthorne/whispersermons-sub001/pkg/mutator"
	"github.com/Blakthorne/whispersermons-sub001/pkg/state"
)

func tick() func() time.Time {
	base := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

// editedState returns a state with real history: two edits and one undo,
// so both stacks are populated.
func editedState(t *testing.T) (*state.State, *ast.Text) {
	t.Helper()
	text := ast.NewText("Hello, world!")
	para := ast.NewParagraph()
	para.Kids = []ast.Node{text}
	doc := ast.NewDocument()
	doc.Title = "Hope in Suffering"
	doc.Kids = []ast.Node{para}

	m := mutator.NewFromState(state.New(doc), mutator.WithClock(tick()))
	require.True(t, m.UpdateText(text.NodeID, "first").Success)
	require.True(t, m.UpdateText(text.NodeID, "second").Success)
	require.True(t, m.Undo().Success)
	return m.State(), text
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	orig, text := editedState(t)

	data, err := Serialize(orig, Options{IncludeEventLog: true})
	require.NoError(t, err)

	restored, err := Deserialize(data)
	require.NoError(t, err)

	assert.Equal(t, orig.Version, restored.Version)
	assert.True(t, ast.Equal(orig.Root, restored.Root))
	assert.Equal(t, orig.UndoStack, restored.UndoStack)
	assert.Equal(t, orig.RedoStack, restored.RedoStack)
	require.Len(t, restored.EventLog, len(orig.EventLog))
	for i, ev := range orig.EventLog {
		assert.Equal(t, ev.ID, restored.EventLog[i].ID)
		assert.Equal(t, ev.Kind, restored.EventLog[i].Kind)
	}
	assert.True(t, orig.CreatedAt.Equal(restored.CreatedAt))
	assert.True(t, orig.LastModified.Equal(restored.LastModified))

	// History survives the round trip: the restored state can keep
	// undoing and redoing.
	m := mutator.NewFromState(restored, mutator.WithClock(tick()))
	require.True(t, m.CanUndo())
	require.True(t, m.CanRedo())
	redone := m.Redo()
	require.True(t, redone.Success)
	n, ok := redone.State.Node(text.NodeID)
	require.True(t, ok)
	assert.Equal(t, "second", n.(*ast.Text).Content)
}

func TestSerializeTruncatesLog(t *testing.T) {
	orig, _ := editedState(t) // log: edit, edit, undo

	data, err := Serialize(orig, Options{IncludeEventLog: true, MaxEvents: 2})
	require.NoError(t, err)
	restored, err := Deserialize(data)
	require.NoError(t, err)

	require.Len(t, restored.EventLog, 2)
	assert.Equal(t, orig.EventLog[1].ID, restored.EventLog[0].ID)
	assert.Equal(t, orig.Version, restored.Version)

	// The first edit was evicted, so the undo stack (which named it)
	// shrinks; the redo stack's undo event was retained.
	assert.Empty(t, restored.UndoStack)
	assert.Equal(t, orig.RedoStack, restored.RedoStack)
}

func TestSerializeWithoutLog(t *testing.T) {
	orig, _ := editedState(t)

	data, err := Serialize(orig, Options{})
	require.NoError(t, err)
	restored, err := Deserialize(data)
	require.NoError(t, err)

	assert.Empty(t, restored.EventLog)
	assert.Empty(t, restored.UndoStack)
	assert.Empty(t, restored.RedoStack)
	assert.Equal(t, orig.Version, restored.Version)
	assert.True(t, ast.Equal(orig.Root, restored.Root))

	m := mutator.NewFromState(restored)
	assert.False(t, m.CanUndo())
	assert.False(t, m.CanRedo())
}

func TestDeserializeParseError(t *testing.T) {
	_, err := Deserialize([]byte(`{"format": 1,`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
	assert.NotErrorIs(t, err, ErrInvalidStructure)
}

func TestDeserializeRejectsIllegalTree(t *testing.T) {
	doc := ast.NewDocument()
	doc.Kids = []ast.Node{ast.NewText("loose text under the root")}
	data, err := Serialize(state.New(doc), Options{})
	require.NoError(t, err)

	_, err = Deserialize(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidStructure)
	assert.NotErrorIs(t, err, ErrParse)
}

func TestDeserializeRejectsDuplicateIDs(t *testing.T) {
	p1 := ast.NewParagraph()
	p1.Kids = []ast.Node{ast.NewText("a")}
	p2 := ast.NewParagraph()
	p2.NodeID = p1.NodeID
	p2.Kids = []ast.Node{ast.NewText("b")}
	doc := ast.NewDocument()
	doc.Kids = []ast.Node{p1, p2}

	data, err := Serialize(state.New(doc), Options{})
	require.NoError(t, err)
	_, err = Deserialize(data)
	assert.ErrorIs(t, err, ErrInvalidStructure)
}

// rewire serializes a good state, lets the test corrupt the wire form,
// and returns the re-encoded bytes.
func rewire(t *testing.T, corrupt func(*snapshotWire)) []byte {
	t.Helper()
	orig, _ := editedState(t)
	data, err := Serialize(orig, Options{IncludeEventLog: true})
	require.NoError(t, err)
	var w snapshotWire
	require.NoError(t, json.Unmarshal(data, &w))
	corrupt(&w)
	out, err := json.Marshal(w)
	require.NoError(t, err)
	return out
}

func TestDeserializeRejectsDanglingStacks(t *testing.T) {
	t.Run("undo names unknown event", func(t *testing.T) {
		data := rewire(t, func(w *snapshotWire) { w.UndoStack = []string{"missing"} })
		_, err := Deserialize(data)
		assert.ErrorIs(t, err, ErrInvalidStructure)
	})
	t.Run("redo names non-undo event", func(t *testing.T) {
		data := rewire(t, func(w *snapshotWire) { w.RedoStack = []string{w.EventLog[0].ID} })
		_, err := Deserialize(data)
		assert.ErrorIs(t, err, ErrInvalidStructure)
	})
	t.Run("stacks without log", func(t *testing.T) {
		data := rewire(t, func(w *snapshotWire) { w.EventLog = nil })
		_, err := Deserialize(data)
		assert.ErrorIs(t, err, ErrInvalidStructure)
	})
}

func TestDeserializeRejectsVersionDisagreement(t *testing.T) {
	data := rewire(t, func(w *snapshotWire) { w.Version = 99 })
	_, err := Deserialize(data)
	assert.ErrorIs(t, err, ErrInvalidStructure)
}

func TestDeserializeRejectsUnsupportedFormat(t *testing.T) {
	for _, format := range []int{0, FormatVersion + 1} {
		data := rewire(t, func(w *snapshotWire) { w.Format = format })
		_, err := Deserialize(data)
		assert.ErrorIs(t, err, ErrInvalidStructure)
	}
}

func TestEstimateSize(t *testing.T) {
	orig, _ := editedState(t)

	full, err := EstimateSize(orig, Options{IncludeEventLog: true})
	require.NoError(t, err)
	bare, err := EstimateSize(orig, Options{})
	require.NoError(t, err)

	data, err := Serialize(orig, Options{IncludeEventLog: true})
	require.NoError(t, err)
	assert.Equal(t, len(data), full)
	assert.Less(t, bare, full, "dropping the log must shrink the snapshot")
}

func TestPruneEventLog(t *testing.T) {
	orig, _ := editedState(t)
	require.Len(t, orig.EventLog, 3)

	pruned := PruneEventLog(orig, 1)
	require.Len(t, pruned.EventLog, 1)
	assert.Equal(t, orig.EventLog[2].ID, pruned.EventLog[0].ID)
	assert.Empty(t, pruned.UndoStack)
	assert.Empty(t, pruned.RedoStack)
	assert.Equal(t, orig.Version, pruned.Version)
	assert.True(t, orig.CreatedAt.Equal(pruned.CreatedAt))
	require.NoError(t, state.CheckConsistency(pruned))

	m := mutator.NewFromState(pruned)
	assert.False(t, m.CanUndo(), "pruning forfeits undo history")

	emptied := PruneEventLog(orig, 0)
	assert.Empty(t, emptied.EventLog)

	// A pruned snapshot still round-trips.
	data, err := Serialize(pruned, Options{IncludeEventLog: true})
	require.NoError(t, err)
	_, err = Deserialize(data)
	require.NoError(t, err)
}

func TestEventLogSurvivesWithPayloads(t *testing.T) {
	orig, text := editedState(t)

	data, err := Serialize(orig, Options{IncludeEventLog: true})
	require.NoError(t, err)
	restored, err := Deserialize(data)
	require.NoError(t, err)

	p, ok := restored.EventLog[0].Payload.(*event.ContentReplaced)
	require.True(t, ok)
	assert.Equal(t, text.NodeID, p.NodeID)
	assert.Equal(t, "Hello, world!", p.Previous)
	assert.Equal(t, "first", p.New)

	undo, ok := restored.EventLog[2].Payload.(*event.Undo)
	require.True(t, ok)
	assert.Equal(t, restored.EventLog[1].ID, undo.TargetEventID)
	require.Len(t, undo.Inverse, 1)
}
