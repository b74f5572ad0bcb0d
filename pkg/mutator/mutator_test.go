// ABOUTME: Tests for the mutation facade's editing operations
// ABOUTME: Verifies validation, event payloads, and index effects per operation

package mutator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Blakthorne/whispersermons-sub001/pkg/ast"
	"github.com/Blakthorne/whispersermons-sub001/pkg/event"
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

// mfix wraps a mutator over the standard sermon fixture tree:
// two paragraphs, the second carrying a Romans 8:28 passage.
type mfix struct {
	m       *Mutator
	doc     *ast.Document
	para1   *ast.Paragraph
	para2   *ast.Paragraph
	text1   *ast.Text
	text2   *ast.Text
	passage *ast.Passage
	verse   *ast.Text
}

func newMfix(t *testing.T, opts ...Option) *mfix {
	t.Helper()
	fx := &mfix{}

	fx.text1 = ast.NewText("Hello, world!")
	fx.para1 = ast.NewParagraph()
	fx.para1.Kids = []ast.Node{fx.text1}

	fx.text2 = ast.NewText("Turn with me to Romans.")
	fx.verse = ast.NewText("And we know that in all things...")
	fx.passage = ast.NewPassage(ast.PassageData{
		Reference: ast.Reference{Book: "Romans", Chapter: 8, VerseStart: 28},
		Detection: ast.Detection{Confidence: 0.92, Bucket: ast.BucketHigh, Translation: "ESV"},
	})
	fx.passage.Kids = []ast.Node{fx.verse}
	fx.para2 = ast.NewParagraph()
	fx.para2.Kids = []ast.Node{fx.text2, fx.passage}

	fx.doc = ast.NewDocument()
	fx.doc.Title = "Hope in Suffering"
	fx.doc.Kids = []ast.Node{fx.para1, fx.para2}

	opts = append([]Option{WithClock(tick())}, opts...)
	fx.m = NewFromState(state.New(fx.doc), opts...)
	return fx
}

func requireOK(t *testing.T, res Result) Result {
	t.Helper()
	require.NoError(t, res.Err)
	require.True(t, res.Success)
	require.NotNil(t, res.State)
	require.NoError(t, state.CheckConsistency(res.State))
	return res
}

func requireFail(t *testing.T, res Result, sentinel error) {
	t.Helper()
	require.False(t, res.Success)
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, sentinel)
	assert.Empty(t, res.Events)
	require.NotNil(t, res.State, "failed results still carry the current state")
}

func textContent(t *testing.T, s *state.State, id string) string {
	t.Helper()
	n, ok := s.Node(id)
	require.True(t, ok)
	return n.(*ast.Text).Content
}

func TestNewRecordsDocumentCreated(t *testing.T) {
	m := New(WithClock(tick()))
	s := m.State()

	assert.Equal(t, 1, s.Version)
	require.Len(t, s.EventLog, 1)
	assert.Equal(t, event.KindDocumentCreated, s.EventLog[0].Kind)
	assert.Empty(t, s.Root.Kids)
	assert.False(t, m.CanUndo(), "creation is log-only")
}

func TestInsertTextScenario(t *testing.T) {
	fx := newMfix(t)

	res := requireOK(t, fx.m.InsertText(fx.text1.NodeID, 7, "beautiful "))
	assert.Equal(t, "Hello, beautiful world!", textContent(t, res.State, fx.text1.NodeID))
	assert.Equal(t, 1, res.State.Version)

	require.Len(t, res.Events, 1)
	p := res.Events[0].Payload.(*event.TextChanged)
	assert.Equal(t, 7, p.Offset)
	assert.Equal(t, 0, p.DeleteCount)
	assert.Equal(t, "beautiful ", p.Inserted)
	assert.Equal(t, "Hello, world!", p.Previous)

	undo := requireOK(t, fx.m.Undo())
	assert.Equal(t, "Hello, world!", textContent(t, undo.State, fx.text1.NodeID))
	assert.Equal(t, 2, undo.State.Version, "undo is itself a logged mutation")
	assert.True(t, fx.m.CanRedo())
}

func TestInsertTextCountsRunes(t *testing.T) {
	fx := newMfix(t)
	requireOK(t, fx.m.UpdateText(fx.text1.NodeID, "κύριος"))

	res := requireOK(t, fx.m.InsertText(fx.text1.NodeID, 6, "!"))
	assert.Equal(t, "κύριος!", textContent(t, res.State, fx.text1.NodeID))
}

func TestDeleteText(t *testing.T) {
	fx := newMfix(t)

	res := requireOK(t, fx.m.DeleteText(fx.text1.NodeID, 5, 7))
	assert.Equal(t, "Hello!", textContent(t, res.State, fx.text1.NodeID))
}

func TestTextOpValidation(t *testing.T) {
	fx := newMfix(t)

	requireFail(t, fx.m.InsertText(fx.text1.NodeID, 99, "x"), ErrOffsetOutOfRange)
	requireFail(t, fx.m.DeleteText(fx.text1.NodeID, 5, 99), ErrOffsetOutOfRange)
	requireFail(t, fx.m.InsertText(fx.text1.NodeID, -1, "x"), ErrOffsetOutOfRange)
	requireFail(t, fx.m.UpdateText(fx.para1.NodeID, "x"), ErrWrongKind)
	requireFail(t, fx.m.UpdateText("missing", "x"), ErrNodeNotFound)
	assert.Equal(t, 0, fx.m.Version(), "rejected mutations do not advance the version")
}

func TestDeleteNodeRejectsRoot(t *testing.T) {
	fx := newMfix(t)

	res := fx.m.DeleteNode(fx.doc.NodeID)
	requireFail(t, res, ErrCannotDeleteRoot)
	assert.Contains(t, res.Err.Error(), "cannot delete root node")
	assert.Equal(t, 0, fx.m.Version())
	assert.Len(t, fx.m.State().Root.Kids, 2)
}

func TestDeleteNodeRemovesSubtree(t *testing.T) {
	fx := newMfix(t)

	res := requireOK(t, fx.m.DeleteNode(fx.para2.NodeID))
	assert.Len(t, res.State.Root.Kids, 1)
	assert.Empty(t, res.State.PassageIndex.All)

	undo := requireOK(t, fx.m.Undo())
	assert.Len(t, undo.State.Root.Kids, 2)
	assert.Equal(t, []string{fx.passage.NodeID}, undo.State.PassageIndex.All)
}

func TestCreateParagraph(t *testing.T) {
	fx := newMfix(t)

	res := requireOK(t, fx.m.CreateParagraph(1, "A word of prayer."))
	require.Len(t, res.State.Root.Kids, 3)
	created := res.Events[0].Payload.(*event.NodeCreated).Node
	assert.Equal(t, created.ID(), res.State.Root.Kids[1].ID())
	assert.Equal(t, "A word of prayer.", ast.FlattenText(res.State.Root.Kids[1]))

	requireFail(t, fx.m.CreateParagraph(9, "x"), ErrIndexOutOfRange)
}

func TestMoveNode(t *testing.T) {
	fx := newMfix(t)

	res := requireOK(t, fx.m.MoveNode(fx.text2.NodeID, fx.para1.NodeID, 1))
	e, ok := res.State.Lookup(fx.text2.NodeID)
	require.True(t, ok)
	assert.Equal(t, fx.para1.NodeID, e.ParentID)

	undo := requireOK(t, fx.m.Undo())
	e, _ = undo.State.Lookup(fx.text2.NodeID)
	assert.Equal(t, fx.para2.NodeID, e.ParentID)
}

func TestMoveNodeValidation(t *testing.T) {
	fx := newMfix(t)

	requireFail(t, fx.m.MoveNode(fx.doc.NodeID, fx.para1.NodeID, 0), state.ErrRootImmovable)
	requireFail(t, fx.m.MoveNode("missing", fx.para1.NodeID, 0), ErrNodeNotFound)
	requireFail(t, fx.m.MoveNode(fx.text1.NodeID, "missing", 0), ErrNodeNotFound)
	// Cycles are caught by the reducer.
	requireFail(t, fx.m.MoveNode(fx.para2.NodeID, fx.passage.NodeID, 0), state.ErrInvalidChild)
}

func TestSplitAndMergeParagraphs(t *testing.T) {
	fx := newMfix(t)

	res := requireOK(t, fx.m.SplitParagraph(fx.para2.NodeID, 1))
	require.Len(t, res.State.Root.Kids, 3)
	newID := res.Events[0].Payload.(*event.ParagraphSplit).NewParagraphID
	assert.Equal(t, newID, res.State.Root.Kids[2].ID())

	merged := requireOK(t, fx.m.MergeParagraphs(fx.para2.NodeID, newID))
	require.Len(t, merged.State.Root.Kids, 2)
	p2, _ := merged.State.Node(fx.para2.NodeID)
	assert.Len(t, ast.ChildrenOf(p2), 2)
}

func TestMergeParagraphsRequiresAdjacency(t *testing.T) {
	fx := newMfix(t)

	requireFail(t, fx.m.MergeParagraphs(fx.para2.NodeID, fx.para1.NodeID), ErrNotAdjacent)
	requireFail(t, fx.m.MergeParagraphs(fx.para1.NodeID, fx.text2.NodeID), ErrWrongKind)
}

func TestDocumentMetadataOps(t *testing.T) {
	fx := newMfix(t)

	requireOK(t, fx.m.UpdateTitle("Hope in Suffering, Part 2"))
	requireOK(t, fx.m.UpdateSpeaker("D. Park"))
	requireOK(t, fx.m.UpdateBiblePassage("Romans 8"))
	res := requireOK(t, fx.m.UpdateTags([]string{"romans", "providence"}))

	root := res.State.Root
	assert.Equal(t, "Hope in Suffering, Part 2", root.Title)
	assert.Equal(t, "D. Park", root.Speaker)
	assert.Equal(t, "Romans 8", root.BiblePassage)
	assert.Equal(t, []string{"romans", "providence"}, root.Tags)
	assert.Equal(t, []string{"romans", "providence"}, res.State.Summary.Tags)
	assert.Equal(t, 4, res.State.Version)

	undo := requireOK(t, fx.m.Undo())
	assert.Empty(t, undo.State.Root.Tags, "undo restores the previous tag set")
	assert.Equal(t, "D. Park", undo.State.Root.Speaker, "other fields keep their later values")
}

func TestCreatePassageIndexesReference(t *testing.T) {
	fx := newMfix(t)

	data := ast.PassageData{
		Reference: ast.Reference{Book: "John", Chapter: 3, VerseStart: 16},
		Detection: ast.Detection{Confidence: 0.87},
	}
	res := requireOK(t, fx.m.CreatePassage(fx.para1.NodeID, 1, data, "For God so loved the world..."))

	created := res.Events[0].Payload.(*event.PassageCreated).Node.(*ast.Passage)
	assert.Equal(t, ast.BucketHigh, created.Data.Detection.Bucket, "bucket derived from confidence")
	assert.Equal(t, "John 3:16", created.Data.Reference.Normalized)

	s := res.State
	assert.Contains(t, s.PassageIndex.All, created.NodeID)
	assert.Equal(t, []string{created.NodeID}, s.PassageIndex.ByReference["John 3:16"])
	assert.Equal(t, []string{created.NodeID}, s.PassageIndex.ByBook["John"])
	assert.Equal(t, "For God so loved the world...", ast.FlattenText(created))
}

func TestCreateQuoteIsVerified(t *testing.T) {
	fx := newMfix(t)

	data := ast.PassageData{Reference: ast.Reference{Book: "Psalm", Chapter: 23, VerseStart: 1}}
	res := requireOK(t, fx.m.CreateQuote(fx.para1.NodeID, 1, data, "The Lord is my shepherd"))

	created := res.Events[0].Payload.(*event.QuoteCreated).Node.(*ast.Passage)
	assert.True(t, created.Data.Verified)
	assert.Equal(t, ast.BucketHigh, created.Data.Detection.Bucket)

	requireFail(t, fx.m.CreateQuote(fx.text1.NodeID, 0, data, "x"), ErrWrongKind)
}

func TestRemovePassageKeepText(t *testing.T) {
	fx := newMfix(t)

	res := requireOK(t, fx.m.RemovePassage(fx.passage.NodeID, true))
	p2, _ := res.State.Node(fx.para2.NodeID)
	kids := ast.ChildrenOf(p2)
	require.Len(t, kids, 2)
	assert.Equal(t, "And we know that in all things...", kids[1].(*ast.Text).Content)
	assert.Empty(t, res.State.PassageIndex.All)
}

func TestRemovePassageDropText(t *testing.T) {
	fx := newMfix(t)

	res := requireOK(t, fx.m.RemovePassage(fx.passage.NodeID, false))
	p2, _ := res.State.Node(fx.para2.NodeID)
	assert.Len(t, ast.ChildrenOf(p2), 1)
}

func TestVerifyAndMetadataOps(t *testing.T) {
	fx := newMfix(t)

	res := requireOK(t, fx.m.VerifyPassage(fx.passage.NodeID, true))
	p, _ := res.State.Node(fx.passage.NodeID)
	assert.True(t, p.(*ast.Passage).Data.Verified)

	data := fx.passage.Data.Clone()
	data.Reference.VerseEnd = intPtr(30)
	data.Reference.Normalized = ""
	res = requireOK(t, fx.m.UpdatePassageMetadata(fx.passage.NodeID, data))
	p, _ = res.State.Node(fx.passage.NodeID)
	assert.Equal(t, "Romans 8:28-30", p.(*ast.Passage).Data.Reference.Normalized)
	assert.Equal(t, []string{fx.passage.NodeID}, res.State.PassageIndex.ByReference["Romans 8:28-30"])

	requireFail(t, fx.m.VerifyPassage(fx.text1.NodeID, true), ErrWrongKind)
}

func TestUpdatePassageBoundary(t *testing.T) {
	fx := newMfix(t)

	res := requireOK(t, fx.m.UpdatePassageBoundary(fx.passage.NodeID, intPtr(24), intPtr(57)))
	p, _ := res.State.Node(fx.passage.NodeID)
	assert.Equal(t, 24, *p.(*ast.Passage).Data.StartChar)

	requireFail(t, fx.m.UpdatePassageBoundary(fx.passage.NodeID, intPtr(10), intPtr(3)), ErrOffsetOutOfRange)
}

func TestInterjectionLifecycle(t *testing.T) {
	fx := newMfix(t)

	res := requireOK(t, fx.m.AddInterjection(fx.passage.NodeID, "church, listen", 10, 24))
	p, _ := res.State.Node(fx.passage.NodeID)
	pass := p.(*ast.Passage)
	require.Len(t, pass.Data.Interjections, 1)
	descID := pass.Data.Interjections[0].ID
	require.Len(t, pass.Kids, 2)

	removed := requireOK(t, fx.m.RemoveInterjection(fx.passage.NodeID, descID))
	p, _ = removed.State.Node(fx.passage.NodeID)
	assert.Empty(t, p.(*ast.Passage).Data.Interjections)
	assert.Len(t, p.(*ast.Passage).Kids, 1)

	requireFail(t, fx.m.RemoveInterjection(fx.passage.NodeID, "missing"), ErrNodeNotFound)
	requireFail(t, fx.m.AddInterjection(fx.passage.NodeID, "x", 5, 2), ErrOffsetOutOfRange)
}

func intPtr(v int) *int { return &v }
