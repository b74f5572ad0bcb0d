// ABOUTME: Tests for passage, interjection, and paragraph structure events
// ABOUTME: Verifies passage view rekeying and split/merge symmetry

package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Blakthorne/whispersermons-sub001/pkg/ast"
)

func verseRange(start, end int) (int, *int) {
	return start, &end
}

func TestApplyPassageCreated(t *testing.T) {
	fx := newFixture(t)

	start, end := verseRange(1, 2)
	p := ast.NewPassage(ast.PassageData{
		Reference: ast.Reference{Book: "John", Chapter: 3, VerseStart: start, VerseEnd: end},
		Detection: ast.Detection{Confidence: 0.7, Bucket: ast.BucketMedium},
	})
	p.Kids = []ast.Node{ast.NewText("There was a man of the Pharisees...")}

	ev := fx.f.PassageCreated(fx.version()+1, p, fx.para1.NodeID, 1)
	next := fx.apply(t, ev)

	require.Len(t, next.PassageIndex.All, 2)
	assert.Equal(t, []string{p.NodeID}, next.PassageIndex.ByReference["John 3:1-2"])
	assert.Equal(t, []string{p.NodeID}, next.PassageIndex.ByBook["John"])
	assert.Equal(t, []string{"John 3:1-2", "Romans 8:28"}, next.Summary.References,
		"references follow document order")
}

func TestApplyQuoteCreated(t *testing.T) {
	fx := newFixture(t)

	p := ast.NewPassage(ast.PassageData{
		Reference: ast.Reference{Book: "Psalm", Chapter: 23, VerseStart: 1},
		Detection: ast.Detection{Confidence: 1.0, Bucket: ast.BucketHigh},
		Verified:  true,
	})
	p.Kids = []ast.Node{ast.NewText("The Lord is my shepherd")}

	ev := fx.f.QuoteCreated(fx.version()+1, p, fx.para1.NodeID, 1)
	next := fx.apply(t, ev)

	got, ok := next.Node(p.NodeID)
	require.True(t, ok)
	assert.True(t, got.(*ast.Passage).Data.Verified)
	assert.Contains(t, next.PassageIndex.ByBook, "Psalm")
}

func TestApplyPassageRemovedWithReplacements(t *testing.T) {
	fx := newFixture(t)

	repl := []ast.Node{ast.NewText("And we know that in all things...")}
	ev := fx.f.PassageRemoved(fx.version()+1, fx.passage, fx.para2.NodeID, 1, repl)
	next := fx.apply(t, ev)

	_, ok := next.Node(fx.passage.NodeID)
	assert.False(t, ok)
	_, ok = next.Node(fx.verse.NodeID)
	assert.False(t, ok, "the passage subtree is unindexed")
	_, ok = next.Node(repl[0].ID())
	assert.True(t, ok)

	p2, _ := next.Node(fx.para2.NodeID)
	kids := ast.ChildrenOf(p2)
	require.Len(t, kids, 2)
	assert.Equal(t, repl[0].ID(), kids[1].ID())

	assert.Empty(t, next.PassageIndex.All)
	assert.Empty(t, next.Summary.References)
}

func TestApplyPassageRemovedWithoutReplacements(t *testing.T) {
	fx := newFixture(t)

	ev := fx.f.PassageRemoved(fx.version()+1, fx.passage, fx.para2.NodeID, 1, nil)
	next := fx.apply(t, ev)

	p2, _ := next.Node(fx.para2.NodeID)
	require.Len(t, ast.ChildrenOf(p2), 1)
	assert.Empty(t, next.PassageIndex.All)
}

func TestApplyPassageMetadataUpdatedRekeysIndex(t *testing.T) {
	fx := newFixture(t)

	prev := fx.passage.Data
	next := prev.Clone()
	next.Reference.Chapter = 12
	next.Reference.VerseStart = 1
	next.Notes = "misdetected chapter"

	ev := fx.f.PassageMetadataUpdated(fx.version()+1, fx.passage.NodeID, prev, next)
	got := fx.apply(t, ev)

	p, _ := got.Node(fx.passage.NodeID)
	assert.Equal(t, 12, p.(*ast.Passage).Data.Reference.Chapter)
	assert.Equal(t, "misdetected chapter", p.(*ast.Passage).Data.Notes)

	assert.NotContains(t, got.PassageIndex.ByReference, "Romans 8:28")
	assert.Equal(t, []string{fx.passage.NodeID}, got.PassageIndex.ByReference["Romans 12:1"])
	assert.Equal(t, []string{"Romans 12:1"}, got.Summary.References)
}

func TestApplyPassageVerified(t *testing.T) {
	fx := newFixture(t)

	next := fx.apply(t, fx.f.PassageVerified(fx.version()+1, fx.passage.NodeID, true, false))
	p, _ := next.Node(fx.passage.NodeID)
	assert.True(t, p.(*ast.Passage).Data.Verified)

	// Verification does not rekey the views.
	assert.Equal(t, []string{fx.passage.NodeID}, next.PassageIndex.ByReference["Romans 8:28"])

	back := fx.apply(t, fx.f.PassageVerified(fx.version()+1, fx.passage.NodeID, false, true))
	p, _ = back.Node(fx.passage.NodeID)
	assert.False(t, p.(*ast.Passage).Data.Verified)
}

func TestApplyPassageBoundaryChanged(t *testing.T) {
	fx := newFixture(t)

	start, end := 24, 57
	ev := fx.f.PassageBoundaryChanged(fx.version()+1, fx.passage.NodeID, nil, nil, &start, &end)
	next := fx.apply(t, ev)

	p, _ := next.Node(fx.passage.NodeID)
	data := p.(*ast.Passage).Data
	require.NotNil(t, data.StartChar)
	require.NotNil(t, data.EndChar)
	assert.Equal(t, 24, *data.StartChar)
	assert.Equal(t, 57, *data.EndChar)

	// Clearing the span stores nils again.
	cleared := fx.apply(t, fx.f.PassageBoundaryChanged(fx.version()+1, fx.passage.NodeID,
		&start, &end, nil, nil))
	p, _ = cleared.Node(fx.passage.NodeID)
	assert.Nil(t, p.(*ast.Passage).Data.StartChar)
	assert.Nil(t, p.(*ast.Passage).Data.EndChar)
}

func TestApplyPassageOpsWrongTarget(t *testing.T) {
	fx := newFixture(t)

	ev := fx.f.PassageVerified(fx.version()+1, fx.para1.NodeID, true, false)
	fx.mustFail(t, ev, ErrWrongKind)

	ev = fx.f.PassageMetadataUpdated(fx.version()+1, "nope", ast.PassageData{}, ast.PassageData{})
	fx.mustFail(t, ev, ErrNodeNotFound)
}

func TestApplyInterjectionAddedAndRemoved(t *testing.T) {
	fx := newFixture(t)

	desc := ast.InterjectionRef{ID: "intj-1", Text: "church, listen", StartOffset: 10, EndOffset: 24}
	node := ast.NewInterjection(desc.ID, desc.Text)

	added := fx.apply(t, fx.f.InterjectionAdded(fx.version()+1, fx.passage.NodeID, desc, node, 1))
	p, _ := added.Node(fx.passage.NodeID)
	pass := p.(*ast.Passage)
	require.Len(t, pass.Kids, 2)
	assert.Equal(t, node.NodeID, pass.Kids[1].ID())
	require.Len(t, pass.Data.Interjections, 1)
	assert.Equal(t, "intj-1", pass.Data.Interjections[0].ID)

	e, ok := added.Lookup(node.NodeID)
	require.True(t, ok)
	assert.Equal(t, fx.passage.NodeID, e.ParentID)

	removed := fx.apply(t, fx.f.InterjectionRemoved(fx.version()+1, fx.passage.NodeID, desc, node, 1))
	p, _ = removed.Node(fx.passage.NodeID)
	pass = p.(*ast.Passage)
	assert.Len(t, pass.Kids, 1)
	assert.Empty(t, pass.Data.Interjections)
	_, ok = removed.Node(node.NodeID)
	assert.False(t, ok)
}

func TestApplyInterjectionRemovedUnknownDescriptor(t *testing.T) {
	fx := newFixture(t)

	desc := ast.InterjectionRef{ID: "missing", Text: "x"}
	node := ast.NewInterjection(desc.ID, desc.Text)
	ev := fx.f.InterjectionRemoved(fx.version()+1, fx.passage.NodeID, desc, node, 0)
	fx.mustFail(t, ev, ErrNodeNotFound)
}

func TestApplyParagraphSplit(t *testing.T) {
	fx := newFixture(t)

	newID := "para-split-1"
	ev := fx.f.ParagraphSplit(fx.version()+1, fx.para2.NodeID, 1, newID)
	next := fx.apply(t, ev)

	require.Len(t, next.Root.Kids, 3)
	assert.Equal(t, fx.para2.NodeID, next.Root.Kids[1].ID())
	assert.Equal(t, newID, next.Root.Kids[2].ID())

	orig, _ := next.Node(fx.para2.NodeID)
	require.Len(t, ast.ChildrenOf(orig), 1)
	assert.Equal(t, fx.text2.NodeID, ast.ChildrenOf(orig)[0].ID())

	fresh, _ := next.Node(newID)
	require.Len(t, ast.ChildrenOf(fresh), 1)
	assert.Equal(t, fx.passage.NodeID, ast.ChildrenOf(fresh)[0].ID())

	// The moved passage now lives under the new paragraph.
	e, _ := next.Lookup(fx.passage.NodeID)
	assert.Equal(t, newID, e.ParentID)
	assert.Equal(t, []string{fx.doc.NodeID, newID}, e.Path)
	assert.Len(t, next.PassageIndex.All, 1)
}

func TestApplyParagraphSplitInheritsFormatting(t *testing.T) {
	fx := newFixture(t)

	// Make para1 a centered heading first.
	heading := ast.Touched(fx.para1, fx.cur.LastModified).(*ast.Paragraph)
	heading.HeadingLevel = 2
	heading.Alignment = ast.AlignCenter
	heading.Kids = append(heading.Kids, ast.NewText("Second line"))
	fx.apply(t, fx.f.NodeDeleted(fx.version()+1, fx.para1, fx.doc.NodeID, 0))
	fx.apply(t, fx.f.NodeCreated(fx.version()+1, heading, fx.doc.NodeID, 0))

	newID := "para-split-2"
	next := fx.apply(t, fx.f.ParagraphSplit(fx.version()+1, heading.NodeID, 1, newID))

	fresh, _ := next.Node(newID)
	p := fresh.(*ast.Paragraph)
	assert.Equal(t, 2, p.HeadingLevel)
	assert.Equal(t, ast.AlignCenter, p.Alignment)
}

func TestApplyParagraphSplitRejectsBadIndex(t *testing.T) {
	fx := newFixture(t)
	ev := fx.f.ParagraphSplit(fx.version()+1, fx.para2.NodeID, 5, "x")
	fx.mustFail(t, ev, ErrIndexOutOfRange)
}

func TestApplyParagraphMerged(t *testing.T) {
	fx := newFixture(t)

	ev := fx.f.ParagraphMerged(fx.version()+1, fx.para1.NodeID, fx.para2.NodeID, fx.para2, 2)
	next := fx.apply(t, ev)

	require.Len(t, next.Root.Kids, 1)
	merged, _ := next.Node(fx.para1.NodeID)
	kids := ast.ChildrenOf(merged)
	require.Len(t, kids, 3)
	assert.Equal(t, fx.text1.NodeID, kids[0].ID())
	assert.Equal(t, fx.text2.NodeID, kids[1].ID())
	assert.Equal(t, fx.passage.NodeID, kids[2].ID())

	_, ok := next.Node(fx.para2.NodeID)
	assert.False(t, ok)

	// Adopted children re-point at the surviving paragraph.
	e, _ := next.Lookup(fx.passage.NodeID)
	assert.Equal(t, fx.para1.NodeID, e.ParentID)
	assert.Len(t, next.PassageIndex.All, 1)
}

func TestSplitThenMergeRestoresChildren(t *testing.T) {
	fx := newFixture(t)
	before := fx.cur

	newID := "para-split-3"
	fx.apply(t, fx.f.ParagraphSplit(fx.version()+1, fx.para2.NodeID, 1, newID))
	after := fx.apply(t, fx.f.ParagraphMerged(fx.version()+1, fx.para2.NodeID, newID, nil, 1))

	assert.True(t, ast.Equal(before.Root, after.Root))
}

func TestApplyParagraphMergedRejectsNonParagraph(t *testing.T) {
	fx := newFixture(t)

	ev := fx.f.ParagraphMerged(fx.version()+1, fx.para1.NodeID, fx.text2.NodeID, nil, 0)
	fx.mustFail(t, ev, ErrWrongKind)
}
