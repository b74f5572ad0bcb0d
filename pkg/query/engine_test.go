// ABOUTME: Tests for the read-side query engine
// ABOUTME: Verifies traversal, passage lookups, weighted search, and stats

package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Blakthorne/whispersermons-sub001/pkg/ast"
	"github.com/Blakthorne/whispersermons-sub001/pkg/state"
)

type qfix struct {
	e       *Engine
	doc     *ast.Document
	heading *ast.Paragraph
	body    *ast.Paragraph
	head1   *ast.Text
	text1   *ast.Text
	romans  *ast.Passage
	verse   *ast.Text
	psalm   *ast.Passage
}

func newQfix(t *testing.T) *qfix {
	t.Helper()
	fx := &qfix{}

	fx.head1 = ast.NewText("Suffering and Glory")
	fx.heading = ast.NewParagraph()
	fx.heading.HeadingLevel = 1
	fx.heading.Kids = []ast.Node{fx.head1}

	fx.text1 = ast.NewText("Paul writes about suffering to the church in Rome.")
	fx.verse = ast.NewText("And we know that in all things God works for the good.")
	fx.romans = ast.NewPassage(ast.PassageData{
		Reference: ast.Reference{Book: "Romans", Chapter: 8, VerseStart: 28, Normalized: "Romans 8:28"},
		Detection: ast.Detection{Confidence: 0.92, Bucket: ast.BucketHigh},
		Verified:  true,
	})
	fx.romans.Kids = []ast.Node{fx.verse}

	fx.psalm = ast.NewPassage(ast.PassageData{
		Reference: ast.Reference{Book: "Psalm", Chapter: 23, VerseStart: 1, Normalized: "Psalm 23:1"},
		Detection: ast.Detection{Confidence: 0.65, Bucket: ast.BucketMedium},
	})
	fx.psalm.Kids = []ast.Node{ast.NewText("The Lord is my shepherd.")}

	fx.body = ast.NewParagraph()
	fx.body.Kids = []ast.Node{fx.text1, fx.romans, fx.psalm}

	fx.doc = ast.NewDocument()
	fx.doc.Title = "Suffering and Glory"
	fx.doc.Kids = []ast.Node{fx.heading, fx.body}

	fx.e = NewEngine(state.New(fx.doc))
	return fx
}

func TestNodeAndChildren(t *testing.T) {
	fx := newQfix(t)

	n, ok := fx.e.Node(fx.verse.NodeID)
	require.True(t, ok)
	assert.Equal(t, fx.verse.NodeID, n.ID())

	_, ok = fx.e.Node("missing")
	assert.False(t, ok)

	kids, err := fx.e.Children(fx.doc.NodeID)
	require.NoError(t, err)
	require.Len(t, kids, 2)
	assert.Equal(t, fx.heading.NodeID, kids[0].ID())
	assert.Equal(t, fx.body.NodeID, kids[1].ID())

	kids, err = fx.e.Children(fx.text1.NodeID)
	require.NoError(t, err)
	assert.Empty(t, kids)

	_, err = fx.e.Children("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAncestorsRootFirst(t *testing.T) {
	fx := newQfix(t)

	chain, err := fx.e.Ancestors(fx.verse.NodeID)
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.Equal(t, fx.doc.NodeID, chain[0].ID())
	assert.Equal(t, fx.body.NodeID, chain[1].ID())
	assert.Equal(t, fx.romans.NodeID, chain[2].ID())

	chain, err = fx.e.Ancestors(fx.doc.NodeID)
	require.NoError(t, err)
	assert.Empty(t, chain)

	_, err = fx.e.Ancestors("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPassageLookups(t *testing.T) {
	fx := newQfix(t)

	romans := fx.e.PassagesByBook("Romans")
	require.Len(t, romans, 1)
	assert.Equal(t, fx.romans.NodeID, romans[0].NodeID)

	assert.Empty(t, fx.e.PassagesByBook("Acts"))

	byRef := fx.e.PassageByReference("Psalm 23:1")
	require.Len(t, byRef, 1)
	assert.Equal(t, fx.psalm.NodeID, byRef[0].NodeID)

	assert.Empty(t, fx.e.PassageByReference("John 3:16"))

	all := fx.e.AllPassages()
	require.Len(t, all, 2)
	assert.Equal(t, fx.romans.NodeID, all[0].NodeID)
	assert.Equal(t, fx.psalm.NodeID, all[1].NodeID)
}

func TestSearchRanksHeadingsAboveBody(t *testing.T) {
	fx := newQfix(t)

	// One hit in the heading run and one in the body run.
	results := fx.e.Search("suffering", 0)
	require.Len(t, results, 2)

	assert.Equal(t, fx.head1.NodeID, results[0].NodeID)
	assert.Equal(t, fx.heading.NodeID, results[0].ParagraphID)
	assert.InDelta(t, 3.0, results[0].Score, 1e-9)

	assert.Equal(t, fx.text1.NodeID, results[1].NodeID)
	assert.Equal(t, fx.body.NodeID, results[1].ParagraphID)
	assert.InDelta(t, 1.0, results[1].Score, 1e-9)
}

func TestSearchWeighsPassageText(t *testing.T) {
	fx := newQfix(t)

	results := fx.e.Search("shepherd", 0)
	require.Len(t, results, 1)
	assert.Equal(t, ast.KindText, results[0].Kind)
	assert.Equal(t, fx.body.NodeID, results[0].ParagraphID)
	assert.InDelta(t, 2.0, results[0].Score, 1e-9)
	assert.Contains(t, results[0].Snippet, "shepherd")
}

func TestSearchSumsTermsAndCapsResults(t *testing.T) {
	fx := newQfix(t)

	results := fx.e.Search("suffering glory", 0)
	require.NotEmpty(t, results)
	assert.Equal(t, fx.head1.NodeID, results[0].NodeID)
	assert.InDelta(t, 6.0, results[0].Score, 1e-9)

	capped := fx.e.Search("suffering glory", 1)
	require.Len(t, capped, 1)
	assert.Equal(t, fx.head1.NodeID, capped[0].NodeID)
}

func TestSearchEmptyAndMiss(t *testing.T) {
	fx := newQfix(t)
	assert.Empty(t, fx.e.Search("", 0))
	assert.Empty(t, fx.e.Search("   ", 0))
	assert.Empty(t, fx.e.Search("nebuchadnezzar", 0))
}

func TestSearchSnippetTrimsLongRuns(t *testing.T) {
	long := strings.Repeat("filler words before the mark ", 10) +
		"covenant" +
		strings.Repeat(" and plenty of filler after the mark", 10)
	para := ast.NewParagraph()
	para.Kids = []ast.Node{ast.NewText(long)}
	doc := ast.NewDocument()
	doc.Kids = []ast.Node{para}

	e := NewEngine(state.New(doc))
	results := e.Search("covenant", 0)
	require.Len(t, results, 1)
	snip := results[0].Snippet
	assert.Contains(t, snip, "covenant")
	assert.True(t, strings.HasPrefix(snip, "..."), "snippet should mark a trimmed head")
	assert.True(t, strings.HasSuffix(snip, "..."), "snippet should mark a trimmed tail")
	assert.Less(t, len(snip), len(long))
}

func TestSearchHandlesMultibyteContent(t *testing.T) {
	para := ast.NewParagraph()
	para.Kids = []ast.Node{ast.NewText("κύριος ποιμαίνει με: the Lord shepherds me")}
	doc := ast.NewDocument()
	doc.Kids = []ast.Node{para}

	e := NewEngine(state.New(doc))
	results := e.Search("shepherds", 0)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Snippet, "shepherds")
}

func TestStats(t *testing.T) {
	fx := newQfix(t)

	st := fx.e.Stats()
	assert.Equal(t, 0, st.Version)
	assert.Equal(t, 1, st.Nodes[ast.KindDocument])
	assert.Equal(t, 2, st.Nodes[ast.KindParagraph])
	assert.Equal(t, 4, st.Nodes[ast.KindText])
	assert.Equal(t, 2, st.Nodes[ast.KindPassage])
	assert.Equal(t, 2, st.Passages)
	assert.Equal(t, 1, st.VerifiedPassages)
	assert.Equal(t, 0, st.EventLogLength)
	assert.Positive(t, st.Words)
}
