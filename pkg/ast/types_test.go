// ABOUTME: Tests for node types, child legality, and clone semantics
// ABOUTME: Verifies structural sharing, revision bumps, and reference display

package ast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSampleDoc() (*Document, *Paragraph, *Text) {
	text := NewText("In the beginning")
	para := NewParagraph()
	para.Kids = []Node{text}
	doc := NewDocument()
	doc.Title = "Genesis Sermon"
	doc.Tags = []string{"creation"}
	doc.Kids = []Node{para}
	return doc, para, text
}

func TestTypeGuards(t *testing.T) {
	doc, para, text := buildSampleDoc()
	passage := NewPassage(PassageData{})
	inj := NewInterjection("ref-1", "amen")

	assert.True(t, IsDocument(doc))
	assert.True(t, IsParagraph(para))
	assert.True(t, IsText(text))
	assert.True(t, IsPassage(passage))
	assert.True(t, IsInterjection(inj))

	assert.False(t, IsDocument(para))
	assert.False(t, IsText(passage))

	assert.True(t, IsContainer(doc))
	assert.True(t, IsContainer(para))
	assert.True(t, IsContainer(passage))
	assert.False(t, IsContainer(text))
	assert.False(t, IsContainer(inj))
}

func TestChildLegality(t *testing.T) {
	cases := []struct {
		parent Kind
		child  Kind
		ok     bool
	}{
		{KindDocument, KindParagraph, true},
		{KindDocument, KindText, false},
		{KindDocument, KindPassage, false},
		{KindParagraph, KindText, true},
		{KindParagraph, KindPassage, true},
		{KindParagraph, KindInterjection, false},
		{KindPassage, KindText, true},
		{KindPassage, KindInterjection, true},
		{KindPassage, KindParagraph, false},
		{KindText, KindText, false},
		{KindInterjection, KindText, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, ValidChild(tc.parent, tc.child),
			"parent=%s child=%s", tc.parent, tc.child)
	}
}

func TestCloneIsolation(t *testing.T) {
	doc, para, _ := buildSampleDoc()

	clone := doc.Clone().(*Document)
	clone.Title = "Changed"
	clone.Tags[0] = "altered"
	clone.Kids[0] = NewParagraph()

	assert.Equal(t, "Genesis Sermon", doc.Title)
	assert.Equal(t, "creation", doc.Tags[0])
	assert.Same(t, para, doc.Kids[0].(*Paragraph))
}

func TestTouchedBumpsOnlyTheCopy(t *testing.T) {
	text := NewText("hello")
	before := text.Rev
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	touched := Touched(text, ts).(*Text)

	assert.Equal(t, before, text.Rev)
	assert.Equal(t, before+1, touched.Rev)
	assert.Equal(t, ts, touched.Modified)
	assert.Equal(t, text.NodeID, touched.NodeID)
}

func TestWithChildren(t *testing.T) {
	para := NewParagraph()
	kid := NewText("a")

	updated, err := WithChildren(para, []Node{kid})
	require.NoError(t, err)
	assert.Len(t, ChildrenOf(updated), 1)
	assert.Empty(t, ChildrenOf(para))

	_, err = WithChildren(kid, nil)
	assert.ErrorIs(t, err, ErrNotContainer)
}

func TestChildIndex(t *testing.T) {
	doc, para, _ := buildSampleDoc()

	assert.Equal(t, 0, ChildIndex(doc, para.NodeID))
	assert.Equal(t, -1, ChildIndex(doc, "missing"))
	assert.Equal(t, -1, ChildIndex(NewText("leaf"), "anything"))
}

func TestWalkOrder(t *testing.T) {
	doc, para, text := buildSampleDoc()

	var visited []string
	Walk(doc, func(n Node) bool {
		visited = append(visited, n.ID())
		return true
	})
	assert.Equal(t, []string{doc.NodeID, para.NodeID, text.NodeID}, visited)

	// Early stop.
	count := 0
	Walk(doc, func(n Node) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}

func TestFlattenText(t *testing.T) {
	passage := NewPassage(PassageData{})
	passage.Kids = []Node{NewText("For God so loved "), NewInterjection("r1", "(amen)"), NewText("the world")}

	para := NewParagraph()
	para.Kids = []Node{NewText("He said: "), passage}

	assert.Equal(t, "For God so loved (amen)the world", FlattenText(passage))
	assert.Equal(t, "He said: For God so loved (amen)the world", FlattenText(para))
}

func TestCountNodes(t *testing.T) {
	doc, _, _ := buildSampleDoc()
	assert.Equal(t, 3, CountNodes(doc))
	assert.Equal(t, 1, CountNodes(NewText("x")))
}

func TestEqualIgnoresRevisions(t *testing.T) {
	doc, _, text := buildSampleDoc()

	other := doc.Clone().(*Document)
	bumped := Touched(text, time.Now().UTC())
	otherPara := other.Kids[0].Clone().(*Paragraph)
	otherPara.Kids = []Node{bumped}
	other.Kids[0] = otherPara

	assert.True(t, Equal(doc, other))
}

func TestEqualDetectsContentDifferences(t *testing.T) {
	doc, _, _ := buildSampleDoc()

	other := doc.Clone().(*Document)
	other.Title = "Different"
	assert.False(t, Equal(doc, other))

	verseEnd := 30
	a := NewPassage(PassageData{
		Reference: Reference{Book: "Romans", Chapter: 8, VerseStart: 28, VerseEnd: &verseEnd},
		Detection: Detection{Confidence: 0.91, Bucket: BucketHigh},
	})
	b := a.Clone().(*Passage)
	assert.True(t, Equal(a, b))

	b.Data.Verified = true
	assert.False(t, Equal(a, b))
}

func TestConfidenceBucket(t *testing.T) {
	assert.Equal(t, BucketHigh, ConfidenceBucket(0.8))
	assert.Equal(t, BucketHigh, ConfidenceBucket(0.95))
	assert.Equal(t, BucketMedium, ConfidenceBucket(0.6))
	assert.Equal(t, BucketMedium, ConfidenceBucket(0.79))
	assert.Equal(t, BucketLow, ConfidenceBucket(0.59))
	assert.Equal(t, BucketLow, ConfidenceBucket(0))
}

func TestReferenceDisplay(t *testing.T) {
	single := Reference{Book: "Romans", Chapter: 8, VerseStart: 28}
	assert.Equal(t, "Romans 8:28", single.Display())

	end := 30
	ranged := Reference{Book: "Romans", Chapter: 8, VerseStart: 28, VerseEnd: &end}
	assert.Equal(t, "Romans 8:28-30", ranged.Display())

	stored := Reference{Book: "Romans", Chapter: 8, VerseStart: 28, Normalized: "Rom 8:28"}
	assert.Equal(t, "Rom 8:28", stored.Display())
}

func TestPassageDataCloneIsDeep(t *testing.T) {
	end := 30
	data := PassageData{
		Reference:     Reference{Book: "John", Chapter: 3, VerseStart: 16, VerseEnd: &end},
		Interjections: []InterjectionRef{{ID: "i1", Text: "amen", StartOffset: 4, EndOffset: 8}},
	}

	clone := data.Clone()
	*clone.Reference.VerseEnd = 99
	clone.Interjections[0].Text = "changed"

	assert.Equal(t, 30, *data.Reference.VerseEnd)
	assert.Equal(t, "amen", data.Interjections[0].Text)
}
