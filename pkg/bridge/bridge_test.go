// ABOUTME: Tests for editor form conversion
// ABOUTME: Verifies lossless round trips, attr flattening, and malformed forms

package bridge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Blakthorne/whispersermons-sub001/pkg/ast"
)

func intPtr(v int) *int { return &v }

// richTree builds a document exercising every node kind and most
// formatting attributes.
func richTree() *ast.Document {
	heading := ast.NewParagraph()
	heading.HeadingLevel = 2
	heading.Alignment = "center"
	bold := ast.NewText("Hope in Suffering")
	bold.Marks = []string{"bold"}
	heading.Kids = []ast.Node{bold}

	descID := "intj-42"
	pass := ast.NewPassage(ast.PassageData{
		Reference: ast.Reference{
			Book: "Romans", Chapter: 8, VerseStart: 28, VerseEnd: intPtr(30),
			OriginalText: "romans eight twenty-eight",
			Normalized:   "Romans 8:28-30",
		},
		Detection: ast.Detection{
			Confidence: 0.92, Bucket: ast.BucketHigh,
			Translation: "ESV", TranslationAutoDetected: true,
			VerseText: "And we know that for those who love God...",
		},
		Interjections: []ast.InterjectionRef{
			{ID: descID, Text: "church, listen", StartOffset: 10, EndOffset: 24},
		},
		Verified:  true,
		Notes:     "key text",
		StartChar: intPtr(24),
		EndChar:   intPtr(57),
	})
	pass.Kids = []ast.Node{
		ast.NewText("And we know that in all things..."),
		ast.NewInterjection(descID, "church, listen"),
	}

	body := ast.NewParagraph()
	body.Kids = []ast.Node{ast.NewText("Turn with me to Romans. "), pass}

	list := ast.NewParagraph()
	list.ListStyle = "ordered"
	list.ListNumber = 1
	list.ListDepth = 1
	list.BlockQuote = true
	list.Kids = []ast.Node{ast.NewText("First point")}

	doc := ast.NewDocument()
	doc.Title = "Hope in Suffering"
	doc.BiblePassage = "Romans 8"
	doc.Speaker = "D. Park"
	doc.Tags = []string{"romans", "suffering"}
	doc.Kids = []ast.Node{heading, body, list}
	return doc
}

func TestRoundTripPreservesTree(t *testing.T) {
	orig := richTree()

	form, err := TreeToEditorForm(orig)
	require.NoError(t, err)
	back, err := EditorFormToTree(form)
	require.NoError(t, err)

	assert.True(t, ast.Equal(orig, back), "round trip must reproduce the tree")
}

func TestRoundTripThroughJSON(t *testing.T) {
	orig := richTree()
	form, err := TreeToEditorForm(orig)
	require.NoError(t, err)

	// Editors exchange forms as JSON; numeric attrs come back as
	// float64 and must still decode.
	blob, err := json.Marshal(form)
	require.NoError(t, err)
	var wired EditorNode
	require.NoError(t, json.Unmarshal(blob, &wired))

	back, err := EditorFormToTree(&wired)
	require.NoError(t, err)
	assert.True(t, ast.Equal(orig, back))
}

func TestTreeToEditorFormShape(t *testing.T) {
	form, err := TreeToEditorForm(richTree())
	require.NoError(t, err)

	assert.Equal(t, TypeDoc, form.Type)
	assert.Equal(t, "Hope in Suffering", form.Attrs["title"])
	require.Len(t, form.Content, 3)

	heading := form.Content[0]
	assert.Equal(t, TypeParagraph, heading.Type)
	assert.Equal(t, 2, heading.Attrs["headingLevel"])
	require.Len(t, heading.Content, 1)
	assert.Equal(t, TypeText, heading.Content[0].Type)
	assert.Equal(t, "Hope in Suffering", heading.Content[0].Text)
	assert.Equal(t, []string{"bold"}, heading.Content[0].Marks)

	body := form.Content[1]
	require.Len(t, body.Content, 2)
	pass := body.Content[1]
	assert.Equal(t, TypePassage, pass.Type)
	assert.Equal(t, "Romans", pass.Attrs["book"])
	assert.Equal(t, 8, pass.Attrs["chapter"])
	assert.Equal(t, true, pass.Attrs["verified"])
	require.Len(t, pass.Content, 2)
	assert.Equal(t, TypeInterjection, pass.Content[1].Type)
	assert.Equal(t, "intj-42", pass.Content[1].Attrs["refId"])
}

func TestEditorFormToTreeGeneratesIDs(t *testing.T) {
	form := &EditorNode{
		Type: TypeDoc,
		Content: []*EditorNode{
			{Type: TypeParagraph, Content: []*EditorNode{
				{Type: TypeText, Text: "pasted from elsewhere"},
			}},
		},
	}
	doc, err := EditorFormToTree(form)
	require.NoError(t, err)

	ids := map[string]bool{}
	ast.Walk(doc, func(n ast.Node) bool {
		require.NotEmpty(t, n.ID())
		require.False(t, ids[n.ID()], "fresh ids must be unique")
		ids[n.ID()] = true
		return true
	})
	assert.Len(t, ids, 3)
}

func TestEditorFormToTreeDerivesPassageDefaults(t *testing.T) {
	form := &EditorNode{
		Type: TypeDoc,
		Content: []*EditorNode{
			{Type: TypeParagraph, Content: []*EditorNode{
				{Type: TypePassage, Attrs: map[string]any{
					"book": "John", "chapter": 3, "verseStart": 16,
					"confidence": 0.7,
				}},
			}},
		},
	}
	doc, err := EditorFormToTree(form)
	require.NoError(t, err)

	pass := doc.Kids[0].(*ast.Paragraph).Kids[0].(*ast.Passage)
	assert.Equal(t, ast.BucketMedium, pass.Data.Detection.Bucket)
	assert.Equal(t, "John 3:16", pass.Data.Reference.Normalized)
	assert.Nil(t, pass.Data.Reference.VerseEnd)
}

func TestEditorFormToTreeRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		form *EditorNode
	}{
		{"nil form", nil},
		{"wrong root type", &EditorNode{Type: TypeParagraph}},
		{"text under doc", &EditorNode{Type: TypeDoc, Content: []*EditorNode{
			{Type: TypeText, Text: "loose"},
		}}},
		{"unknown type under paragraph", &EditorNode{Type: TypeDoc, Content: []*EditorNode{
			{Type: TypeParagraph, Content: []*EditorNode{{Type: "image"}}},
		}}},
		{"interjection under paragraph", &EditorNode{Type: TypeDoc, Content: []*EditorNode{
			{Type: TypeParagraph, Content: []*EditorNode{
				{Type: TypeInterjection, Attrs: map[string]any{"refId": "x"}},
			}},
		}}},
		{"interjection without refId", &EditorNode{Type: TypeDoc, Content: []*EditorNode{
			{Type: TypeParagraph, Content: []*EditorNode{
				{Type: TypePassage, Content: []*EditorNode{{Type: TypeInterjection, Text: "amen"}}},
			}},
		}}},
		{"text with content", &EditorNode{Type: TypeDoc, Content: []*EditorNode{
			{Type: TypeParagraph, Content: []*EditorNode{
				{Type: TypeText, Text: "x", Content: []*EditorNode{{Type: TypeText}}},
			}},
		}}},
		{"interjections attr wrong shape", &EditorNode{Type: TypeDoc, Content: []*EditorNode{
			{Type: TypeParagraph, Content: []*EditorNode{
				{Type: TypePassage, Attrs: map[string]any{"interjections": "nope"}},
			}},
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := EditorFormToTree(tc.form)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedForm)
		})
	}
}

func TestTreeToEditorFormNilDocument(t *testing.T) {
	_, err := TreeToEditorForm(nil)
	assert.ErrorIs(t, err, ErrMalformedForm)
}
