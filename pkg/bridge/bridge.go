// ABOUTME: Tree ⇄ editor-form conversion
// ABOUTME: Attrs carry only JSON-basic types so forms survive wire trips

package bridge

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Blakthorne/whispersermons-sub001/pkg/ast"
)

// Editor node type names. These are the vocabulary of the editor's
// document schema, not the engine's.
const (
	TypeDoc          = "doc"
	TypeParagraph    = "paragraph"
	TypeText         = "text"
	TypePassage      = "biblePassage"
	TypeInterjection = "interjection"
)

// EditorNode is one node of the editor's JSON document model: a type
// tag, an open attribute bag, optional marks, the text run for leaves,
// and ordered child content. Attr values are restricted to JSON-basic
// types (string, number, bool, arrays and objects of those) so a form
// round-trips through encoding/json unchanged.
type EditorNode struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Marks   []string       `json:"marks,omitempty"`
	Text    string         `json:"text,omitempty"`
	Content []*EditorNode  `json:"content,omitempty"`
}

// TreeToEditorForm converts a document tree into the editor's form.
func TreeToEditorForm(root *ast.Document) (*EditorNode, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: nil document", ErrMalformedForm)
	}
	return encodeNode(root)
}

// EditorFormToTree rebuilds a document tree from the editor's form.
// Node ids present in the form are preserved; nodes without one get a
// fresh id. Illegal nesting and unknown node types fail with
// ErrMalformedForm.
func EditorFormToTree(doc *EditorNode) (*ast.Document, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil form", ErrMalformedForm)
	}
	if doc.Type != TypeDoc {
		return nil, fmt.Errorf("%w: root is %q, want %q", ErrMalformedForm, doc.Type, TypeDoc)
	}
	return decodeDocument(doc)
}

func encodeNode(n ast.Node) (*EditorNode, error) {
	switch v := n.(type) {
	case *ast.Document:
		attrs := map[string]any{"nodeId": v.NodeID}
		putStr(attrs, "title", v.Title)
		putStr(attrs, "biblePassage", v.BiblePassage)
		putStr(attrs, "speaker", v.Speaker)
		if len(v.Tags) > 0 {
			attrs["tags"] = strsToAny(v.Tags)
		}
		content, err := encodeChildren(v.Kids)
		if err != nil {
			return nil, err
		}
		return &EditorNode{Type: TypeDoc, Attrs: attrs, Content: content}, nil

	case *ast.Paragraph:
		attrs := map[string]any{"nodeId": v.NodeID}
		putInt(attrs, "headingLevel", v.HeadingLevel)
		putStr(attrs, "listStyle", v.ListStyle)
		putInt(attrs, "listNumber", v.ListNumber)
		putInt(attrs, "listDepth", v.ListDepth)
		putStr(attrs, "alignment", v.Alignment)
		if v.BlockQuote {
			attrs["blockQuote"] = true
		}
		content, err := encodeChildren(v.Kids)
		if err != nil {
			return nil, err
		}
		return &EditorNode{Type: TypeParagraph, Attrs: attrs, Content: content}, nil

	case *ast.Text:
		return &EditorNode{
			Type:  TypeText,
			Attrs: map[string]any{"nodeId": v.NodeID},
			Marks: append([]string(nil), v.Marks...),
			Text:  v.Content,
		}, nil

	case *ast.Passage:
		content, err := encodeChildren(v.Kids)
		if err != nil {
			return nil, err
		}
		return &EditorNode{Type: TypePassage, Attrs: passageAttrs(v), Content: content}, nil

	case *ast.Interjection:
		return &EditorNode{
			Type:  TypeInterjection,
			Attrs: map[string]any{"nodeId": v.NodeID, "refId": v.RefID},
			Text:  v.Text,
		}, nil

	default:
		return nil, fmt.Errorf("%w: unencodable node %T", ErrMalformedForm, n)
	}
}

func encodeChildren(kids []ast.Node) ([]*EditorNode, error) {
	if len(kids) == 0 {
		return nil, nil
	}
	out := make([]*EditorNode, 0, len(kids))
	for _, k := range kids {
		if k == nil {
			return nil, fmt.Errorf("%w: nil child", ErrMalformedForm)
		}
		en, err := encodeNode(k)
		if err != nil {
			return nil, err
		}
		out = append(out, en)
	}
	return out, nil
}

func passageAttrs(p *ast.Passage) map[string]any {
	d := p.Data
	attrs := map[string]any{
		"nodeId":     p.NodeID,
		"book":       d.Reference.Book,
		"chapter":    d.Reference.Chapter,
		"verseStart": d.Reference.VerseStart,
		"confidence": d.Detection.Confidence,
		"bucket":     d.Detection.Bucket,
		"verified":   d.Verified,
	}
	if d.Reference.VerseEnd != nil {
		attrs["verseEnd"] = *d.Reference.VerseEnd
	}
	putStr(attrs, "originalText", d.Reference.OriginalText)
	putStr(attrs, "normalized", d.Reference.Normalized)
	putStr(attrs, "translation", d.Detection.Translation)
	if d.Detection.TranslationAutoDetected {
		attrs["translationAutoDetected"] = true
	}
	putStr(attrs, "verseText", d.Detection.VerseText)
	if d.Detection.PartialMatch {
		attrs["partialMatch"] = true
	}
	putStr(attrs, "notes", d.Notes)
	if d.NonBiblical {
		attrs["nonBiblical"] = true
	}
	if d.StartChar != nil {
		attrs["startChar"] = *d.StartChar
	}
	if d.EndChar != nil {
		attrs["endChar"] = *d.EndChar
	}
	if len(d.Interjections) > 0 {
		list := make([]any, 0, len(d.Interjections))
		for _, ref := range d.Interjections {
			list = append(list, map[string]any{
				"id":          ref.ID,
				"text":        ref.Text,
				"startOffset": ref.StartOffset,
				"endOffset":   ref.EndOffset,
			})
		}
		attrs["interjections"] = list
	}
	return attrs
}

func decodeDocument(en *EditorNode) (*ast.Document, error) {
	d := ast.NewDocument()
	d.NodeID = nodeID(en.Attrs)
	d.Title = strAttr(en.Attrs, "title")
	d.BiblePassage = strAttr(en.Attrs, "biblePassage")
	d.Speaker = strAttr(en.Attrs, "speaker")
	d.Tags = strsAttr(en.Attrs, "tags")
	for _, c := range en.Content {
		if c == nil || c.Type != TypeParagraph {
			return nil, fmt.Errorf("%w: %s under %s", ErrMalformedForm, typeOf(c), TypeDoc)
		}
		p, err := decodeParagraph(c)
		if err != nil {
			return nil, err
		}
		d.Kids = append(d.Kids, p)
	}
	return d, nil
}

func decodeParagraph(en *EditorNode) (*ast.Paragraph, error) {
	p := ast.NewParagraph()
	p.NodeID = nodeID(en.Attrs)
	p.HeadingLevel, _ = intAttr(en.Attrs, "headingLevel")
	p.ListStyle = strAttr(en.Attrs, "listStyle")
	p.ListNumber, _ = intAttr(en.Attrs, "listNumber")
	p.ListDepth, _ = intAttr(en.Attrs, "listDepth")
	p.Alignment = strAttr(en.Attrs, "alignment")
	p.BlockQuote = boolAttr(en.Attrs, "blockQuote")
	for _, c := range en.Content {
		var (
			kid ast.Node
			err error
		)
		switch {
		case c == nil:
			err = fmt.Errorf("%w: nil child under %s", ErrMalformedForm, TypeParagraph)
		case c.Type == TypeText:
			kid, err = decodeText(c)
		case c.Type == TypePassage:
			kid, err = decodePassage(c)
		default:
			err = fmt.Errorf("%w: %s under %s", ErrMalformedForm, typeOf(c), TypeParagraph)
		}
		if err != nil {
			return nil, err
		}
		p.Kids = append(p.Kids, kid)
	}
	return p, nil
}

func decodeText(en *EditorNode) (*ast.Text, error) {
	if len(en.Content) > 0 {
		return nil, fmt.Errorf("%w: %s with content", ErrMalformedForm, TypeText)
	}
	t := ast.NewText(en.Text)
	t.NodeID = nodeID(en.Attrs)
	t.Marks = append([]string(nil), en.Marks...)
	return t, nil
}

func decodePassage(en *EditorNode) (*ast.Passage, error) {
	data, err := passageData(en.Attrs)
	if err != nil {
		return nil, err
	}
	p := ast.NewPassage(data)
	p.NodeID = nodeID(en.Attrs)
	for _, c := range en.Content {
		var (
			kid ast.Node
			err error
		)
		switch {
		case c == nil:
			err = fmt.Errorf("%w: nil child under %s", ErrMalformedForm, TypePassage)
		case c.Type == TypeText:
			kid, err = decodeText(c)
		case c.Type == TypeInterjection:
			kid, err = decodeInterjection(c)
		default:
			err = fmt.Errorf("%w: %s under %s", ErrMalformedForm, typeOf(c), TypePassage)
		}
		if err != nil {
			return nil, err
		}
		p.Kids = append(p.Kids, kid)
	}
	return p, nil
}

func decodeInterjection(en *EditorNode) (*ast.Interjection, error) {
	refID := strAttr(en.Attrs, "refId")
	if refID == "" {
		return nil, fmt.Errorf("%w: %s without refId", ErrMalformedForm, TypeInterjection)
	}
	i := ast.NewInterjection(refID, en.Text)
	i.NodeID = nodeID(en.Attrs)
	return i, nil
}

func passageData(attrs map[string]any) (ast.PassageData, error) {
	d := ast.PassageData{
		Reference: ast.Reference{
			Book:         strAttr(attrs, "book"),
			Chapter:      intAttrOr(attrs, "chapter", 0),
			VerseStart:   intAttrOr(attrs, "verseStart", 0),
			OriginalText: strAttr(attrs, "originalText"),
			Normalized:   strAttr(attrs, "normalized"),
		},
		Detection: ast.Detection{
			Confidence:              floatAttr(attrs, "confidence"),
			Bucket:                  strAttr(attrs, "bucket"),
			Translation:             strAttr(attrs, "translation"),
			TranslationAutoDetected: boolAttr(attrs, "translationAutoDetected"),
			VerseText:               strAttr(attrs, "verseText"),
			PartialMatch:            boolAttr(attrs, "partialMatch"),
		},
		Verified:    boolAttr(attrs, "verified"),
		Notes:       strAttr(attrs, "notes"),
		NonBiblical: boolAttr(attrs, "nonBiblical"),
	}
	if v, ok := intAttr(attrs, "verseEnd"); ok {
		d.Reference.VerseEnd = &v
	}
	if v, ok := intAttr(attrs, "startChar"); ok {
		d.StartChar = &v
	}
	if v, ok := intAttr(attrs, "endChar"); ok {
		d.EndChar = &v
	}
	if d.Detection.Bucket == "" {
		d.Detection.Bucket = ast.ConfidenceBucket(d.Detection.Confidence)
	}
	if d.Reference.Normalized == "" && d.Reference.Book != "" {
		d.Reference.Normalized = d.Reference.Display()
	}
	refs, err := interjectionsAttr(attrs)
	if err != nil {
		return ast.PassageData{}, err
	}
	d.Interjections = refs
	return d, nil
}

func interjectionsAttr(attrs map[string]any) ([]ast.InterjectionRef, error) {
	raw, ok := attrs["interjections"]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: interjections attr is %T", ErrMalformedForm, raw)
	}
	out := make([]ast.InterjectionRef, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: interjection %d is %T", ErrMalformedForm, i, item)
		}
		ref := ast.InterjectionRef{
			ID:   strAttr(m, "id"),
			Text: strAttr(m, "text"),
		}
		if ref.ID == "" {
			return nil, fmt.Errorf("%w: interjection %d without id", ErrMalformedForm, i)
		}
		ref.StartOffset = intAttrOr(m, "startOffset", 0)
		ref.EndOffset = intAttrOr(m, "endOffset", 0)
		out = append(out, ref)
	}
	return out, nil
}

// Attr helpers. Numbers arrive as int when a form is built in process
// and as float64 after a JSON round trip; both are accepted.

func nodeID(attrs map[string]any) string {
	if id := strAttr(attrs, "nodeId"); id != "" {
		return id
	}
	return uuid.NewString()
}

func strAttr(attrs map[string]any, key string) string {
	v, _ := attrs[key].(string)
	return v
}

func intAttr(attrs map[string]any, key string) (int, bool) {
	switch v := attrs[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

func intAttrOr(attrs map[string]any, key string, def int) int {
	if v, ok := intAttr(attrs, key); ok {
		return v
	}
	return def
}

func floatAttr(attrs map[string]any, key string) float64 {
	switch v := attrs[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func boolAttr(attrs map[string]any, key string) bool {
	v, _ := attrs[key].(bool)
	return v
}

func strsAttr(attrs map[string]any, key string) []string {
	switch v := attrs[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	return nil
}

func strsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func putStr(attrs map[string]any, key, v string) {
	if v != "" {
		attrs[key] = v
	}
}

func putInt(attrs map[string]any, key string, v int) {
	if v != 0 {
		attrs[key] = v
	}
}

func typeOf(en *EditorNode) string {
	if en == nil {
		return "nil"
	}
	if en.Type == "" {
		return "untyped"
	}
	return en.Type
}
