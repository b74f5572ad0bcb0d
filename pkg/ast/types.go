// ABOUTME: Content node types for sermon transcript documents
// ABOUTME: Defines the tagged union of document, paragraph, text, passage, interjection

package ast

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the node union.
type Kind string

const (
	KindDocument     Kind = "document"
	KindParagraph    Kind = "paragraph"
	KindText         Kind = "text"
	KindPassage      Kind = "passage"
	KindInterjection Kind = "interjection"
)

// Paragraph alignment values.
const (
	AlignLeft    = "left"
	AlignCenter  = "center"
	AlignRight   = "right"
	AlignJustify = "justify"
)

// Paragraph list styles.
const (
	ListBullet  = "bullet"
	ListOrdered = "ordered"
)

// Node is one addressable unit of document content. Node identity is the
// only long-lived reference to content: ids are stable across edits and
// never reused, while positions in the tree are not. Nodes are treated as
// immutable once placed in a tree; edits replace nodes via Clone/Touched.
type Node interface {
	// ID returns the globally unique, stable node identifier.
	ID() string
	// Kind returns the node's discriminator.
	Kind() Kind
	// Revision returns the per-node edit counter, incremented on each
	// direct mutation of this node.
	Revision() int
	// ModifiedAt returns the time of the node's last direct mutation.
	ModifiedAt() time.Time
	// Clone returns a copy safe to modify: the struct and its slice
	// headers are fresh, child node pointers are shared.
	Clone() Node

	isNode()
}

// Document is the tree root: transcript-level metadata plus ordered
// paragraph children.
type Document struct {
	NodeID       string    // Unique node identifier
	Rev          int       // Per-node edit counter
	Modified     time.Time // Last direct mutation
	Title        string    // Optional document title
	BiblePassage string    // Optional scripture-passage label for the sermon
	Speaker      string    // Optional speaker name
	Tags         []string  // Optional document tags
	Kids         []Node    // Ordered children (paragraphs)
}

// Paragraph is a block of content: body text, heading, list item, or
// visual block quote, carrying ordered text/passage children.
type Paragraph struct {
	NodeID       string
	Rev          int
	Modified     time.Time
	HeadingLevel int    // 0 = body text, 1-3 = heading level
	ListStyle    string // "", "bullet" or "ordered"
	ListNumber   int    // Ordinal for ordered lists
	ListDepth    int    // Nesting depth for lists
	Alignment    string // "", "left", "center", "right", "justify"
	BlockQuote   bool   // Visual block-quote formatting (not a Passage)
	Kids         []Node
}

// Text is a leaf run of characters with optional inline formatting marks.
type Text struct {
	NodeID   string
	Rev      int
	Modified time.Time
	Content  string
	Marks    []string // Inline marks: "bold", "italic", "underline", ...
}

// Passage is a detected-or-authored scripture quotation block. Children
// are restricted to Text and Interjection nodes.
type Passage struct {
	NodeID   string
	Rev      int
	Modified time.Time
	Data     PassageData
	Kids     []Node
}

// Interjection is a short inline aside within a Passage. RefID names the
// interjection descriptor in the owning passage's metadata.
type Interjection struct {
	NodeID   string
	Rev      int
	Modified time.Time
	RefID    string
	Text     string
}

// NewDocument creates an empty document root.
func NewDocument() *Document {
	return &Document{NodeID: uuid.NewString(), Rev: 1, Modified: time.Now().UTC()}
}

// NewParagraph creates an empty body paragraph.
func NewParagraph() *Paragraph {
	return &Paragraph{NodeID: uuid.NewString(), Rev: 1, Modified: time.Now().UTC()}
}

// NewText creates a text run with the given content.
func NewText(content string) *Text {
	return &Text{NodeID: uuid.NewString(), Rev: 1, Modified: time.Now().UTC(), Content: content}
}

// NewPassage creates a passage block carrying the given metadata.
func NewPassage(data PassageData) *Passage {
	return &Passage{NodeID: uuid.NewString(), Rev: 1, Modified: time.Now().UTC(), Data: data}
}

// NewInterjection creates an interjection leaf referencing descriptor refID.
func NewInterjection(refID, text string) *Interjection {
	return &Interjection{NodeID: uuid.NewString(), Rev: 1, Modified: time.Now().UTC(), RefID: refID, Text: text}
}

func (d *Document) ID() string            { return d.NodeID }
func (d *Document) Kind() Kind            { return KindDocument }
func (d *Document) Revision() int         { return d.Rev }
func (d *Document) ModifiedAt() time.Time { return d.Modified }
func (d *Document) isNode()               {}

func (p *Paragraph) ID() string            { return p.NodeID }
func (p *Paragraph) Kind() Kind            { return KindParagraph }
func (p *Paragraph) Revision() int         { return p.Rev }
func (p *Paragraph) ModifiedAt() time.Time { return p.Modified }
func (p *Paragraph) isNode()               {}

func (t *Text) ID() string            { return t.NodeID }
func (t *Text) Kind() Kind            { return KindText }
func (t *Text) Revision() int         { return t.Rev }
func (t *Text) ModifiedAt() time.Time { return t.Modified }
func (t *Text) isNode()               {}

func (p *Passage) ID() string            { return p.NodeID }
func (p *Passage) Kind() Kind            { return KindPassage }
func (p *Passage) Revision() int         { return p.Rev }
func (p *Passage) ModifiedAt() time.Time { return p.Modified }
func (p *Passage) isNode()               {}

func (i *Interjection) ID() string            { return i.NodeID }
func (i *Interjection) Kind() Kind            { return KindInterjection }
func (i *Interjection) Revision() int         { return i.Rev }
func (i *Interjection) ModifiedAt() time.Time { return i.Modified }
func (i *Interjection) isNode()               {}

// Children returns the ordered child list. The returned slice must not be
// modified; use WithChildren to produce an updated copy.
func (d *Document) Children() []Node  { return d.Kids }
func (p *Paragraph) Children() []Node { return p.Kids }
func (p *Passage) Children() []Node   { return p.Kids }

func (d *Document) Clone() Node {
	c := *d
	c.Tags = append([]string(nil), d.Tags...)
	c.Kids = append([]Node(nil), d.Kids...)
	return &c
}

func (p *Paragraph) Clone() Node {
	c := *p
	c.Kids = append([]Node(nil), p.Kids...)
	return &c
}

func (t *Text) Clone() Node {
	c := *t
	c.Marks = append([]string(nil), t.Marks...)
	return &c
}

func (p *Passage) Clone() Node {
	c := *p
	c.Data = p.Data.Clone()
	c.Kids = append([]Node(nil), p.Kids...)
	return &c
}

func (i *Interjection) Clone() Node {
	c := *i
	return &c
}
