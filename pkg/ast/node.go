// ABOUTME: Helpers over the node union: guards, children access, traversal
// ABOUTME: Pure functions only; no mutation of existing nodes

package ast

import "time"

// Container is implemented by node kinds that carry ordered children
// (Document, Paragraph, Passage). Text and Interjection are leaves.
type Container interface {
	Node
	Children() []Node
}

// Type guards.
func IsDocument(n Node) bool     { _, ok := n.(*Document); return ok }
func IsParagraph(n Node) bool    { _, ok := n.(*Paragraph); return ok }
func IsText(n Node) bool         { _, ok := n.(*Text); return ok }
func IsPassage(n Node) bool      { _, ok := n.(*Passage); return ok }
func IsInterjection(n Node) bool { _, ok := n.(*Interjection); return ok }

// IsContainer reports whether n carries children.
func IsContainer(n Node) bool {
	_, ok := n.(Container)
	return ok
}

// ChildrenOf returns n's ordered children, or nil for leaf kinds. The
// returned slice must not be modified.
func ChildrenOf(n Node) []Node {
	if c, ok := n.(Container); ok {
		return c.Children()
	}
	return nil
}

// WithChildren returns a clone of n carrying the given child list. It
// fails for leaf kinds. The input slice is owned by the returned node.
func WithChildren(n Node, children []Node) (Node, error) {
	switch c := n.(type) {
	case *Document:
		cl := c.Clone().(*Document)
		cl.Kids = children
		return cl, nil
	case *Paragraph:
		cl := c.Clone().(*Paragraph)
		cl.Kids = children
		return cl, nil
	case *Passage:
		cl := c.Clone().(*Passage)
		cl.Kids = children
		return cl, nil
	default:
		return nil, ErrNotContainer
	}
}

// Touched returns a clone of n with its revision counter bumped and its
// modified timestamp set to ts. Used for the directly mutated node only;
// ancestors rebuilt by path copying keep their revision.
func Touched(n Node, ts time.Time) Node {
	c := n.Clone()
	switch v := c.(type) {
	case *Document:
		v.Rev++
		v.Modified = ts
	case *Paragraph:
		v.Rev++
		v.Modified = ts
	case *Text:
		v.Rev++
		v.Modified = ts
	case *Passage:
		v.Rev++
		v.Modified = ts
	case *Interjection:
		v.Rev++
		v.Modified = ts
	}
	return c
}

// ValidChild reports whether a node of kind child may be placed under a
// node of kind parent.
func ValidChild(parent, child Kind) bool {
	switch parent {
	case KindDocument:
		return child == KindParagraph
	case KindParagraph:
		return child == KindText || child == KindPassage
	case KindPassage:
		return child == KindText || child == KindInterjection
	default:
		return false
	}
}

// ChildIndex returns the position of child id under n, or -1.
func ChildIndex(n Node, id string) int {
	for i, c := range ChildrenOf(n) {
		if c.ID() == id {
			return i
		}
	}
	return -1
}

// Walk visits n and its descendants in document (pre-) order. Returning
// false from visit stops the walk.
func Walk(n Node, visit func(Node) bool) bool {
	if !visit(n) {
		return false
	}
	for _, c := range ChildrenOf(n) {
		if !Walk(c, visit) {
			return false
		}
	}
	return true
}

// FlattenText concatenates the text content of n's subtree in document
// order. Interjection text is included.
func FlattenText(n Node) string {
	var out []byte
	Walk(n, func(v Node) bool {
		switch t := v.(type) {
		case *Text:
			out = append(out, t.Content...)
		case *Interjection:
			out = append(out, t.Text...)
		}
		return true
	})
	return string(out)
}

// CountNodes returns the number of nodes in n's subtree, including n.
func CountNodes(n Node) int {
	count := 0
	Walk(n, func(Node) bool {
		count++
		return true
	})
	return count
}

// Equal reports whether two subtrees carry the same node identities and
// content. Revision counters and modified timestamps are ignored: they
// track edit history, not content.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() || a.ID() != b.ID() {
		return false
	}
	switch av := a.(type) {
	case *Document:
		bv := b.(*Document)
		if av.Title != bv.Title || av.BiblePassage != bv.BiblePassage ||
			av.Speaker != bv.Speaker || !stringsEqual(av.Tags, bv.Tags) {
			return false
		}
	case *Paragraph:
		bv := b.(*Paragraph)
		if av.HeadingLevel != bv.HeadingLevel || av.ListStyle != bv.ListStyle ||
			av.ListNumber != bv.ListNumber || av.ListDepth != bv.ListDepth ||
			av.Alignment != bv.Alignment || av.BlockQuote != bv.BlockQuote {
			return false
		}
	case *Text:
		bv := b.(*Text)
		if av.Content != bv.Content || !stringsEqual(av.Marks, bv.Marks) {
			return false
		}
	case *Passage:
		bv := b.(*Passage)
		if !av.Data.Equal(bv.Data) {
			return false
		}
	case *Interjection:
		bv := b.(*Interjection)
		if av.RefID != bv.RefID || av.Text != bv.Text {
			return false
		}
	}
	ac, bc := ChildrenOf(a), ChildrenOf(b)
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !Equal(ac[i], bc[i]) {
			return false
		}
	}
	return true
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
