// ABOUTME: Per-kind event effects on the working state
// ABOUTME: Tree surgery is copy-on-write: clone the touched node and its ancestor chain

package state

import (
	"fmt"
	"time"

	"github.com/Blakthorne/whispersermons-sub001/pkg/ast"
	"github.com/Blakthorne/whispersermons-sub001/pkg/event"
)

// applyEffect mutates the working clone w according to ev. Bookkeeping
// (log append, stacks, version) is the caller's job; batch members and
// carried inverse events pass through here without their own bookkeeping.
func applyEffect(w *State, ev *event.Event) error {
	ts := ev.Timestamp
	switch p := ev.Payload.(type) {
	case *event.DocumentCreated, *event.DocumentImported, *event.NodesJoined, *event.NodeSplit:
		// Log-only kinds carry no tree effect.
		return nil
	case *event.DocumentUpdated:
		return applyDocumentUpdated(w, p, ts)
	case *event.NodeCreated:
		return insertNode(w, p.Node, p.ParentID, p.Index, ts)
	case *event.NodeDeleted:
		_, err := removeNode(w, p.NodeID, ts)
		return err
	case *event.NodeMoved:
		return applyNodeMoved(w, p, ts)
	case *event.TextChanged:
		return setTextContent(w, p.NodeID, p.New, ts)
	case *event.ContentReplaced:
		return setTextContent(w, p.NodeID, p.New, ts)
	case *event.PassageCreated:
		return insertNode(w, p.Node, p.ParentID, p.Index, ts)
	case *event.QuoteCreated:
		return insertNode(w, p.Node, p.ParentID, p.Index, ts)
	case *event.PassageRemoved:
		return applyPassageRemoved(w, p, ts)
	case *event.PassageMetadataUpdated:
		return applyPassageMetadataUpdated(w, p, ts)
	case *event.PassageVerified:
		return applyPassageVerified(w, p, ts)
	case *event.PassageBoundaryChanged:
		return applyPassageBoundaryChanged(w, p, ts)
	case *event.InterjectionAdded:
		return applyInterjectionAdded(w, p, ts)
	case *event.InterjectionRemoved:
		return applyInterjectionRemoved(w, p, ts)
	case *event.ParagraphMerged:
		return applyParagraphMerged(w, p, ts)
	case *event.ParagraphSplit:
		return applyParagraphSplit(w, p, ts)
	case *event.Batch:
		for i, member := range p.Events {
			if err := applyEffect(w, member); err != nil {
				return fmt.Errorf("batch member %d (%s): %w", i, member.Kind, err)
			}
		}
		return nil
	case *event.Undo:
		for _, inv := range p.Inverse {
			if err := applyEffect(w, inv); err != nil {
				return fmt.Errorf("%w: undoing %s: %v", ErrInternal, p.TargetEventID, err)
			}
		}
		return nil
	case *event.Redo:
		for _, re := range p.Events {
			if err := applyEffect(w, re); err != nil {
				return fmt.Errorf("%w: redoing via %s: %v", ErrInternal, p.UndoEventID, err)
			}
		}
		return nil
	case nil:
		return fmt.Errorf("%w: event %s has no payload", ErrInternal, ev.ID)
	default:
		return fmt.Errorf("%w: unhandled payload %T", ErrInternal, ev.Payload)
	}
}

// climbReplace installs replacement as the new snapshot of node id, then
// rebuilds the ancestor chain up to the root by path copying. Ancestors
// keep their revision counters; only directly mutated nodes are Touched
// by their handlers.
func climbReplace(w *State, id string, replacement ast.Node) error {
	e, ok := w.NodeIndex[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	w.NodeIndex[id] = &Entry{Node: replacement, ParentID: e.ParentID, Path: e.Path}

	child, childID := replacement, id
	for i := len(e.Path) - 1; i >= 0; i-- {
		ancID := e.Path[i]
		ae, ok := w.NodeIndex[ancID]
		if !ok {
			return fmt.Errorf("%w: ancestor %s missing from index", ErrInconsistent, ancID)
		}
		idx := ast.ChildIndex(ae.Node, childID)
		if idx < 0 {
			return fmt.Errorf("%w: %s not under recorded parent %s", ErrInconsistent, childID, ancID)
		}
		cl := ae.Node.Clone()
		switch v := cl.(type) {
		case *ast.Document:
			v.Kids[idx] = child
		case *ast.Paragraph:
			v.Kids[idx] = child
		case *ast.Passage:
			v.Kids[idx] = child
		default:
			return fmt.Errorf("%w: leaf %s recorded as ancestor", ErrInconsistent, ancID)
		}
		w.NodeIndex[ancID] = &Entry{Node: cl, ParentID: ae.ParentID, Path: ae.Path}
		child, childID = cl, ancID
	}

	doc, ok := child.(*ast.Document)
	if !ok {
		return fmt.Errorf("%w: tree root is %s, want document", ErrInconsistent, child.Kind())
	}
	w.Root = doc
	return nil
}

// touchedWithKids clones n with a bumped revision and the given child list.
func touchedWithKids(n ast.Node, kids []ast.Node, ts time.Time) (ast.Node, error) {
	return ast.WithChildren(ast.Touched(n, ts), kids)
}

// insertNode splices subtree n under parentID at index and indexes it.
func insertNode(w *State, n ast.Node, parentID string, index int, ts time.Time) error {
	if n == nil {
		return fmt.Errorf("%w: nil node in insert", ErrInternal)
	}
	pe, ok := w.NodeIndex[parentID]
	if !ok {
		return fmt.Errorf("%w: parent %s", ErrNodeNotFound, parentID)
	}
	parent := pe.Node
	if !ast.IsContainer(parent) {
		return fmt.Errorf("%w: %s node %s cannot carry children", ErrInvalidChild, parent.Kind(), parentID)
	}
	if !ast.ValidChild(parent.Kind(), n.Kind()) {
		return fmt.Errorf("%w: %s under %s", ErrInvalidChild, n.Kind(), parent.Kind())
	}
	kids := ast.ChildrenOf(parent)
	if index < 0 || index > len(kids) {
		return fmt.Errorf("%w: index %d in parent with %d children", ErrIndexOutOfRange, index, len(kids))
	}
	var dup error
	ast.Walk(n, func(v ast.Node) bool {
		if _, exists := w.NodeIndex[v.ID()]; exists {
			dup = fmt.Errorf("%w: %s", ErrDuplicateNode, v.ID())
			return false
		}
		return true
	})
	if dup != nil {
		return dup
	}

	next := make([]ast.Node, 0, len(kids)+1)
	next = append(next, kids[:index]...)
	next = append(next, n)
	next = append(next, kids[index:]...)
	touched, err := touchedWithKids(parent, next, ts)
	if err != nil {
		return err
	}
	if err := climbReplace(w, parentID, touched); err != nil {
		return err
	}
	path := append(append([]string(nil), pe.Path...), parentID)
	indexSubtree(w.NodeIndex, n, parentID, path)
	if containsPassage(n) {
		rebuildPassageViews(w)
	}
	return nil
}

// removeNode detaches the subtree rooted at nodeID and unindexes it. The
// node's actual position comes from the live tree, not the event payload.
func removeNode(w *State, nodeID string, ts time.Time) (ast.Node, error) {
	e, ok := w.NodeIndex[nodeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	if e.ParentID == "" {
		return nil, fmt.Errorf("%w: %s", ErrRootImmovable, nodeID)
	}
	pe, ok := w.NodeIndex[e.ParentID]
	if !ok {
		return nil, fmt.Errorf("%w: parent %s missing from index", ErrInconsistent, e.ParentID)
	}
	parent := pe.Node
	idx := ast.ChildIndex(parent, nodeID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s not under recorded parent %s", ErrInconsistent, nodeID, e.ParentID)
	}
	kids := ast.ChildrenOf(parent)
	next := make([]ast.Node, 0, len(kids)-1)
	next = append(next, kids[:idx]...)
	next = append(next, kids[idx+1:]...)
	touched, err := touchedWithKids(parent, next, ts)
	if err != nil {
		return nil, err
	}
	if err := climbReplace(w, e.ParentID, touched); err != nil {
		return nil, err
	}
	removed := e.Node
	unindexSubtree(w.NodeIndex, removed)
	if containsPassage(removed) {
		rebuildPassageViews(w)
	}
	return removed, nil
}

// setTextContent replaces a text leaf's content wholesale.
func setTextContent(w *State, nodeID, content string, ts time.Time) error {
	e, ok := w.NodeIndex[nodeID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	t, ok := e.Node.(*ast.Text)
	if !ok {
		return fmt.Errorf("%w: %s is %s, want text", ErrWrongKind, nodeID, e.Node.Kind())
	}
	next := ast.Touched(t, ts).(*ast.Text)
	next.Content = content
	return climbReplace(w, nodeID, next)
}

func applyDocumentUpdated(w *State, p *event.DocumentUpdated, ts time.Time) error {
	root := ast.Touched(w.Root, ts).(*ast.Document)
	root.Title = p.New.Title
	root.BiblePassage = p.New.BiblePassage
	root.Speaker = p.New.Speaker
	root.Tags = append([]string(nil), p.New.Tags...)
	if err := climbReplace(w, root.NodeID, root); err != nil {
		return err
	}
	w.Summary = buildSummary(w.Root, w.NodeIndex, w.PassageIndex)
	return nil
}

func applyNodeMoved(w *State, p *event.NodeMoved, ts time.Time) error {
	e, ok := w.NodeIndex[p.NodeID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, p.NodeID)
	}
	if e.ParentID == "" {
		return fmt.Errorf("%w: %s", ErrRootImmovable, p.NodeID)
	}
	te, ok := w.NodeIndex[p.ToParentID]
	if !ok {
		return fmt.Errorf("%w: destination parent %s", ErrNodeNotFound, p.ToParentID)
	}
	if p.ToParentID == p.NodeID {
		return fmt.Errorf("%w: cannot move %s into its own subtree", ErrInvalidChild, p.NodeID)
	}
	for _, anc := range te.Path {
		if anc == p.NodeID {
			return fmt.Errorf("%w: cannot move %s into its own subtree", ErrInvalidChild, p.NodeID)
		}
	}
	if !ast.ValidChild(te.Node.Kind(), e.Node.Kind()) {
		return fmt.Errorf("%w: %s under %s", ErrInvalidChild, e.Node.Kind(), te.Node.Kind())
	}

	moved, err := removeNode(w, p.NodeID, ts)
	if err != nil {
		return err
	}
	// ToIndex is interpreted after removal; the destination snapshot may
	// have been rebuilt by it, so insertNode re-resolves the parent.
	return insertNode(w, moved, p.ToParentID, p.ToIndex, ts)
}

func applyPassageRemoved(w *State, p *event.PassageRemoved, ts time.Time) error {
	e, ok := w.NodeIndex[p.PassageID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, p.PassageID)
	}
	if _, ok := e.Node.(*ast.Passage); !ok {
		return fmt.Errorf("%w: %s is %s, want passage", ErrWrongKind, p.PassageID, e.Node.Kind())
	}
	pe, ok := w.NodeIndex[e.ParentID]
	if !ok {
		return fmt.Errorf("%w: parent %s missing from index", ErrInconsistent, e.ParentID)
	}
	parent := pe.Node
	idx := ast.ChildIndex(parent, p.PassageID)
	if idx < 0 {
		return fmt.Errorf("%w: %s not under recorded parent %s", ErrInconsistent, p.PassageID, e.ParentID)
	}
	for _, r := range p.Replacements {
		if !ast.ValidChild(parent.Kind(), r.Kind()) {
			return fmt.Errorf("%w: %s under %s", ErrInvalidChild, r.Kind(), parent.Kind())
		}
	}

	removed := e.Node
	unindexSubtree(w.NodeIndex, removed)
	var dup error
	for _, r := range p.Replacements {
		ast.Walk(r, func(v ast.Node) bool {
			if _, exists := w.NodeIndex[v.ID()]; exists {
				dup = fmt.Errorf("%w: %s", ErrDuplicateNode, v.ID())
				return false
			}
			return true
		})
		if dup != nil {
			return dup
		}
	}

	kids := ast.ChildrenOf(parent)
	next := make([]ast.Node, 0, len(kids)-1+len(p.Replacements))
	next = append(next, kids[:idx]...)
	next = append(next, p.Replacements...)
	next = append(next, kids[idx+1:]...)
	touched, err := touchedWithKids(parent, next, ts)
	if err != nil {
		return err
	}
	if err := climbReplace(w, e.ParentID, touched); err != nil {
		return err
	}
	path := append(append([]string(nil), pe.Path...), e.ParentID)
	for _, r := range p.Replacements {
		indexSubtree(w.NodeIndex, r, e.ParentID, path)
	}
	rebuildPassageViews(w)
	return nil
}

// lookupPassage resolves id to a passage node or fails with the
// appropriate sentinel.
func lookupPassage(w *State, id string) (*Entry, *ast.Passage, error) {
	e, ok := w.NodeIndex[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	p, ok := e.Node.(*ast.Passage)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s is %s, want passage", ErrWrongKind, id, e.Node.Kind())
	}
	return e, p, nil
}

func applyPassageMetadataUpdated(w *State, p *event.PassageMetadataUpdated, ts time.Time) error {
	_, pass, err := lookupPassage(w, p.PassageID)
	if err != nil {
		return err
	}
	next := ast.Touched(pass, ts).(*ast.Passage)
	next.Data = p.New.Clone()
	if err := climbReplace(w, p.PassageID, next); err != nil {
		return err
	}
	// The reference key may have changed.
	rebuildPassageViews(w)
	return nil
}

func applyPassageVerified(w *State, p *event.PassageVerified, ts time.Time) error {
	_, pass, err := lookupPassage(w, p.PassageID)
	if err != nil {
		return err
	}
	next := ast.Touched(pass, ts).(*ast.Passage)
	next.Data.Verified = p.Verified
	return climbReplace(w, p.PassageID, next)
}

func applyPassageBoundaryChanged(w *State, p *event.PassageBoundaryChanged, ts time.Time) error {
	_, pass, err := lookupPassage(w, p.PassageID)
	if err != nil {
		return err
	}
	next := ast.Touched(pass, ts).(*ast.Passage)
	next.Data.StartChar = copyIntPtr(p.NewStart)
	next.Data.EndChar = copyIntPtr(p.NewEnd)
	return climbReplace(w, p.PassageID, next)
}

func applyInterjectionAdded(w *State, p *event.InterjectionAdded, ts time.Time) error {
	e, pass, err := lookupPassage(w, p.PassageID)
	if err != nil {
		return err
	}
	inj, ok := p.Node.(*ast.Interjection)
	if !ok {
		return fmt.Errorf("%w: interjection payload holds %s", ErrWrongKind, p.Node.Kind())
	}
	if _, exists := w.NodeIndex[inj.NodeID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, inj.NodeID)
	}
	if p.ChildIndex < 0 || p.ChildIndex > len(pass.Kids) {
		return fmt.Errorf("%w: index %d in passage with %d children", ErrIndexOutOfRange, p.ChildIndex, len(pass.Kids))
	}

	next := ast.Touched(pass, ts).(*ast.Passage)
	kids := make([]ast.Node, 0, len(next.Kids)+1)
	kids = append(kids, next.Kids[:p.ChildIndex]...)
	kids = append(kids, inj)
	kids = append(kids, next.Kids[p.ChildIndex:]...)
	next.Kids = kids
	next.Data.Interjections = append(next.Data.Interjections, p.Descriptor)

	if err := climbReplace(w, p.PassageID, next); err != nil {
		return err
	}
	path := append(append([]string(nil), e.Path...), p.PassageID)
	indexSubtree(w.NodeIndex, inj, p.PassageID, path)
	return nil
}

func applyInterjectionRemoved(w *State, p *event.InterjectionRemoved, ts time.Time) error {
	_, pass, err := lookupPassage(w, p.PassageID)
	if err != nil {
		return err
	}
	// The id names the interjection descriptor; the node is located by its
	// descriptor reference, not by the payload's recorded position.
	idx := -1
	for i, c := range pass.Kids {
		if inj, ok := c.(*ast.Interjection); ok && inj.RefID == p.InterjectionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: interjection %s not under passage %s", ErrNodeNotFound, p.InterjectionID, p.PassageID)
	}
	removed := pass.Kids[idx]

	next := ast.Touched(pass, ts).(*ast.Passage)
	kids := make([]ast.Node, 0, len(next.Kids)-1)
	kids = append(kids, next.Kids[:idx]...)
	kids = append(kids, next.Kids[idx+1:]...)
	next.Kids = kids
	descs := make([]ast.InterjectionRef, 0, len(next.Data.Interjections))
	for _, d := range next.Data.Interjections {
		if d.ID != p.InterjectionID {
			descs = append(descs, d)
		}
	}
	next.Data.Interjections = descs

	if err := climbReplace(w, p.PassageID, next); err != nil {
		return err
	}
	unindexSubtree(w.NodeIndex, removed)
	return nil
}

func applyParagraphMerged(w *State, p *event.ParagraphMerged, ts time.Time) error {
	fe, ok := w.NodeIndex[p.FirstID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, p.FirstID)
	}
	se, ok := w.NodeIndex[p.SecondID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, p.SecondID)
	}
	first, ok := fe.Node.(*ast.Paragraph)
	if !ok {
		return fmt.Errorf("%w: %s is %s, want paragraph", ErrWrongKind, p.FirstID, fe.Node.Kind())
	}
	second, ok := se.Node.(*ast.Paragraph)
	if !ok {
		return fmt.Errorf("%w: %s is %s, want paragraph", ErrWrongKind, p.SecondID, se.Node.Kind())
	}
	if fe.ParentID != se.ParentID {
		return fmt.Errorf("%w: paragraphs %s and %s have different parents", ErrInvalidChild, p.FirstID, p.SecondID)
	}
	pe, ok := w.NodeIndex[fe.ParentID]
	if !ok {
		return fmt.Errorf("%w: parent %s missing from index", ErrInconsistent, fe.ParentID)
	}
	parent := pe.Node
	if ast.ChildIndex(parent, p.FirstID) < 0 || ast.ChildIndex(parent, p.SecondID) < 0 {
		return fmt.Errorf("%w: merge paragraphs not under recorded parent %s", ErrInconsistent, fe.ParentID)
	}

	merged := ast.Touched(first, ts).(*ast.Paragraph)
	merged.Kids = append(merged.Kids, second.Kids...)

	kids := ast.ChildrenOf(parent)
	next := make([]ast.Node, 0, len(kids)-1)
	for _, c := range kids {
		switch c.ID() {
		case p.FirstID:
			next = append(next, merged)
		case p.SecondID:
			// Absorbed into first.
		default:
			next = append(next, c)
		}
	}
	touched, err := touchedWithKids(parent, next, ts)
	if err != nil {
		return err
	}
	if err := climbReplace(w, fe.ParentID, touched); err != nil {
		return err
	}
	// Adopted children change paths; rebuild everything derived.
	rebuildDerived(w)
	return nil
}

func applyParagraphSplit(w *State, p *event.ParagraphSplit, ts time.Time) error {
	e, ok := w.NodeIndex[p.ParagraphID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, p.ParagraphID)
	}
	para, ok := e.Node.(*ast.Paragraph)
	if !ok {
		return fmt.Errorf("%w: %s is %s, want paragraph", ErrWrongKind, p.ParagraphID, e.Node.Kind())
	}
	if p.ChildIndex < 0 || p.ChildIndex > len(para.Kids) {
		return fmt.Errorf("%w: split index %d in paragraph with %d children", ErrIndexOutOfRange, p.ChildIndex, len(para.Kids))
	}
	if _, exists := w.NodeIndex[p.NewParagraphID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, p.NewParagraphID)
	}
	pe, ok := w.NodeIndex[e.ParentID]
	if !ok {
		return fmt.Errorf("%w: parent %s missing from index", ErrInconsistent, e.ParentID)
	}
	parent := pe.Node
	idx := ast.ChildIndex(parent, p.ParagraphID)
	if idx < 0 {
		return fmt.Errorf("%w: %s not under recorded parent %s", ErrInconsistent, p.ParagraphID, e.ParentID)
	}

	reduced := ast.Touched(para, ts).(*ast.Paragraph)
	reduced.Kids = append([]ast.Node(nil), para.Kids[:p.ChildIndex]...)
	fresh := &ast.Paragraph{
		NodeID:       p.NewParagraphID,
		Rev:          1,
		Modified:     ts,
		HeadingLevel: para.HeadingLevel,
		ListStyle:    para.ListStyle,
		ListNumber:   para.ListNumber,
		ListDepth:    para.ListDepth,
		Alignment:    para.Alignment,
		BlockQuote:   para.BlockQuote,
		Kids:         append([]ast.Node(nil), para.Kids[p.ChildIndex:]...),
	}

	kids := ast.ChildrenOf(parent)
	next := make([]ast.Node, 0, len(kids)+1)
	next = append(next, kids[:idx]...)
	next = append(next, reduced, fresh)
	next = append(next, kids[idx+1:]...)
	touched, err := touchedWithKids(parent, next, ts)
	if err != nil {
		return err
	}
	if err := climbReplace(w, e.ParentID, touched); err != nil {
		return err
	}
	rebuildDerived(w)
	return nil
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
