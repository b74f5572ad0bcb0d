// ABOUTME: Text, structural, and document-metadata operations
// ABOUTME: Each validates against the current index, builds one event, commits it

package mutator

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Blakthorne/whispersermons-sub001/pkg/ast"
	"github.com/Blakthorne/whispersermons-sub001/pkg/event"
	"github.com/Blakthorne/whispersermons-sub001/pkg/state"
)

// UpdateText replaces a text node's content wholesale.
func (m *Mutator) UpdateText(nodeID, content string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.text(nodeID)
	if err != nil {
		return m.fail(err)
	}
	ev := m.factory.ContentReplaced(m.cur.Version+1, nodeID, t.Content, content)
	return m.commit(ev)
}

// InsertText inserts text at a rune offset within a text node.
func (m *Mutator) InsertText(nodeID string, offset int, text string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.splice(nodeID, offset, 0, text)
}

// DeleteText removes count runes starting at offset.
func (m *Mutator) DeleteText(nodeID string, offset, count int) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.splice(nodeID, offset, count, "")
}

func (m *Mutator) splice(nodeID string, offset, deleteCount int, insert string) Result {
	t, err := m.text(nodeID)
	if err != nil {
		return m.fail(err)
	}
	runes := []rune(t.Content)
	if offset < 0 || offset > len(runes) {
		return m.fail(fmt.Errorf("%w: offset %d in %d runes", ErrOffsetOutOfRange, offset, len(runes)))
	}
	if deleteCount < 0 || offset+deleteCount > len(runes) {
		return m.fail(fmt.Errorf("%w: delete %d at offset %d in %d runes",
			ErrOffsetOutOfRange, deleteCount, offset, len(runes)))
	}
	next := string(runes[:offset]) + insert + string(runes[offset+deleteCount:])
	ev := m.factory.TextChanged(m.cur.Version+1, nodeID, offset, deleteCount, insert, t.Content, next)
	return m.commit(ev)
}

// CreateParagraph inserts a new paragraph at index under the document
// root, seeded with a single text run.
func (m *Mutator) CreateParagraph(index int, text string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index > len(m.cur.Root.Kids) {
		return m.fail(fmt.Errorf("%w: index %d with %d paragraphs",
			ErrIndexOutOfRange, index, len(m.cur.Root.Kids)))
	}
	para := ast.NewParagraph()
	para.Kids = []ast.Node{ast.NewText(text)}
	ev := m.factory.NodeCreated(m.cur.Version+1, para, m.cur.Root.NodeID, index)
	return m.commit(ev)
}

// DeleteNode removes the subtree rooted at nodeID. The root cannot be
// deleted.
func (m *Mutator) DeleteNode(nodeID string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.entry(nodeID)
	if err != nil {
		return m.fail(err)
	}
	if e.ParentID == "" {
		return m.fail(ErrCannotDeleteRoot)
	}
	pe, ok := m.cur.Lookup(e.ParentID)
	if !ok {
		return m.fail(fmt.Errorf("%w: parent %s", ErrNodeNotFound, e.ParentID))
	}
	ev := m.factory.NodeDeleted(m.cur.Version+1, e.Node, e.ParentID, ast.ChildIndex(pe.Node, nodeID))
	return m.commit(ev)
}

// MoveNode relocates nodeID under toParentID at toIndex. The index is
// interpreted after the node leaves its old position.
func (m *Mutator) MoveNode(nodeID, toParentID string, toIndex int) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.entry(nodeID)
	if err != nil {
		return m.fail(err)
	}
	if e.ParentID == "" {
		return m.fail(fmt.Errorf("%w: %s", state.ErrRootImmovable, nodeID))
	}
	if _, err := m.entry(toParentID); err != nil {
		return m.fail(err)
	}
	pe, ok := m.cur.Lookup(e.ParentID)
	if !ok {
		return m.fail(fmt.Errorf("%w: parent %s", ErrNodeNotFound, e.ParentID))
	}
	ev := m.factory.NodeMoved(m.cur.Version+1, nodeID,
		e.ParentID, ast.ChildIndex(pe.Node, nodeID), toParentID, toIndex)
	return m.commit(ev)
}

// SplitParagraph moves the children from childIndex onward into a new
// paragraph inserted immediately after, inheriting the formatting.
func (m *Mutator) SplitParagraph(paragraphID string, childIndex int) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, para, err := m.paragraph(paragraphID)
	if err != nil {
		return m.fail(err)
	}
	if childIndex < 0 || childIndex > len(para.Kids) {
		return m.fail(fmt.Errorf("%w: split at %d with %d children",
			ErrIndexOutOfRange, childIndex, len(para.Kids)))
	}
	ev := m.factory.ParagraphSplit(m.cur.Version+1, paragraphID, childIndex, uuid.NewString())
	return m.commit(ev)
}

// MergeParagraphs appends the second paragraph's children to the first
// and removes the second. The paragraphs must be adjacent siblings. The
// merge has no inverse: undoing it is a recorded no-op.
func (m *Mutator) MergeParagraphs(firstID, secondID string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	fe, _, err := m.paragraph(firstID)
	if err != nil {
		return m.fail(err)
	}
	se, second, err := m.paragraph(secondID)
	if err != nil {
		return m.fail(err)
	}
	if fe.ParentID != se.ParentID {
		return m.fail(fmt.Errorf("%w: %s and %s", ErrNotAdjacent, firstID, secondID))
	}
	pe, ok := m.cur.Lookup(fe.ParentID)
	if !ok {
		return m.fail(fmt.Errorf("%w: parent %s", ErrNodeNotFound, fe.ParentID))
	}
	if ast.ChildIndex(pe.Node, secondID) != ast.ChildIndex(pe.Node, firstID)+1 {
		return m.fail(fmt.Errorf("%w: %s and %s", ErrNotAdjacent, firstID, secondID))
	}
	ev := m.factory.ParagraphMerged(m.cur.Version+1, firstID, secondID, second, len(second.Kids))
	return m.commit(ev)
}

// UpdateTitle sets the document title.
func (m *Mutator) UpdateTitle(title string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateMeta(func(meta *event.DocumentMeta) { meta.Title = title })
}

// UpdateBiblePassage sets the sermon's scripture-passage label.
func (m *Mutator) UpdateBiblePassage(ref string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateMeta(func(meta *event.DocumentMeta) { meta.BiblePassage = ref })
}

// UpdateSpeaker sets the speaker name.
func (m *Mutator) UpdateSpeaker(name string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateMeta(func(meta *event.DocumentMeta) { meta.Speaker = name })
}

// UpdateTags replaces the document tags.
func (m *Mutator) UpdateTags(tags []string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateMeta(func(meta *event.DocumentMeta) {
		meta.Tags = append([]string(nil), tags...)
	})
}

func (m *Mutator) updateMeta(change func(*event.DocumentMeta)) Result {
	prev := docMeta(m.cur.Root)
	next := docMeta(m.cur.Root)
	change(&next)
	ev := m.factory.DocumentUpdated(m.cur.Version+1, prev, next)
	return m.commit(ev)
}

func docMeta(d *ast.Document) event.DocumentMeta {
	return event.DocumentMeta{
		Title:        d.Title,
		BiblePassage: d.BiblePassage,
		Speaker:      d.Speaker,
		Tags:         append([]string(nil), d.Tags...),
	}
}
