// ABOUTME: Passage and interjection lifecycle operations
// ABOUTME: Detected passages, user quotes, metadata, verification, boundaries

package mutator

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Blakthorne/whispersermons-sub001/pkg/ast"
)

// CreatePassage splices a detected scripture passage under a paragraph.
// verseText becomes the passage's single text child; the confidence
// bucket and normalized reference are derived when unset.
func (m *Mutator) CreatePassage(parentID string, index int, data ast.PassageData, verseText string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, para, err := m.paragraph(parentID)
	if err != nil {
		return m.fail(err)
	}
	if index < 0 || index > len(para.Kids) {
		return m.fail(fmt.Errorf("%w: index %d with %d children", ErrIndexOutOfRange, index, len(para.Kids)))
	}
	normalizePassageData(&data)
	p := ast.NewPassage(data)
	p.Kids = []ast.Node{ast.NewText(verseText)}
	ev := m.factory.PassageCreated(m.cur.Version+1, p, parentID, index)
	return m.commit(ev)
}

// CreateQuote splices a user-authored quotation passage. Quotes are
// verified by construction.
func (m *Mutator) CreateQuote(parentID string, index int, data ast.PassageData, quoteText string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, para, err := m.paragraph(parentID)
	if err != nil {
		return m.fail(err)
	}
	if index < 0 || index > len(para.Kids) {
		return m.fail(fmt.Errorf("%w: index %d with %d children", ErrIndexOutOfRange, index, len(para.Kids)))
	}
	data.Verified = true
	if data.Detection.Confidence == 0 {
		data.Detection.Confidence = 1
	}
	normalizePassageData(&data)
	p := ast.NewPassage(data)
	p.Kids = []ast.Node{ast.NewText(quoteText)}
	ev := m.factory.QuoteCreated(m.cur.Version+1, p, parentID, index)
	return m.commit(ev)
}

// RemovePassage unwraps a passage. With keepText the passage's flattened
// text survives as a plain text node in its place; otherwise the slot is
// simply closed.
func (m *Mutator) RemovePassage(passageID string, keepText bool) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, pass, err := m.passage(passageID)
	if err != nil {
		return m.fail(err)
	}
	pe, ok := m.cur.Lookup(e.ParentID)
	if !ok {
		return m.fail(fmt.Errorf("%w: parent %s", ErrNodeNotFound, e.ParentID))
	}
	var repl []ast.Node
	if keepText {
		if text := ast.FlattenText(pass); text != "" {
			repl = []ast.Node{ast.NewText(text)}
		}
	}
	ev := m.factory.PassageRemoved(m.cur.Version+1, pass, e.ParentID,
		ast.ChildIndex(pe.Node, passageID), repl)
	return m.commit(ev)
}

// UpdatePassageMetadata replaces a passage's structured metadata.
func (m *Mutator) UpdatePassageMetadata(passageID string, data ast.PassageData) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, pass, err := m.passage(passageID)
	if err != nil {
		return m.fail(err)
	}
	next := data.Clone()
	normalizePassageData(&next)
	ev := m.factory.PassageMetadataUpdated(m.cur.Version+1, passageID, pass.Data.Clone(), next)
	return m.commit(ev)
}

// VerifyPassage sets or clears a passage's user-verified flag.
func (m *Mutator) VerifyPassage(passageID string, verified bool) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, pass, err := m.passage(passageID)
	if err != nil {
		return m.fail(err)
	}
	ev := m.factory.PassageVerified(m.cur.Version+1, passageID, verified, pass.Data.Verified)
	return m.commit(ev)
}

// UpdatePassageBoundary sets a passage's character span within its parent
// paragraph. Nil clears the span.
func (m *Mutator) UpdatePassageBoundary(passageID string, start, end *int) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, pass, err := m.passage(passageID)
	if err != nil {
		return m.fail(err)
	}
	if start != nil && *start < 0 {
		return m.fail(fmt.Errorf("%w: start %d", ErrOffsetOutOfRange, *start))
	}
	if start != nil && end != nil && *end < *start {
		return m.fail(fmt.Errorf("%w: span %d-%d", ErrOffsetOutOfRange, *start, *end))
	}
	ev := m.factory.PassageBoundaryChanged(m.cur.Version+1, passageID,
		pass.Data.StartChar, pass.Data.EndChar, start, end)
	return m.commit(ev)
}

// AddInterjection appends an inline aside to a passage: the interjection
// node and its metadata descriptor are created together.
func (m *Mutator) AddInterjection(passageID, text string, startOffset, endOffset int) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, pass, err := m.passage(passageID)
	if err != nil {
		return m.fail(err)
	}
	if startOffset < 0 || endOffset < startOffset {
		return m.fail(fmt.Errorf("%w: span %d-%d", ErrOffsetOutOfRange, startOffset, endOffset))
	}
	desc := ast.InterjectionRef{
		ID:          uuid.NewString(),
		Text:        text,
		StartOffset: startOffset,
		EndOffset:   endOffset,
	}
	node := ast.NewInterjection(desc.ID, text)
	ev := m.factory.InterjectionAdded(m.cur.Version+1, passageID, desc, node, len(pass.Kids))
	return m.commit(ev)
}

// RemoveInterjection removes the aside named by its descriptor id.
func (m *Mutator) RemoveInterjection(passageID, interjectionID string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, pass, err := m.passage(passageID)
	if err != nil {
		return m.fail(err)
	}
	var desc *ast.InterjectionRef
	for i := range pass.Data.Interjections {
		if pass.Data.Interjections[i].ID == interjectionID {
			desc = &pass.Data.Interjections[i]
			break
		}
	}
	if desc == nil {
		return m.fail(fmt.Errorf("%w: interjection %s in passage %s",
			ErrNodeNotFound, interjectionID, passageID))
	}
	idx := -1
	var node ast.Node
	for i, c := range pass.Kids {
		if inj, ok := c.(*ast.Interjection); ok && inj.RefID == interjectionID {
			idx, node = i, c
			break
		}
	}
	if idx < 0 {
		return m.fail(fmt.Errorf("%w: interjection node for %s in passage %s",
			ErrNodeNotFound, interjectionID, passageID))
	}
	ev := m.factory.InterjectionRemoved(m.cur.Version+1, passageID, *desc, node, idx)
	return m.commit(ev)
}

// normalizePassageData fills the derived fields callers usually omit.
func normalizePassageData(data *ast.PassageData) {
	if data.Detection.Bucket == "" {
		data.Detection.Bucket = ast.ConfidenceBucket(data.Detection.Confidence)
	}
	if data.Reference.Normalized == "" {
		data.Reference.Normalized = data.Reference.Display()
	}
}
