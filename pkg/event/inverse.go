// ABOUTME: Inverse-event synthesis for undo
// ABOUTME: Forward events capture enough prior context to be reversed, with two documented gaps

package event

import "unicode/utf8"

// GenerateInverse computes the events that reverse ev, in application
// order. The result is empty for kinds with nothing to reverse (log-only
// and undo/redo meta-events) and for the two kinds whose forward events do
// not retain enough prior context: passage_created/quote_created (the
// pre-wrap nodes are gone) and paragraph_merged (the merge boundary is
// gone). Callers treat an empty inverse as a recorded no-op undo, not an
// error.
//
// Synthesized events are effect carriers inside an undo: they are stamped
// with the system origin and currentVersion but are never logged
// individually.
func (f *Factory) GenerateInverse(ev *Event, currentVersion int) []*Event {
	inv := newInverseFactory(f, currentVersion)
	return inv.invert(ev)
}

type inverseFactory struct {
	f       *Factory
	version int
}

func newInverseFactory(f *Factory, version int) *inverseFactory {
	sys := &Factory{origin: OriginSystem, now: f.now}
	return &inverseFactory{f: sys, version: version}
}

func (g *inverseFactory) invert(ev *Event) []*Event {
	switch p := ev.Payload.(type) {
	case *DocumentUpdated:
		return []*Event{g.f.DocumentUpdated(g.version, p.New, p.Previous)}

	case *NodeCreated:
		return []*Event{g.f.NodeDeleted(g.version, p.Node, p.ParentID, p.Index)}

	case *NodeDeleted:
		return []*Event{g.f.NodeCreated(g.version, p.Node, p.ParentID, p.Index)}

	case *NodeMoved:
		return []*Event{g.f.NodeMoved(g.version, p.NodeID,
			p.ToParentID, p.ToIndex, p.FromParentID, p.FromIndex)}

	case *TextChanged:
		removed := spliceRemoved(p.Previous, p.Offset, p.DeleteCount)
		return []*Event{g.f.TextChanged(g.version, p.NodeID,
			p.Offset, utf8.RuneCountInString(p.Inserted), removed, p.New, p.Previous)}

	case *ContentReplaced:
		return []*Event{g.f.ContentReplaced(g.version, p.NodeID, p.New, p.Previous)}

	case *PassageRemoved:
		// Delete the replacement nodes, then restore the captured passage
		// at its old position.
		out := make([]*Event, 0, len(p.Replacements)+1)
		for i, repl := range p.Replacements {
			out = append(out, g.f.NodeDeleted(g.version, repl, p.ParentID, p.Index+i))
		}
		out = append(out, g.f.PassageCreated(g.version, p.Node, p.ParentID, p.Index))
		return out

	case *PassageMetadataUpdated:
		return []*Event{g.f.PassageMetadataUpdated(g.version, p.PassageID, p.New, p.Previous)}

	case *PassageVerified:
		return []*Event{g.f.PassageVerified(g.version, p.PassageID, p.Previous, p.Verified)}

	case *PassageBoundaryChanged:
		return []*Event{g.f.PassageBoundaryChanged(g.version, p.PassageID,
			p.NewStart, p.NewEnd, p.PrevStart, p.PrevEnd)}

	case *InterjectionAdded:
		return []*Event{g.f.InterjectionRemoved(g.version, p.PassageID, p.Descriptor, p.Node, p.ChildIndex)}

	case *InterjectionRemoved:
		return []*Event{g.f.InterjectionAdded(g.version, p.PassageID, p.Descriptor, p.Node, p.ChildIndex)}

	case *ParagraphSplit:
		return []*Event{g.f.ParagraphMerged(g.version, p.ParagraphID, p.NewParagraphID, nil, 0)}

	case *Batch:
		var out []*Event
		for i := len(p.Events) - 1; i >= 0; i-- {
			out = append(out, g.invert(p.Events[i])...)
		}
		return out

	default:
		// PassageCreated, QuoteCreated, ParagraphMerged: known gaps.
		// DocumentCreated, DocumentImported, NodesJoined, NodeSplit,
		// Undo, Redo: nothing to reverse.
		return nil
	}
}

// spliceRemoved returns the rune span [offset, offset+count) of s.
func spliceRemoved(s string, offset, count int) string {
	if count <= 0 {
		return ""
	}
	runes := []rune(s)
	if offset < 0 {
		offset = 0
	}
	if offset > len(runes) {
		offset = len(runes)
	}
	end := offset + count
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[offset:end])
}
