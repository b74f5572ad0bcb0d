// ABOUTME: Derived index maintenance: node index, passage index, summary
// ABOUTME: Incremental updates for local edits, full rebuilds for unclear blast radius

package state

import (
	"fmt"

	"github.com/Blakthorne/whispersermons-sub001/pkg/ast"
)

// buildNodeIndex walks the tree and produces one entry per reachable node.
func buildNodeIndex(root ast.Node) map[string]*Entry {
	idx := make(map[string]*Entry)
	indexSubtree(idx, root, "", nil)
	return idx
}

// indexSubtree adds entries for n and its descendants. path is the
// ancestor chain of n, root first; it is copied per node, never shared
// with the caller's slice.
func indexSubtree(idx map[string]*Entry, n ast.Node, parentID string, path []string) {
	own := make([]string, len(path))
	copy(own, path)
	idx[n.ID()] = &Entry{Node: n, ParentID: parentID, Path: own}

	childPath := make([]string, len(path)+1)
	copy(childPath, path)
	childPath[len(path)] = n.ID()
	for _, c := range ast.ChildrenOf(n) {
		indexSubtree(idx, c, n.ID(), childPath)
	}
}

// unindexSubtree removes the entries for n and its descendants.
func unindexSubtree(idx map[string]*Entry, n ast.Node) {
	ast.Walk(n, func(v ast.Node) bool {
		delete(idx, v.ID())
		return true
	})
}

// buildPassageIndex collects passage ids in document order into the three
// views. Bucket keys: the normalized reference display string and the book
// name.
func buildPassageIndex(root ast.Node) *PassageIndex {
	pi := &PassageIndex{
		ByReference: make(map[string][]string),
		ByBook:      make(map[string][]string),
	}
	ast.Walk(root, func(v ast.Node) bool {
		p, ok := v.(*ast.Passage)
		if !ok {
			return true
		}
		pi.All = append(pi.All, p.NodeID)
		ref := p.Data.Reference.Display()
		pi.ByReference[ref] = append(pi.ByReference[ref], p.NodeID)
		pi.ByBook[p.Data.Reference.Book] = append(pi.ByBook[p.Data.Reference.Book], p.NodeID)
		return true
	})
	return pi
}

// buildSummary derives the shallow view from the passage index and root.
func buildSummary(root *ast.Document, idx map[string]*Entry, pi *PassageIndex) Summary {
	var refs []string
	seen := make(map[string]bool)
	for _, id := range pi.All {
		e, ok := idx[id]
		if !ok {
			continue
		}
		p, ok := e.Node.(*ast.Passage)
		if !ok {
			continue
		}
		ref := p.Data.Reference.Display()
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	return Summary{
		References: refs,
		Tags:       append([]string(nil), root.Tags...),
	}
}

// rebuildDerived recomputes every derived structure from the tree. Used
// after operations whose blast radius is unclear, and on snapshot load.
func rebuildDerived(w *State) {
	w.NodeIndex = buildNodeIndex(w.Root)
	w.PassageIndex = buildPassageIndex(w.Root)
	w.Summary = buildSummary(w.Root, w.NodeIndex, w.PassageIndex)
}

// rebuildPassageViews recomputes the passage index and summary only; the
// node index has already been maintained incrementally.
func rebuildPassageViews(w *State) {
	w.PassageIndex = buildPassageIndex(w.Root)
	w.Summary = buildSummary(w.Root, w.NodeIndex, w.PassageIndex)
}

// containsPassage reports whether n's subtree holds a passage node.
func containsPassage(n ast.Node) bool {
	found := false
	ast.Walk(n, func(v ast.Node) bool {
		if ast.IsPassage(v) {
			found = true
			return false
		}
		return true
	})
	return found
}

// CheckConsistency verifies that the derived structures agree with the
// tree: every reachable node has exactly one index entry with the correct
// parent and path, no entry is stale, and every passage appears once in
// each passage-index view. Violations are defects.
func CheckConsistency(s *State) error {
	if s.Root == nil {
		return fmt.Errorf("%w: nil root", ErrInconsistent)
	}

	reachable := make(map[string]bool)
	var walk func(n ast.Node, parentID string, path []string) error
	walk = func(n ast.Node, parentID string, path []string) error {
		id := n.ID()
		if reachable[id] {
			return fmt.Errorf("%w: node %s appears twice in tree", ErrInconsistent, id)
		}
		reachable[id] = true

		e, ok := s.NodeIndex[id]
		if !ok {
			return fmt.Errorf("%w: node %s missing from index", ErrInconsistent, id)
		}
		if e.Node != n {
			return fmt.Errorf("%w: stale index snapshot for node %s", ErrInconsistent, id)
		}
		if e.ParentID != parentID {
			return fmt.Errorf("%w: node %s parent %q, index says %q", ErrInconsistent, id, parentID, e.ParentID)
		}
		if len(e.Path) != len(path) {
			return fmt.Errorf("%w: node %s path length %d, index says %d", ErrInconsistent, id, len(path), len(e.Path))
		}
		for i := range path {
			if e.Path[i] != path[i] {
				return fmt.Errorf("%w: node %s path mismatch at %d", ErrInconsistent, id, i)
			}
		}

		childPath := append(append([]string(nil), path...), id)
		for _, c := range ast.ChildrenOf(n) {
			if !ast.ValidChild(n.Kind(), c.Kind()) {
				return fmt.Errorf("%w: %s child under %s node %s", ErrInconsistent, c.Kind(), n.Kind(), id)
			}
			if err := walk(c, id, childPath); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(s.Root, "", nil); err != nil {
		return err
	}

	for id := range s.NodeIndex {
		if !reachable[id] {
			return fmt.Errorf("%w: index entry %s not reachable from root", ErrInconsistent, id)
		}
	}

	// Passage views.
	seen := make(map[string]int)
	for _, id := range s.PassageIndex.All {
		seen[id]++
		e, ok := s.NodeIndex[id]
		if !ok {
			return fmt.Errorf("%w: passage %s not in node index", ErrInconsistent, id)
		}
		p, ok := e.Node.(*ast.Passage)
		if !ok {
			return fmt.Errorf("%w: passage index holds non-passage %s", ErrInconsistent, id)
		}
		ref := p.Data.Reference.Display()
		if !containsID(s.PassageIndex.ByReference[ref], id) {
			return fmt.Errorf("%w: passage %s missing from byReference[%q]", ErrInconsistent, id, ref)
		}
		if !containsID(s.PassageIndex.ByBook[p.Data.Reference.Book], id) {
			return fmt.Errorf("%w: passage %s missing from byBook[%q]", ErrInconsistent, id, p.Data.Reference.Book)
		}
	}
	for id, n := range seen {
		if n != 1 {
			return fmt.Errorf("%w: passage %s appears %d times in all", ErrInconsistent, id, n)
		}
	}
	passageCount := 0
	for id, e := range s.NodeIndex {
		if ast.IsPassage(e.Node) {
			passageCount++
			if seen[id] == 0 {
				return fmt.Errorf("%w: passage %s missing from all", ErrInconsistent, id)
			}
		}
	}
	if passageCount != len(s.PassageIndex.All) {
		return fmt.Errorf("%w: %d passages in tree, %d indexed", ErrInconsistent, passageCount, len(s.PassageIndex.All))
	}
	return nil
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
