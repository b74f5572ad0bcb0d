// ABOUTME: Read-side query engine over one immutable document state
// ABOUTME: Lookups ride the indices; search walks text in document order

package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Blakthorne/whispersermons-sub001/pkg/ast"
	"github.com/Blakthorne/whispersermons-sub001/pkg/state"
)

// ErrNotFound reports a query against a node id the state does not hold.
var ErrNotFound = errors.New("query: node not found")

// Term weights. Heading text outranks passage text outranks body text,
// so a hit in a sermon's section title surfaces first.
const (
	weightHeading = 3.0
	weightPassage = 2.0
	weightBody    = 1.0
)

const defaultSearchLimit = 100

// Engine answers read-side queries against a single immutable state
// snapshot. It holds no locks and performs no mutation; rebind it when a
// newer state is available.
type Engine struct {
	s *state.State
}

// NewEngine creates an engine over the given state.
func NewEngine(s *state.State) *Engine {
	return &Engine{s: s}
}

// Node returns the current snapshot of a node.
func (e *Engine) Node(id string) (ast.Node, bool) {
	return e.s.Node(id)
}

// Children returns a node's ordered children.
func (e *Engine) Children(id string) ([]ast.Node, error) {
	entry, ok := e.s.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return ast.ChildrenOf(entry.Node), nil
}

// Ancestors returns a node's ancestor chain, root first, excluding the
// node itself.
func (e *Engine) Ancestors(id string) ([]ast.Node, error) {
	entry, ok := e.s.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	out := make([]ast.Node, 0, len(entry.Path))
	for _, aid := range entry.Path {
		ae, ok := e.s.Lookup(aid)
		if !ok {
			return nil, fmt.Errorf("%w: ancestor %s of %s", ErrNotFound, aid, id)
		}
		out = append(out, ae.Node)
	}
	return out, nil
}

// PassagesByBook returns the passages quoting the given book, in
// document order.
func (e *Engine) PassagesByBook(book string) []*ast.Passage {
	return e.resolvePassages(e.s.PassageIndex.ByBook[book])
}

// PassageByReference returns the passages matching a normalized
// reference such as "Romans 8:28-30", in document order.
func (e *Engine) PassageByReference(ref string) []*ast.Passage {
	return e.resolvePassages(e.s.PassageIndex.ByReference[ref])
}

// AllPassages returns every passage in the document, in document order.
func (e *Engine) AllPassages() []*ast.Passage {
	return e.resolvePassages(e.s.PassageIndex.All)
}

func (e *Engine) resolvePassages(ids []string) []*ast.Passage {
	if len(ids) == 0 {
		return nil
	}
	out := make([]*ast.Passage, 0, len(ids))
	for _, id := range ids {
		if n, ok := e.s.Node(id); ok {
			if p, ok := n.(*ast.Passage); ok {
				out = append(out, p)
			}
		}
	}
	return out
}

// Search scores text and interjection runs against the query terms and
// returns the best matches, highest score first, document order breaking
// ties. A zero limit means the default of 100.
func (e *Engine) Search(query string, limit int) []SearchResult {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	var results []SearchResult
	for _, para := range e.s.Root.Kids {
		p, ok := para.(*ast.Paragraph)
		if !ok {
			continue
		}
		base := weightBody
		if p.HeadingLevel > 0 {
			base = weightHeading
		}
		for _, kid := range p.Kids {
			switch n := kid.(type) {
			case *ast.Text:
				e.scoreRun(&results, n.NodeID, p.NodeID, ast.KindText, n.Content, terms, base)
			case *ast.Passage:
				for _, pk := range n.Kids {
					switch leaf := pk.(type) {
					case *ast.Text:
						e.scoreRun(&results, leaf.NodeID, p.NodeID, ast.KindText, leaf.Content, terms, weightPassage)
					case *ast.Interjection:
						e.scoreRun(&results, leaf.NodeID, p.NodeID, ast.KindInterjection, leaf.Text, terms, weightPassage)
					}
				}
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func (e *Engine) scoreRun(results *[]SearchResult, nodeID, paragraphID string, kind ast.Kind, content string, terms []string, weight float64) {
	lowered := strings.ToLower(content)
	score := 0.0
	first := -1
	for _, term := range terms {
		n := strings.Count(lowered, term)
		if n == 0 {
			continue
		}
		score += float64(n) * weight
		if idx := strings.Index(lowered, term); first < 0 || idx < first {
			first = idx
		}
	}
	if score == 0 {
		return
	}
	*results = append(*results, SearchResult{
		NodeID:      nodeID,
		ParagraphID: paragraphID,
		Kind:        kind,
		Snippet:     snippet(content, runeIndex(lowered, first)),
		Score:       score,
	})
}

// runeIndex converts a byte offset into a rune offset.
func runeIndex(s string, byteAt int) int {
	if byteAt <= 0 {
		return 0
	}
	if byteAt > len(s) {
		byteAt = len(s)
	}
	return len([]rune(s[:byteAt]))
}

// snippet trims content to a window around the first match.
func snippet(content string, at int) string {
	const radius = 60
	runes := []rune(content)
	if at < 0 || at > len(runes) {
		at = 0
	}
	start := at - radius/2
	if start < 0 {
		start = 0
	}
	end := start + radius
	if end > len(runes) {
		end = len(runes)
	}
	out := strings.TrimSpace(string(runes[start:end]))
	if start > 0 {
		out = "..." + out
	}
	if end < len(runes) {
		out += "..."
	}
	return out
}

// Stats summarizes the state: node counts by kind, passage totals, word
// count, log length, and version.
func (e *Engine) Stats() Stats {
	st := Stats{
		Version:        e.s.Version,
		Nodes:          make(map[ast.Kind]int),
		EventLogLength: len(e.s.EventLog),
	}
	ast.Walk(e.s.Root, func(n ast.Node) bool {
		st.Nodes[n.Kind()]++
		if p, ok := n.(*ast.Passage); ok {
			st.Passages++
			if p.Data.Verified {
				st.VerifiedPassages++
			}
		}
		return true
	})
	st.Words = len(strings.Fields(ast.FlattenText(e.s.Root)))
	return st
}
