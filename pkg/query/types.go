// ABOUTME: Read-side query types: search results and document statistics
// ABOUTME: Results reference nodes by id; callers resolve through the state

package query

import "github.com/Blakthorne/whispersermons-sub001/pkg/ast"

// SearchResult is one scored text match.
type SearchResult struct {
	NodeID      string   `json:"nodeId"`                // matching text or interjection node
	ParagraphID string   `json:"paragraphId,omitempty"` // containing paragraph
	Kind        ast.Kind `json:"kind"`
	Snippet     string   `json:"snippet"` // match context, trimmed
	Score       float64  `json:"score"`
}

// Stats is the shallow numeric summary of a document state.
type Stats struct {
	Version          int              `json:"version"`
	Nodes            map[ast.Kind]int `json:"nodes"`
	Passages         int              `json:"passages"`
	VerifiedPassages int              `json:"verifiedPassages"`
	Words            int              `json:"words"`
	EventLogLength   int              `json:"eventLogLength"`
}
