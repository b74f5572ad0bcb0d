// ABOUTME: Builds the initial document tree from a parsed transcript
// ABOUTME: One paragraph per segment; close same-speaker segments can merge

package transcript

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Blakthorne/whispersermons-sub001/pkg/ast"
)

// Options controls how segments become paragraphs.
type Options struct {
	// MergeGap folds a segment into the previous paragraph when the
	// silence before it is at most this many seconds and the speaker is
	// unchanged. Zero keeps one paragraph per segment.
	MergeGap float64
}

// Parse decodes a transcript from its JSON form.
func Parse(data []byte) (*Transcript, error) {
	var tr Transcript
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &tr, nil
}

// Build constructs the initial document tree for tr. Each segment with
// content becomes one paragraph holding a single text run; segments that
// are empty after whitespace normalization are skipped. The returned tree
// is fresh and unindexed; hand it to Mutator.ImportDocument to start an
// editing session.
func Build(tr *Transcript, opts Options) (*ast.Document, error) {
	if tr == nil {
		return nil, ErrNilTranscript
	}

	doc := ast.NewDocument()
	doc.Title = tr.Title
	doc.Speaker = tr.Speaker

	var last *ast.Text
	prevEnd := 0.0
	prevSpeaker := ""
	for _, seg := range tr.Segments {
		content := strings.Join(strings.Fields(seg.Text), " ")
		if content == "" {
			continue
		}
		if last != nil && opts.MergeGap > 0 &&
			seg.Start-prevEnd <= opts.MergeGap && seg.Speaker == prevSpeaker {
			last.Content += " " + content
		} else {
			last = ast.NewText(content)
			p := ast.NewParagraph()
			p.Kids = []ast.Node{last}
			doc.Kids = append(doc.Kids, p)
		}
		prevEnd = seg.End
		prevSpeaker = seg.Speaker
	}

	if len(doc.Kids) == 0 {
		return nil, ErrEmptyTranscript
	}
	return doc, nil
}
