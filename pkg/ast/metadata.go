// ABOUTME: Passage metadata: scripture reference, detection info, interjections
// ABOUTME: Includes confidence bucketing and reference normalization

package ast

import "fmt"

// Confidence buckets derived from fixed detection thresholds.
const (
	BucketHigh   = "high"   // confidence >= 0.8
	BucketMedium = "medium" // confidence >= 0.6
	BucketLow    = "low"
)

// Reference identifies the quoted scripture.
type Reference struct {
	Book         string `json:"book"`
	Chapter      int    `json:"chapter"`
	VerseStart   int    `json:"verseStart"`
	VerseEnd     *int   `json:"verseEnd,omitempty"` // nil for a single verse
	OriginalText string `json:"originalText,omitempty"`
	Normalized   string `json:"normalized"` // display form, e.g. "Romans 8:28-30"
}

// Detection records how the passage was identified.
type Detection struct {
	Confidence              float64 `json:"confidence"`
	Bucket                  string  `json:"bucket"`
	Translation             string  `json:"translation,omitempty"`
	TranslationAutoDetected bool    `json:"translationAutoDetected,omitempty"`
	VerseText               string  `json:"verseText,omitempty"` // canonical display text
	PartialMatch            bool    `json:"partialMatch,omitempty"`
}

// InterjectionRef describes one inline aside, with character offsets into
// the passage's flattened text.
type InterjectionRef struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	StartOffset int    `json:"startOffset"`
	EndOffset   int    `json:"endOffset"`
}

// PassageData is the structured metadata carried by a Passage node.
type PassageData struct {
	Reference     Reference         `json:"reference"`
	Detection     Detection         `json:"detection"`
	Interjections []InterjectionRef `json:"interjections,omitempty"`
	Verified      bool              `json:"verified"`
	Notes         string            `json:"notes,omitempty"`
	NonBiblical   bool              `json:"nonBiblical,omitempty"`
	StartChar     *int              `json:"startChar,omitempty"` // offset in parent paragraph
	EndChar       *int              `json:"endChar,omitempty"`
}

// ConfidenceBucket maps a 0-1 detection confidence to its bucket.
func ConfidenceBucket(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return BucketHigh
	case confidence >= 0.6:
		return BucketMedium
	default:
		return BucketLow
	}
}

// Display returns the normalized reference string, computing it from the
// structured fields when the stored form is empty.
func (r Reference) Display() string {
	if r.Normalized != "" {
		return r.Normalized
	}
	if r.VerseEnd != nil && *r.VerseEnd != r.VerseStart {
		return fmt.Sprintf("%s %d:%d-%d", r.Book, r.Chapter, r.VerseStart, *r.VerseEnd)
	}
	return fmt.Sprintf("%s %d:%d", r.Book, r.Chapter, r.VerseStart)
}

// Clone returns a deep copy of the metadata.
func (d PassageData) Clone() PassageData {
	c := d
	c.Interjections = append([]InterjectionRef(nil), d.Interjections...)
	if d.Reference.VerseEnd != nil {
		v := *d.Reference.VerseEnd
		c.Reference.VerseEnd = &v
	}
	if d.StartChar != nil {
		v := *d.StartChar
		c.StartChar = &v
	}
	if d.EndChar != nil {
		v := *d.EndChar
		c.EndChar = &v
	}
	return c
}

// Equal reports whether two metadata values carry the same content.
func (d PassageData) Equal(o PassageData) bool {
	if d.Reference.Book != o.Reference.Book ||
		d.Reference.Chapter != o.Reference.Chapter ||
		d.Reference.VerseStart != o.Reference.VerseStart ||
		!intPtrEqual(d.Reference.VerseEnd, o.Reference.VerseEnd) ||
		d.Reference.OriginalText != o.Reference.OriginalText ||
		d.Reference.Normalized != o.Reference.Normalized {
		return false
	}
	if d.Detection != o.Detection {
		return false
	}
	if len(d.Interjections) != len(o.Interjections) {
		return false
	}
	for i := range d.Interjections {
		if d.Interjections[i] != o.Interjections[i] {
			return false
		}
	}
	return d.Verified == o.Verified &&
		d.Notes == o.Notes &&
		d.NonBiblical == o.NonBiblical &&
		intPtrEqual(d.StartChar, o.StartChar) &&
		intPtrEqual(d.EndChar, o.EndChar)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
