// ABOUTME: Transcript data model produced by the transcription stage
// ABOUTME: Segments carry recognized text plus timing and speaker labels

package transcript

// Segment is one timed span of recognized speech.
type Segment struct {
	Text    string  `json:"text"`              // Recognized text
	Start   float64 `json:"start"`             // Start offset in seconds
	End     float64 `json:"end"`               // End offset in seconds
	Speaker string  `json:"speaker,omitempty"` // Optional speaker label
}

// Transcript is the complete output of one transcription run.
type Transcript struct {
	Title    string    `json:"title,omitempty"`
	Speaker  string    `json:"speaker,omitempty"`
	Source   string    `json:"source,omitempty"` // Originating audio file or job id
	Segments []Segment `json:"segments"`
}
