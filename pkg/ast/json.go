// ABOUTME: JSON codec for the node union
// ABOUTME: Marshals with a "type" discriminator; decodes through UnmarshalNode

package ast

import (
	"encoding/json"
	"fmt"
	"time"
)

type documentWire struct {
	Type         Kind              `json:"type"`
	ID           string            `json:"id"`
	Revision     int               `json:"revision"`
	ModifiedAt   time.Time         `json:"modifiedAt"`
	Title        string            `json:"title,omitempty"`
	BiblePassage string            `json:"biblePassage,omitempty"`
	Speaker      string            `json:"speaker,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
	Children     []json.RawMessage `json:"children"`
}

type paragraphWire struct {
	Type         Kind              `json:"type"`
	ID           string            `json:"id"`
	Revision     int               `json:"revision"`
	ModifiedAt   time.Time         `json:"modifiedAt"`
	HeadingLevel int               `json:"headingLevel,omitempty"`
	ListStyle    string            `json:"listStyle,omitempty"`
	ListNumber   int               `json:"listNumber,omitempty"`
	ListDepth    int               `json:"listDepth,omitempty"`
	Alignment    string            `json:"alignment,omitempty"`
	BlockQuote   bool              `json:"blockQuote,omitempty"`
	Children     []json.RawMessage `json:"children"`
}

type textWire struct {
	Type       Kind      `json:"type"`
	ID         string    `json:"id"`
	Revision   int       `json:"revision"`
	ModifiedAt time.Time `json:"modifiedAt"`
	Content    string    `json:"content"`
	Marks      []string  `json:"marks,omitempty"`
}

type passageWire struct {
	Type       Kind              `json:"type"`
	ID         string            `json:"id"`
	Revision   int               `json:"revision"`
	ModifiedAt time.Time         `json:"modifiedAt"`
	Data       PassageData       `json:"data"`
	Children   []json.RawMessage `json:"children"`
}

type interjectionWire struct {
	Type       Kind      `json:"type"`
	ID         string    `json:"id"`
	Revision   int       `json:"revision"`
	ModifiedAt time.Time `json:"modifiedAt"`
	RefID      string    `json:"refId"`
	Text       string    `json:"text"`
}

func marshalChildren(kids []Node) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(kids))
	for _, k := range kids {
		raw, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func unmarshalChildren(raws []json.RawMessage) ([]Node, error) {
	out := make([]Node, 0, len(raws))
	for _, raw := range raws {
		child, err := UnmarshalNode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	return out, nil
}

func (d *Document) MarshalJSON() ([]byte, error) {
	kids, err := marshalChildren(d.Kids)
	if err != nil {
		return nil, err
	}
	return json.Marshal(documentWire{
		Type: KindDocument, ID: d.NodeID, Revision: d.Rev, ModifiedAt: d.Modified,
		Title: d.Title, BiblePassage: d.BiblePassage, Speaker: d.Speaker,
		Tags: d.Tags, Children: kids,
	})
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var w documentWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	kids, err := unmarshalChildren(w.Children)
	if err != nil {
		return err
	}
	*d = Document{
		NodeID: w.ID, Rev: w.Revision, Modified: w.ModifiedAt,
		Title: w.Title, BiblePassage: w.BiblePassage, Speaker: w.Speaker,
		Tags: w.Tags, Kids: kids,
	}
	return nil
}

func (p *Paragraph) MarshalJSON() ([]byte, error) {
	kids, err := marshalChildren(p.Kids)
	if err != nil {
		return nil, err
	}
	return json.Marshal(paragraphWire{
		Type: KindParagraph, ID: p.NodeID, Revision: p.Rev, ModifiedAt: p.Modified,
		HeadingLevel: p.HeadingLevel, ListStyle: p.ListStyle, ListNumber: p.ListNumber,
		ListDepth: p.ListDepth, Alignment: p.Alignment, BlockQuote: p.BlockQuote,
		Children: kids,
	})
}

func (p *Paragraph) UnmarshalJSON(data []byte) error {
	var w paragraphWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	kids, err := unmarshalChildren(w.Children)
	if err != nil {
		return err
	}
	*p = Paragraph{
		NodeID: w.ID, Rev: w.Revision, Modified: w.ModifiedAt,
		HeadingLevel: w.HeadingLevel, ListStyle: w.ListStyle, ListNumber: w.ListNumber,
		ListDepth: w.ListDepth, Alignment: w.Alignment, BlockQuote: w.BlockQuote,
		Kids: kids,
	}
	return nil
}

func (t *Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(textWire{
		Type: KindText, ID: t.NodeID, Revision: t.Rev, ModifiedAt: t.Modified,
		Content: t.Content, Marks: t.Marks,
	})
}

func (t *Text) UnmarshalJSON(data []byte) error {
	var w textWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*t = Text{NodeID: w.ID, Rev: w.Revision, Modified: w.ModifiedAt, Content: w.Content, Marks: w.Marks}
	return nil
}

func (p *Passage) MarshalJSON() ([]byte, error) {
	kids, err := marshalChildren(p.Kids)
	if err != nil {
		return nil, err
	}
	return json.Marshal(passageWire{
		Type: KindPassage, ID: p.NodeID, Revision: p.Rev, ModifiedAt: p.Modified,
		Data: p.Data, Children: kids,
	})
}

func (p *Passage) UnmarshalJSON(data []byte) error {
	var w passageWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	kids, err := unmarshalChildren(w.Children)
	if err != nil {
		return err
	}
	*p = Passage{NodeID: w.ID, Rev: w.Revision, Modified: w.ModifiedAt, Data: w.Data, Kids: kids}
	return nil
}

func (i *Interjection) MarshalJSON() ([]byte, error) {
	return json.Marshal(interjectionWire{
		Type: KindInterjection, ID: i.NodeID, Revision: i.Rev, ModifiedAt: i.Modified,
		RefID: i.RefID, Text: i.Text,
	})
}

func (i *Interjection) UnmarshalJSON(data []byte) error {
	var w interjectionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*i = Interjection{NodeID: w.ID, Rev: w.Revision, Modified: w.ModifiedAt, RefID: w.RefID, Text: w.Text}
	return nil
}

// UnmarshalNode decodes one node of any kind from its JSON form, using the
// "type" discriminator to select the concrete type.
func UnmarshalNode(data []byte) (Node, error) {
	var probe struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("ast: decode node: %w", err)
	}
	var n Node
	switch probe.Type {
	case KindDocument:
		n = &Document{}
	case KindParagraph:
		n = &Paragraph{}
	case KindText:
		n = &Text{}
	case KindPassage:
		n = &Passage{}
	case KindInterjection:
		n = &Interjection{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, probe.Type)
	}
	if err := json.Unmarshal(data, n); err != nil {
		return nil, fmt.Errorf("ast: decode %s node: %w", probe.Type, err)
	}
	return n, nil
}
