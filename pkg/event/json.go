// ABOUTME: JSON codec for events
// ABOUTME: Envelope with kind discriminator; payloads decoded via registry

package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Blakthorne/whispersermons-sub001/pkg/ast"
)

type eventWire struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
	Version   int             `json:"version"`
	Origin    Origin          `json:"origin"`
	Payload   json.RawMessage `json:"payload"`
}

func (e *Event) MarshalJSON() ([]byte, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("event: encode %s payload: %w", e.Kind, err)
	}
	return json.Marshal(eventWire{
		ID: e.ID, Kind: e.Kind, Timestamp: e.Timestamp,
		Version: e.Version, Origin: e.Origin, Payload: payload,
	})
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var w eventWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	payload, err := newPayload(w.Kind)
	if err != nil {
		return err
	}
	if len(w.Payload) > 0 && !bytes.Equal(w.Payload, []byte("null")) {
		if err := json.Unmarshal(w.Payload, payload); err != nil {
			return fmt.Errorf("event: decode %s payload: %w", w.Kind, err)
		}
	}
	*e = Event{ID: w.ID, Kind: w.Kind, Timestamp: w.Timestamp, Version: w.Version, Origin: w.Origin, Payload: payload}
	return nil
}

// newPayload allocates the payload type for a kind. The switch is the
// single place a new kind must be registered for decoding.
func newPayload(k Kind) (Payload, error) {
	switch k {
	case KindDocumentCreated:
		return &DocumentCreated{}, nil
	case KindDocumentImported:
		return &DocumentImported{}, nil
	case KindDocumentUpdated:
		return &DocumentUpdated{}, nil
	case KindNodeCreated:
		return &NodeCreated{}, nil
	case KindNodeDeleted:
		return &NodeDeleted{}, nil
	case KindNodeMoved:
		return &NodeMoved{}, nil
	case KindTextChanged:
		return &TextChanged{}, nil
	case KindContentReplaced:
		return &ContentReplaced{}, nil
	case KindPassageCreated:
		return &PassageCreated{}, nil
	case KindQuoteCreated:
		return &QuoteCreated{}, nil
	case KindPassageRemoved:
		return &PassageRemoved{}, nil
	case KindPassageMetadataUpdated:
		return &PassageMetadataUpdated{}, nil
	case KindPassageVerified:
		return &PassageVerified{}, nil
	case KindPassageBoundaryChanged:
		return &PassageBoundaryChanged{}, nil
	case KindInterjectionAdded:
		return &InterjectionAdded{}, nil
	case KindInterjectionRemoved:
		return &InterjectionRemoved{}, nil
	case KindNodesJoined:
		return &NodesJoined{}, nil
	case KindNodeSplit:
		return &NodeSplit{}, nil
	case KindParagraphMerged:
		return &ParagraphMerged{}, nil
	case KindParagraphSplit:
		return &ParagraphSplit{}, nil
	case KindBatch:
		return &Batch{}, nil
	case KindUndo:
		return &Undo{}, nil
	case KindRedo:
		return &Redo{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}
}

func decodeNode(raw json.RawMessage) (ast.Node, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	return ast.UnmarshalNode(raw)
}

func decodeNodes(raws []json.RawMessage) ([]ast.Node, error) {
	out := make([]ast.Node, 0, len(raws))
	for _, raw := range raws {
		n, err := decodeNode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (p *NodeCreated) UnmarshalJSON(data []byte) error {
	var w struct {
		Node     json.RawMessage `json:"node"`
		ParentID string          `json:"parentId"`
		Index    int             `json:"index"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	n, err := decodeNode(w.Node)
	if err != nil {
		return err
	}
	*p = NodeCreated{Node: n, ParentID: w.ParentID, Index: w.Index}
	return nil
}

func (p *NodeDeleted) UnmarshalJSON(data []byte) error {
	var w struct {
		NodeID   string          `json:"nodeId"`
		Node     json.RawMessage `json:"node"`
		ParentID string          `json:"parentId"`
		Index    int             `json:"index"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	n, err := decodeNode(w.Node)
	if err != nil {
		return err
	}
	*p = NodeDeleted{NodeID: w.NodeID, Node: n, ParentID: w.ParentID, Index: w.Index}
	return nil
}

func (p *PassageCreated) UnmarshalJSON(data []byte) error {
	var w struct {
		Node     json.RawMessage `json:"node"`
		ParentID string          `json:"parentId"`
		Index    int             `json:"index"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	n, err := decodeNode(w.Node)
	if err != nil {
		return err
	}
	*p = PassageCreated{Node: n, ParentID: w.ParentID, Index: w.Index}
	return nil
}

func (p *QuoteCreated) UnmarshalJSON(data []byte) error {
	var w struct {
		Node     json.RawMessage `json:"node"`
		ParentID string          `json:"parentId"`
		Index    int             `json:"index"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	n, err := decodeNode(w.Node)
	if err != nil {
		return err
	}
	*p = QuoteCreated{Node: n, ParentID: w.ParentID, Index: w.Index}
	return nil
}

func (p *PassageRemoved) UnmarshalJSON(data []byte) error {
	var w struct {
		PassageID    string            `json:"passageId"`
		Node         json.RawMessage   `json:"node"`
		ParentID     string            `json:"parentId"`
		Index        int               `json:"index"`
		Replacements []json.RawMessage `json:"replacements"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	n, err := decodeNode(w.Node)
	if err != nil {
		return err
	}
	repl, err := decodeNodes(w.Replacements)
	if err != nil {
		return err
	}
	*p = PassageRemoved{PassageID: w.PassageID, Node: n, ParentID: w.ParentID, Index: w.Index, Replacements: repl}
	return nil
}

func (p *InterjectionAdded) UnmarshalJSON(data []byte) error {
	var w struct {
		PassageID  string              `json:"passageId"`
		Descriptor ast.InterjectionRef `json:"descriptor"`
		Node       json.RawMessage     `json:"node"`
		ChildIndex int                 `json:"childIndex"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	n, err := decodeNode(w.Node)
	if err != nil {
		return err
	}
	*p = InterjectionAdded{PassageID: w.PassageID, Descriptor: w.Descriptor, Node: n, ChildIndex: w.ChildIndex}
	return nil
}

func (p *InterjectionRemoved) UnmarshalJSON(data []byte) error {
	var w struct {
		PassageID      string              `json:"passageId"`
		InterjectionID string              `json:"interjectionId"`
		Descriptor     ast.InterjectionRef `json:"descriptor"`
		Node           json.RawMessage     `json:"node"`
		ChildIndex     int                 `json:"childIndex"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	n, err := decodeNode(w.Node)
	if err != nil {
		return err
	}
	*p = InterjectionRemoved{PassageID: w.PassageID, InterjectionID: w.InterjectionID, Descriptor: w.Descriptor, Node: n, ChildIndex: w.ChildIndex}
	return nil
}

func (p *ParagraphMerged) UnmarshalJSON(data []byte) error {
	var w struct {
		FirstID       string          `json:"firstId"`
		SecondID      string          `json:"secondId"`
		Removed       json.RawMessage `json:"removed"`
		AppendedCount int             `json:"appendedCount"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	removed, err := decodeNode(w.Removed)
	if err != nil {
		return err
	}
	*p = ParagraphMerged{FirstID: w.FirstID, SecondID: w.SecondID, Removed: removed, AppendedCount: w.AppendedCount}
	return nil
}
