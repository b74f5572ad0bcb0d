// ABOUTME: HTTP handlers and request DTOs for the document API
// ABOUTME: Node ids travel in the URL for single ops and in params for batches

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Blakthorne/whispersermons-sub001/pkg/ast"
	"github.com/Blakthorne/whispersermons-sub001/pkg/bridge"
	"github.com/Blakthorne/whispersermons-sub001/pkg/mutator"
	"github.com/Blakthorne/whispersermons-sub001/pkg/query"
	"github.com/Blakthorne/whispersermons-sub001/pkg/snapshot"
	"github.com/Blakthorne/whispersermons-sub001/pkg/transcript"
)

// ========== Document Operations ==========

type documentResponse struct {
	Version  int                `json:"version"`
	Document *bridge.EditorNode `json:"document"`
}

func (s *Server) handleGetDocument(c *gin.Context) {
	st := s.session().State()
	form, err := bridge.TreeToEditorForm(st.Root)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, documentResponse{Version: st.Version, Document: form})
}

type metadataRequest struct {
	Title        *string   `json:"title"`
	BiblePassage *string   `json:"biblePassage"`
	Speaker      *string   `json:"speaker"`
	Tags         *[]string `json:"tags"`
}

func (s *Server) handleUpdateMetadata(c *gin.Context) {
	var req metadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
		return
	}

	var ops []func(*mutator.Mutator) mutator.Result
	if req.Title != nil {
		title := *req.Title
		ops = append(ops, func(m *mutator.Mutator) mutator.Result { return m.UpdateTitle(title) })
	}
	if req.BiblePassage != nil {
		ref := *req.BiblePassage
		ops = append(ops, func(m *mutator.Mutator) mutator.Result { return m.UpdateBiblePassage(ref) })
	}
	if req.Speaker != nil {
		name := *req.Speaker
		ops = append(ops, func(m *mutator.Mutator) mutator.Result { return m.UpdateSpeaker(name) })
	}
	if req.Tags != nil {
		tags := *req.Tags
		ops = append(ops, func(m *mutator.Mutator) mutator.Result { return m.UpdateTags(tags) })
	}

	switch len(ops) {
	case 0:
		c.JSON(http.StatusBadRequest, errorResponse{Error: "no metadata fields provided"})
	case 1:
		s.mutate(c, "update_metadata", ops[0])
	default:
		s.mutate(c, "update_metadata", func(m *mutator.Mutator) mutator.Result {
			return m.Batch("update metadata", func(b *mutator.Mutator) error {
				for _, op := range ops {
					if res := op(b); !res.Success {
						return res.Err
					}
				}
				return nil
			})
		})
	}
}

func (s *Server) handleImport(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "reading request body: " + err.Error()})
		return
	}
	tr, err := transcript.Parse(data)
	if err != nil {
		s.renderError(c, err)
		return
	}

	var opts transcript.Options
	if g := c.Query("merge_gap"); g != "" {
		v, err := strconv.ParseFloat(g, 64)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid merge_gap: " + g})
			return
		}
		opts.MergeGap = v
	}

	doc, err := transcript.Build(tr, opts)
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.mutate(c, "import_document", func(m *mutator.Mutator) mutator.Result {
		return m.ImportDocument(doc, tr.Source, len(tr.Segments))
	})
}

// ========== Snapshot Operations ==========

func (s *Server) handleGetSnapshot(c *gin.Context) {
	opts := snapshot.Options{
		IncludeEventLog: c.DefaultQuery("include_log", "true") == "true",
	}
	if q := c.Query("max_events"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid max_events: " + q})
			return
		}
		opts.MaxEvents = n
	}

	data, err := snapshot.Serialize(s.session().State(), opts)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

func (s *Server) handlePutSnapshot(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "reading request body: " + err.Error()})
		return
	}
	st, err := snapshot.Deserialize(data)
	if err != nil {
		s.renderError(c, err)
		return
	}

	s.mu.Lock()
	s.attach(s.restore(st))
	s.mu.Unlock()

	// Restores bypass the event log, so watchers get a synthetic frame.
	s.hub.broadcast(WatchFrame{
		Kind:      "snapshot_restored",
		Version:   st.Version,
		Timestamp: time.Now().UTC(),
	})
	s.log.Info("Snapshot restored").Int("version", st.Version).Send()
	c.JSON(http.StatusOK, mutationResponse{
		Version: st.Version,
		CanUndo: len(st.UndoStack) > 0,
		CanRedo: len(st.RedoStack) > 0,
	})
}

// ========== Node Operations ==========

type nodeResponse struct {
	ID       string           `json:"id"`
	Kind     ast.Kind         `json:"kind"`
	ParentID string           `json:"parentId,omitempty"`
	Path     []string         `json:"path,omitempty"`
	Revision int              `json:"revision"`
	Modified time.Time        `json:"modifiedAt"`
	Text     string           `json:"text,omitempty"`
	ChildIDs []string         `json:"childIds,omitempty"`
	Passage  *ast.PassageData `json:"passage,omitempty"`
}

func (s *Server) handleGetNode(c *gin.Context) {
	id := c.Param("id")
	entry, ok := s.session().State().Lookup(id)
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: "node not found: " + id})
		return
	}

	resp := nodeResponse{
		ID:       entry.Node.ID(),
		Kind:     entry.Node.Kind(),
		ParentID: entry.ParentID,
		Path:     entry.Path,
		Revision: entry.Node.Revision(),
		Modified: entry.Node.ModifiedAt(),
	}
	switch n := entry.Node.(type) {
	case *ast.Text:
		resp.Text = n.Content
	case *ast.Interjection:
		resp.Text = n.Text
	case *ast.Passage:
		data := n.Data.Clone()
		resp.Passage = &data
	}
	for _, kid := range ast.ChildrenOf(entry.Node) {
		resp.ChildIDs = append(resp.ChildIDs, kid.ID())
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDeleteNode(c *gin.Context) {
	id := c.Param("id")
	s.mutate(c, "delete_node", func(m *mutator.Mutator) mutator.Result {
		return m.DeleteNode(id)
	})
}

type moveNodeRequest struct {
	NodeID   string `json:"nodeId"`
	ParentID string `json:"parentId"`
	Index    int    `json:"index"`
}

func (s *Server) handleMoveNode(c *gin.Context) {
	var req moveNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
		return
	}
	req.NodeID = c.Param("id")
	s.mutate(c, "move_node", func(m *mutator.Mutator) mutator.Result {
		return m.MoveNode(req.NodeID, req.ParentID, req.Index)
	})
}

// ========== Text Operations ==========

type insertTextRequest struct {
	NodeID string `json:"nodeId"`
	Offset int    `json:"offset"`
	Text   string `json:"text"`
}

func (s *Server) handleInsertText(c *gin.Context) {
	var req insertTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
		return
	}
	req.NodeID = c.Param("id")
	s.mutate(c, "insert_text", func(m *mutator.Mutator) mutator.Result {
		return m.InsertText(req.NodeID, req.Offset, req.Text)
	})
}

type deleteTextRequest struct {
	NodeID string `json:"nodeId"`
	Offset int    `json:"offset"`
	Count  int    `json:"count"`
}

func (s *Server) handleDeleteText(c *gin.Context) {
	var req deleteTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
		return
	}
	req.NodeID = c.Param("id")
	s.mutate(c, "delete_text", func(m *mutator.Mutator) mutator.Result {
		return m.DeleteText(req.NodeID, req.Offset, req.Count)
	})
}

type updateTextRequest struct {
	NodeID  string `json:"nodeId"`
	Content string `json:"content"`
}

func (s *Server) handleUpdateText(c *gin.Context) {
	var req updateTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
		return
	}
	req.NodeID = c.Param("id")
	s.mutate(c, "update_text", func(m *mutator.Mutator) mutator.Result {
		return m.UpdateText(req.NodeID, req.Content)
	})
}

// ========== Paragraph Operations ==========

type createParagraphRequest struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

func (s *Server) handleCreateParagraph(c *gin.Context) {
	var req createParagraphRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
		return
	}
	s.mutate(c, "create_paragraph", func(m *mutator.Mutator) mutator.Result {
		return m.CreateParagraph(req.Index, req.Text)
	})
}

type splitParagraphRequest struct {
	ParagraphID string `json:"paragraphId"`
	ChildIndex  int    `json:"childIndex"`
}

func (s *Server) handleSplitParagraph(c *gin.Context) {
	var req splitParagraphRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
		return
	}
	req.ParagraphID = c.Param("id")
	s.mutate(c, "split_paragraph", func(m *mutator.Mutator) mutator.Result {
		return m.SplitParagraph(req.ParagraphID, req.ChildIndex)
	})
}

type mergeParagraphsRequest struct {
	FirstID  string `json:"firstId"`
	SecondID string `json:"secondId"`
}

func (s *Server) handleMergeParagraphs(c *gin.Context) {
	var req mergeParagraphsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
		return
	}
	req.FirstID = c.Param("id")
	s.mutate(c, "merge_paragraphs", func(m *mutator.Mutator) mutator.Result {
		return m.MergeParagraphs(req.FirstID, req.SecondID)
	})
}

// ========== Passage Operations ==========

type passageResponse struct {
	ID   string          `json:"id"`
	Data ast.PassageData `json:"data"`
	Text string          `json:"text,omitempty"`
}

func (s *Server) handleListPassages(c *gin.Context) {
	eng := query.NewEngine(s.session().State())

	var passages []*ast.Passage
	switch {
	case c.Query("ref") != "":
		passages = eng.PassageByReference(c.Query("ref"))
	case c.Query("book") != "":
		passages = eng.PassagesByBook(c.Query("book"))
	default:
		passages = eng.AllPassages()
	}

	out := make([]passageResponse, 0, len(passages))
	for _, p := range passages {
		out = append(out, passageResponse{
			ID:   p.NodeID,
			Data: p.Data.Clone(),
			Text: ast.FlattenText(p),
		})
	}
	c.JSON(http.StatusOK, gin.H{"passages": out, "count": len(out)})
}

type createPassageRequest struct {
	ParentID  string          `json:"parentId"`
	Index     int             `json:"index"`
	Data      ast.PassageData `json:"data"`
	VerseText string          `json:"verseText"`
}

func (s *Server) handleCreatePassage(c *gin.Context) {
	var req createPassageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
		return
	}
	s.mutate(c, "create_passage", func(m *mutator.Mutator) mutator.Result {
		return m.CreatePassage(req.ParentID, req.Index, req.Data, req.VerseText)
	})
}

type createQuoteRequest struct {
	ParentID  string          `json:"parentId"`
	Index     int             `json:"index"`
	Data      ast.PassageData `json:"data"`
	QuoteText string          `json:"quoteText"`
}

func (s *Server) handleCreateQuote(c *gin.Context) {
	var req createQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
		return
	}
	s.mutate(c, "create_quote", func(m *mutator.Mutator) mutator.Result {
		return m.CreateQuote(req.ParentID, req.Index, req.Data, req.QuoteText)
	})
}

type removePassageRequest struct {
	PassageID string `json:"passageId"`
	KeepText  bool   `json:"keepText"`
}

func (s *Server) handleRemovePassage(c *gin.Context) {
	req := removePassageRequest{
		PassageID: c.Param("id"),
		KeepText:  c.Query("keep_text") == "true",
	}
	s.mutate(c, "remove_passage", func(m *mutator.Mutator) mutator.Result {
		return m.RemovePassage(req.PassageID, req.KeepText)
	})
}

type passageMetadataRequest struct {
	PassageID string          `json:"passageId"`
	Data      ast.PassageData `json:"data"`
}

func (s *Server) handlePassageMetadata(c *gin.Context) {
	var req passageMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
		return
	}
	req.PassageID = c.Param("id")
	s.mutate(c, "update_passage_metadata", func(m *mutator.Mutator) mutator.Result {
		return m.UpdatePassageMetadata(req.PassageID, req.Data)
	})
}

type verifyPassageRequest struct {
	PassageID string `json:"passageId"`
	Verified  *bool  `json:"verified"`
}

func (s *Server) handleVerifyPassage(c *gin.Context) {
	var req verifyPassageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
		return
	}
	if req.Verified == nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "verified field is required"})
		return
	}
	req.PassageID = c.Param("id")
	s.mutate(c, "verify_passage", func(m *mutator.Mutator) mutator.Result {
		return m.VerifyPassage(req.PassageID, *req.Verified)
	})
}

type passageBoundaryRequest struct {
	PassageID string `json:"passageId"`
	StartChar *int   `json:"startChar"`
	EndChar   *int   `json:"endChar"`
}

func (s *Server) handlePassageBoundary(c *gin.Context) {
	var req passageBoundaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
		return
	}
	req.PassageID = c.Param("id")
	s.mutate(c, "update_passage_boundary", func(m *mutator.Mutator) mutator.Result {
		return m.UpdatePassageBoundary(req.PassageID, req.StartChar, req.EndChar)
	})
}

type addInterjectionRequest struct {
	PassageID   string `json:"passageId"`
	Text        string `json:"text"`
	StartOffset int    `json:"startOffset"`
	EndOffset   int    `json:"endOffset"`
}

func (s *Server) handleAddInterjection(c *gin.Context) {
	var req addInterjectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
		return
	}
	req.PassageID = c.Param("id")
	s.mutate(c, "add_interjection", func(m *mutator.Mutator) mutator.Result {
		return m.AddInterjection(req.PassageID, req.Text, req.StartOffset, req.EndOffset)
	})
}

type removeInterjectionRequest struct {
	PassageID      string `json:"passageId"`
	InterjectionID string `json:"interjectionId"`
}

func (s *Server) handleRemoveInterjection(c *gin.Context) {
	req := removeInterjectionRequest{
		PassageID:      c.Param("id"),
		InterjectionID: c.Param("refId"),
	}
	s.mutate(c, "remove_interjection", func(m *mutator.Mutator) mutator.Result {
		return m.RemoveInterjection(req.PassageID, req.InterjectionID)
	})
}

// ========== History Operations ==========

type historyResponse struct {
	Version   int  `json:"version"`
	CanUndo   bool `json:"canUndo"`
	CanRedo   bool `json:"canRedo"`
	UndoDepth int  `json:"undoDepth"`
	RedoDepth int  `json:"redoDepth"`
	LogLength int  `json:"logLength"`
}

func (s *Server) handleHistory(c *gin.Context) {
	st := s.session().State()
	c.JSON(http.StatusOK, historyResponse{
		Version:   st.Version,
		CanUndo:   len(st.UndoStack) > 0,
		CanRedo:   len(st.RedoStack) > 0,
		UndoDepth: len(st.UndoStack),
		RedoDepth: len(st.RedoStack),
		LogLength: len(st.EventLog),
	})
}

func (s *Server) handleUndo(c *gin.Context) {
	s.mutate(c, "undo", func(m *mutator.Mutator) mutator.Result {
		return m.Undo()
	})
}

func (s *Server) handleRedo(c *gin.Context) {
	s.mutate(c, "redo", func(m *mutator.Mutator) mutator.Result {
		return m.Redo()
	})
}

// ========== Batch Operations ==========

type batchRequest struct {
	Name string        `json:"name"`
	Ops  []batchOpSpec `json:"ops"`
}

type batchOpSpec struct {
	Op     string          `json:"op"`
	Params json.RawMessage `json:"params"`
}

func (s *Server) handleBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
		return
	}
	if len(req.Ops) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "batch requires at least one op"})
		return
	}
	name := req.Name
	if name == "" {
		name = "batch"
	}

	s.mutate(c, "batch", func(m *mutator.Mutator) mutator.Result {
		return m.Batch(name, func(b *mutator.Mutator) error {
			for i, spec := range req.Ops {
				if err := applyBatchOp(b, spec); err != nil {
					return fmt.Errorf("op %d (%s): %w", i, spec.Op, err)
				}
			}
			return nil
		})
	})
}

// applyBatchOp dispatches one primitive operation inside a batch. The op
// names match the single-op endpoints; params carry the same body plus
// the node id the URL would have carried.
func applyBatchOp(b *mutator.Mutator, spec batchOpSpec) error {
	bind := func(v any) error {
		if len(spec.Params) == 0 {
			return errors.New("missing params")
		}
		return json.Unmarshal(spec.Params, v)
	}

	var res mutator.Result
	switch spec.Op {
	case "insert_text":
		var p insertTextRequest
		if err := bind(&p); err != nil {
			return err
		}
		res = b.InsertText(p.NodeID, p.Offset, p.Text)
	case "delete_text":
		var p deleteTextRequest
		if err := bind(&p); err != nil {
			return err
		}
		res = b.DeleteText(p.NodeID, p.Offset, p.Count)
	case "update_text":
		var p updateTextRequest
		if err := bind(&p); err != nil {
			return err
		}
		res = b.UpdateText(p.NodeID, p.Content)
	case "create_paragraph":
		var p createParagraphRequest
		if err := bind(&p); err != nil {
			return err
		}
		res = b.CreateParagraph(p.Index, p.Text)
	case "delete_node":
		var p struct {
			NodeID string `json:"nodeId"`
		}
		if err := bind(&p); err != nil {
			return err
		}
		res = b.DeleteNode(p.NodeID)
	case "move_node":
		var p moveNodeRequest
		if err := bind(&p); err != nil {
			return err
		}
		res = b.MoveNode(p.NodeID, p.ParentID, p.Index)
	case "split_paragraph":
		var p splitParagraphRequest
		if err := bind(&p); err != nil {
			return err
		}
		res = b.SplitParagraph(p.ParagraphID, p.ChildIndex)
	case "merge_paragraphs":
		var p mergeParagraphsRequest
		if err := bind(&p); err != nil {
			return err
		}
		res = b.MergeParagraphs(p.FirstID, p.SecondID)
	case "create_passage":
		var p createPassageRequest
		if err := bind(&p); err != nil {
			return err
		}
		res = b.CreatePassage(p.ParentID, p.Index, p.Data, p.VerseText)
	case "create_quote":
		var p createQuoteRequest
		if err := bind(&p); err != nil {
			return err
		}
		res = b.CreateQuote(p.ParentID, p.Index, p.Data, p.QuoteText)
	case "remove_passage":
		var p removePassageRequest
		if err := bind(&p); err != nil {
			return err
		}
		res = b.RemovePassage(p.PassageID, p.KeepText)
	case "update_passage_metadata":
		var p passageMetadataRequest
		if err := bind(&p); err != nil {
			return err
		}
		res = b.UpdatePassageMetadata(p.PassageID, p.Data)
	case "verify_passage":
		var p verifyPassageRequest
		if err := bind(&p); err != nil {
			return err
		}
		if p.Verified == nil {
			return errors.New("verified field is required")
		}
		res = b.VerifyPassage(p.PassageID, *p.Verified)
	case "update_passage_boundary":
		var p passageBoundaryRequest
		if err := bind(&p); err != nil {
			return err
		}
		res = b.UpdatePassageBoundary(p.PassageID, p.StartChar, p.EndChar)
	case "add_interjection":
		var p addInterjectionRequest
		if err := bind(&p); err != nil {
			return err
		}
		res = b.AddInterjection(p.PassageID, p.Text, p.StartOffset, p.EndOffset)
	case "remove_interjection":
		var p removeInterjectionRequest
		if err := bind(&p); err != nil {
			return err
		}
		res = b.RemoveInterjection(p.PassageID, p.InterjectionID)
	case "update_title":
		var p struct {
			Title string `json:"title"`
		}
		if err := bind(&p); err != nil {
			return err
		}
		res = b.UpdateTitle(p.Title)
	case "update_bible_passage":
		var p struct {
			BiblePassage string `json:"biblePassage"`
		}
		if err := bind(&p); err != nil {
			return err
		}
		res = b.UpdateBiblePassage(p.BiblePassage)
	case "update_speaker":
		var p struct {
			Speaker string `json:"speaker"`
		}
		if err := bind(&p); err != nil {
			return err
		}
		res = b.UpdateSpeaker(p.Speaker)
	case "update_tags":
		var p struct {
			Tags []string `json:"tags"`
		}
		if err := bind(&p); err != nil {
			return err
		}
		res = b.UpdateTags(p.Tags)
	default:
		return fmt.Errorf("unknown op %q", spec.Op)
	}

	if !res.Success {
		return res.Err
	}
	return nil
}

// ========== Query Operations ==========

type searchResponse struct {
	Query   string               `json:"query"`
	Results []query.SearchResult `json:"results"`
	Count   int                  `json:"count"`
}

func (s *Server) handleSearch(c *gin.Context) {
	q := c.Query("q")
	if strings.TrimSpace(q) == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "query parameter q is required"})
		return
	}
	limit := 0
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid limit: " + l})
			return
		}
		limit = n
	}

	results := query.NewEngine(s.session().State()).Search(q, limit)
	s.metrics.RecordSearch(len(results))
	c.JSON(http.StatusOK, searchResponse{Query: q, Results: results, Count: len(results)})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, query.NewEngine(s.session().State()).Stats())
}
