// Package server exposes the document engine over a JSON HTTP API
package server

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Blakthorne/whispersermons-sub001/internal/logger"
	"github.com/Blakthorne/whispersermons-sub001/internal/metrics"
	"github.com/Blakthorne/whispersermons-sub001/pkg/ast"
	"github.com/Blakthorne/whispersermons-sub001/pkg/event"
	"github.com/Blakthorne/whispersermons-sub001/pkg/mutator"
	"github.com/Blakthorne/whispersermons-sub001/pkg/state"
)

// Config assembles a Server.
type Config struct {
	// Mutator is the initial editing session; nil starts an empty document.
	Mutator *mutator.Mutator
	// Restore builds a replacement session from a restored snapshot
	// state. Nil falls back to a session with default options; the daemon
	// passes a closure carrying its configured limits and logger.
	Restore func(*state.State) *mutator.Mutator
	Logger  *logger.Logger
	Metrics *metrics.Metrics
}

// Server owns the live editing session and serves it over HTTP. The
// mutator serializes individual mutations; the server mutex additionally
// covers swapping the whole session on snapshot restore.
type Server struct {
	mu      sync.Mutex
	mut     *mutator.Mutator
	restore func(*state.State) *mutator.Mutator
	log     *logger.Logger
	metrics *metrics.Metrics
	hub     *watchHub
	unsub   func()
}

// NewServer wires a server around the given session.
func NewServer(cfg Config) *Server {
	s := &Server{
		restore: cfg.Restore,
		log:     cfg.Logger,
		metrics: cfg.Metrics,
	}
	if s.log == nil {
		s.log = logger.GetGlobalLogger()
	}
	if s.metrics == nil {
		s.metrics = metrics.NewMetrics()
	}
	if s.restore == nil {
		s.restore = func(st *state.State) *mutator.Mutator {
			return mutator.NewFromState(st)
		}
	}
	s.hub = newWatchHub(s.log, s.metrics)

	m := cfg.Mutator
	if m == nil {
		m = mutator.New()
	}
	s.attach(m)
	return s
}

// attach installs m as the live session and re-subscribes the hub.
// Callers swapping an existing session hold s.mu.
func (s *Server) attach(m *mutator.Mutator) {
	if s.unsub != nil {
		s.unsub()
	}
	s.mut = m
	s.unsub = m.Subscribe(func(st *state.State, ev *event.Event) {
		s.hub.broadcastEvent(ev)
		s.observe(st)
	})
	s.observe(m.State())
}

// session returns the live mutator.
func (s *Server) session() *mutator.Mutator {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mut
}

// State returns the live session's current state, for callers outside
// the request path such as shutdown persistence.
func (s *Server) State() *state.State {
	return s.session().State()
}

// observe refreshes the document gauges from st.
func (s *Server) observe(st *state.State) {
	s.metrics.UpdateDocumentStats(
		st.Version,
		len(st.EventLog),
		len(st.UndoStack),
		len(st.RedoStack),
		ast.CountNodes(st.Root),
		len(st.PassageIndex.All),
	)
}

// Router builds the gin engine with every API route registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestStats())

	api := r.Group("/api/v1")
	{
		// Document surface
		api.GET("/document", s.handleGetDocument)
		api.PUT("/document/metadata", s.handleUpdateMetadata)
		api.POST("/document/import", s.handleImport)

		// Snapshot persistence
		api.GET("/snapshot", s.handleGetSnapshot)
		api.PUT("/snapshot", s.handlePutSnapshot)

		// Node operations
		api.GET("/nodes/:id", s.handleGetNode)
		api.DELETE("/nodes/:id", s.handleDeleteNode)
		api.POST("/nodes/:id/move", s.handleMoveNode)

		// Text operations
		api.POST("/text/:id/insert", s.handleInsertText)
		api.POST("/text/:id/delete", s.handleDeleteText)
		api.PUT("/text/:id", s.handleUpdateText)

		// Paragraph operations
		api.POST("/paragraphs", s.handleCreateParagraph)
		api.POST("/paragraphs/:id/split", s.handleSplitParagraph)
		api.POST("/paragraphs/:id/merge", s.handleMergeParagraphs)

		// Passage operations
		api.GET("/passages", s.handleListPassages)
		api.POST("/passages", s.handleCreatePassage)
		api.POST("/quotes", s.handleCreateQuote)
		api.DELETE("/passages/:id", s.handleRemovePassage)
		api.PUT("/passages/:id/metadata", s.handlePassageMetadata)
		api.POST("/passages/:id/verify", s.handleVerifyPassage)
		api.PUT("/passages/:id/boundary", s.handlePassageBoundary)
		api.POST("/passages/:id/interjections", s.handleAddInterjection)
		api.DELETE("/passages/:id/interjections/:refId", s.handleRemoveInterjection)

		// History
		api.GET("/history", s.handleHistory)
		api.POST("/history/undo", s.handleUndo)
		api.POST("/history/redo", s.handleRedo)
		api.POST("/batch", s.handleBatch)

		// Queries
		api.GET("/search", s.handleSearch)
		api.GET("/stats", s.handleStats)
	}

	r.GET("/ws/watch", s.hub.handle)
	return r
}

// requestStats meters and logs every request.
func (s *Server) requestStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		s.metrics.HTTPRequestsInFlight.Inc()
		c.Next()
		s.metrics.HTTPRequestsInFlight.Dec()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		duration := time.Since(start)
		s.metrics.RecordHTTPRequest(route, c.Request.Method, strconv.Itoa(status), duration)
		s.log.LogRequest(c.Request.Method, c.Request.URL.Path, status, duration)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// mutationResponse reports a successful mutation back to the client.
type mutationResponse struct {
	Version int            `json:"version"`
	Events  []*event.Event `json:"events,omitempty"`
	CanUndo bool           `json:"canUndo"`
	CanRedo bool           `json:"canRedo"`
}

// httpStatus maps engine sentinels onto response codes. Unknown errors
// are treated as rejected input rather than server faults; the reducer
// reports its own faults via ErrInternal.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, mutator.ErrNodeNotFound), errors.Is(err, state.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, mutator.ErrNothingToUndo), errors.Is(err, mutator.ErrNothingToRedo):
		return http.StatusConflict
	case errors.Is(err, state.ErrInternal), errors.Is(err, state.ErrInconsistent):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) renderError(c *gin.Context, err error) {
	c.JSON(httpStatus(err), errorResponse{Error: err.Error()})
}

// mutate runs one operation against the live session and renders the
// outcome.
func (s *Server) mutate(c *gin.Context, op string, fn func(*mutator.Mutator) mutator.Result) {
	m := s.session()
	start := time.Now()
	res := fn(m)
	duration := time.Since(start)

	if !res.Success {
		s.metrics.RecordMutation(op, "error", duration)
		s.log.LogMutation(op, 0, duration, res.Err)
		s.renderError(c, res.Err)
		return
	}

	s.metrics.RecordMutation(op, "ok", duration)
	s.log.LogMutation(op, res.State.Version, duration, nil)
	c.JSON(http.StatusOK, mutationResponse{
		Version: res.State.Version,
		Events:  res.Events,
		CanUndo: len(res.State.UndoStack) > 0,
		CanRedo: len(res.State.RedoStack) > 0,
	})
}
