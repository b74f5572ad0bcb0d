// ABOUTME: Stateful editing façade: validate, build event, reduce, notify
// ABOUTME: Holds exactly one live State; every method follows the same pattern

package mutator

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Blakthorne/whispersermons-sub001/pkg/ast"
	"github.com/Blakthorne/whispersermons-sub001/pkg/event"
	"github.com/Blakthorne/whispersermons-sub001/pkg/state"
)

// Result reports the outcome of one mutation. Events holds the log
// entries the call produced (one envelope, even for batches). State is
// the state after the call; on failure it is the unchanged current state.
type Result struct {
	Success bool
	Events  []*event.Event
	State   *state.State
	Err     error
}

// Subscriber receives the new state and the applied event after every
// successful mutation, synchronously and in mutation order. Batches fire
// once, with the batch event.
type Subscriber func(*state.State, *event.Event)

// Mutator owns one live document state and advances it through validated,
// event-logged operations. Methods are safe for concurrent use.
// Subscribers run with the mutator's lock held and must not call back
// into it.
type Mutator struct {
	mu       sync.Mutex
	cur      *state.State
	factory  *event.Factory
	importer *event.Factory
	limits   state.Limits
	log      zerolog.Logger
	subs     map[string]Subscriber
	inBatch  bool
}

// Option configures a Mutator.
type Option func(*options)

type options struct {
	limits state.Limits
	log    zerolog.Logger
	clock  func() time.Time
	origin event.Origin
}

// WithLimits overrides the history bounds.
func WithLimits(lim state.Limits) Option {
	return func(o *options) { o.limits = lim }
}

// WithLogger attaches a structured logger; the default discards.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithClock sets the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// WithOrigin sets the origin stamped on issued events.
func WithOrigin(origin event.Origin) Option {
	return func(o *options) { o.origin = origin }
}

func build(opts []Option) *Mutator {
	o := &options{
		limits: state.DefaultLimits(),
		log:    zerolog.Nop(),
		clock:  func() time.Time { return time.Now().UTC() },
		origin: event.OriginUser,
	}
	for _, opt := range opts {
		opt(o)
	}
	return &Mutator{
		factory:  event.NewFactory(event.WithOrigin(o.origin), event.WithNow(o.clock)),
		importer: event.NewFactory(event.WithOrigin(event.OriginImport), event.WithNow(o.clock)),
		limits:   o.limits,
		log:      o.log,
		subs:     make(map[string]Subscriber),
	}
}

// New creates a mutator holding a fresh empty document. The birth is
// recorded as a document_created event producing version 1.
func New(opts ...Option) *Mutator {
	m := build(opts)
	m.cur = state.New(ast.NewDocument())
	ev := m.factory.DocumentCreated(1)
	next, err := state.Apply(m.cur, ev, m.limits)
	if err != nil {
		m.log.Error().Err(err).Msg("recording document_created failed")
		return m
	}
	m.cur = next
	return m
}

// NewFromState adopts an existing state, typically a snapshot restore.
func NewFromState(s *state.State, opts ...Option) *Mutator {
	m := build(opts)
	m.cur = s
	return m
}

// State returns the current immutable state snapshot.
func (m *Mutator) State() *state.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur
}

// Version returns the current document version.
func (m *Mutator) Version() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur.Version
}

// CanUndo reports whether an undoable event is available.
func (m *Mutator) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cur.UndoStack) > 0
}

// CanRedo reports whether an undone event can be reapplied.
func (m *Mutator) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cur.RedoStack) > 0
}

// UndoDepth returns the number of events currently undoable.
func (m *Mutator) UndoDepth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cur.UndoStack)
}

// RedoDepth returns the number of undos currently redoable.
func (m *Mutator) RedoDepth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cur.RedoStack)
}

// Subscribe registers cb for change notification and returns its
// unsubscribe function.
func (m *Mutator) Subscribe(cb Subscriber) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.subs[id] = cb
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// fail reports a rejected mutation; the live state is untouched.
func (m *Mutator) fail(err error) Result {
	m.log.Debug().Err(err).Msg("mutation rejected")
	return Result{Success: false, Err: err, State: m.cur}
}

// commit reduces ev into the live state.
func (m *Mutator) commit(ev *event.Event) Result {
	next, err := state.Apply(m.cur, ev, m.limits)
	if err != nil {
		m.log.Error().Err(err).Str("kind", string(ev.Kind)).Msg("reducer rejected event")
		return Result{Success: false, Err: err, State: m.cur}
	}
	return m.finish(next, ev)
}

// finish installs the new state and notifies subscribers.
func (m *Mutator) finish(next *state.State, ev *event.Event) Result {
	m.cur = next
	m.log.Debug().
		Str("kind", string(ev.Kind)).
		Str("event_id", ev.ID).
		Int("version", next.Version).
		Msg("event applied")
	for _, cb := range m.subs {
		cb(next, ev)
	}
	return Result{Success: true, Events: []*event.Event{ev}, State: next}
}

func (m *Mutator) entry(id string) (*state.Entry, error) {
	e, ok := m.cur.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return e, nil
}

func (m *Mutator) text(id string) (*ast.Text, error) {
	e, err := m.entry(id)
	if err != nil {
		return nil, err
	}
	t, ok := e.Node.(*ast.Text)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %s, want text", ErrWrongKind, id, e.Node.Kind())
	}
	return t, nil
}

func (m *Mutator) paragraph(id string) (*state.Entry, *ast.Paragraph, error) {
	e, err := m.entry(id)
	if err != nil {
		return nil, nil, err
	}
	p, ok := e.Node.(*ast.Paragraph)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s is %s, want paragraph", ErrWrongKind, id, e.Node.Kind())
	}
	return e, p, nil
}

func (m *Mutator) passage(id string) (*state.Entry, *ast.Passage, error) {
	e, err := m.entry(id)
	if err != nil {
		return nil, nil, err
	}
	p, ok := e.Node.(*ast.Passage)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s is %s, want passage", ErrWrongKind, id, e.Node.Kind())
	}
	return e, p, nil
}
