// ABOUTME: Pure reducer: (state, event) -> new state
// ABOUTME: Prior states stay valid; replaying the log reproduces any version

package state

import (
	"errors"
	"fmt"

	"github.com/Blakthorne/whispersermons-sub001/pkg/event"
)

// Limits bound retained history. Zero values mean unlimited.
type Limits struct {
	MaxUndoDepth int // events kept eligible for undo
	MaxLogEvents int // events retained in the log
}

// DefaultLimits returns the stock history bounds.
func DefaultLimits() Limits {
	return Limits{MaxUndoDepth: 200, MaxLogEvents: 10000}
}

// Apply reduces one event into a new state. The input state is never
// modified; on error it remains the current state and the returned state
// is nil. The event is appended to the log, the undo/redo stacks are
// updated per its kind, and history is trimmed to the limits.
func Apply(s *State, ev *event.Event, lim Limits) (*State, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil state", ErrInternal)
	}
	if ev == nil {
		return nil, fmt.Errorf("%w: nil event", ErrInternal)
	}
	if ev.Version <= s.Version {
		return nil, fmt.Errorf("%w: event %s version %d, state at %d",
			ErrVersionRegression, ev.ID, ev.Version, s.Version)
	}

	// Undo and redo must name the top of their stacks; validate before
	// doing any tree work.
	switch ev.Kind {
	case event.KindUndo:
		p, ok := ev.Payload.(*event.Undo)
		if !ok {
			return nil, fmt.Errorf("%w: undo event carries %T payload", ErrInternal, ev.Payload)
		}
		if n := len(s.UndoStack); n == 0 || s.UndoStack[n-1] != p.TargetEventID {
			return nil, fmt.Errorf("%w: undo target %s is not the most recent undoable event",
				ErrInconsistent, p.TargetEventID)
		}
	case event.KindRedo:
		p, ok := ev.Payload.(*event.Redo)
		if !ok {
			return nil, fmt.Errorf("%w: redo event carries %T payload", ErrInternal, ev.Payload)
		}
		if n := len(s.RedoStack); n == 0 || s.RedoStack[n-1] != p.UndoEventID {
			return nil, fmt.Errorf("%w: redo source %s is not the most recent undo",
				ErrInconsistent, p.UndoEventID)
		}
	}

	w := s.clone()
	if err := applyEffect(w, ev); err != nil {
		return nil, err
	}

	switch ev.Kind {
	case event.KindUndo:
		w.UndoStack = w.UndoStack[:len(w.UndoStack)-1]
		w.RedoStack = append(w.RedoStack, ev.ID)
	case event.KindRedo:
		p := ev.Payload.(*event.Redo)
		w.RedoStack = w.RedoStack[:len(w.RedoStack)-1]
		for _, re := range p.Events {
			if event.IsUndoable(re.Kind) {
				w.UndoStack = append(w.UndoStack, re.ID)
			}
		}
	default:
		if event.IsUndoable(ev.Kind) {
			w.UndoStack = append(w.UndoStack, ev.ID)
			w.RedoStack = nil
		}
	}

	w.EventLog = append(w.EventLog, ev)
	w.Version = ev.Version
	w.LastModified = ev.Timestamp
	trimUndo(w, lim)
	trimLog(w, lim)
	return w, nil
}

// ApplyAllOptions controls replay behavior.
type ApplyAllOptions struct {
	// StopOnError aborts at the first failing event and returns the last
	// good state. When false, failing events are skipped and the collected
	// errors are returned alongside the final state.
	StopOnError bool
}

// ApplyAll reduces a sequence of events in order, as replay does. It
// returns the final state and the events that actually applied.
func ApplyAll(s *State, events []*event.Event, lim Limits, opts ApplyAllOptions) (*State, []*event.Event, error) {
	cur := s
	applied := make([]*event.Event, 0, len(events))
	var errs []error
	for i, ev := range events {
		next, err := Apply(cur, ev, lim)
		if err != nil {
			wrapped := fmt.Errorf("event %d (%s %s): %w", i, ev.Kind, ev.ID, err)
			if opts.StopOnError {
				return cur, applied, wrapped
			}
			errs = append(errs, wrapped)
			continue
		}
		cur = next
		applied = append(applied, ev)
	}
	return cur, applied, errors.Join(errs...)
}

func trimUndo(w *State, lim Limits) {
	if lim.MaxUndoDepth <= 0 || len(w.UndoStack) <= lim.MaxUndoDepth {
		return
	}
	keep := w.UndoStack[len(w.UndoStack)-lim.MaxUndoDepth:]
	w.UndoStack = append([]string(nil), keep...)
}

// trimLog evicts the oldest log entries past the cap. Stack ids pointing
// at evicted events are dropped with them: an event outside the log can
// no longer be undone or redone.
func trimLog(w *State, lim Limits) {
	if lim.MaxLogEvents <= 0 || len(w.EventLog) <= lim.MaxLogEvents {
		return
	}
	cut := len(w.EventLog) - lim.MaxLogEvents
	evicted := make(map[string]bool, cut)
	for _, ev := range w.EventLog[:cut] {
		evicted[ev.ID] = true
	}
	w.EventLog = append([]*event.Event(nil), w.EventLog[cut:]...)
	w.UndoStack = filterIDs(w.UndoStack, evicted)
	w.RedoStack = filterIDs(w.RedoStack, evicted)
}

func filterIDs(ids []string, drop map[string]bool) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !drop[id] {
			out = append(out, id)
		}
	}
	return out
}
