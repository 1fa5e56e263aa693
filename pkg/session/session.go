// Package session is the create/edit state machine of an entity list. The
// state only changes through Reduce.
package session

import (
	"github.com/go-faster/errors"
	"github.com/smart715/jobsify/pkg/db"
	v1 "github.com/smart715/jobsify/pkg/types/v1"
)

type Mode int

const (
	Closed Mode = iota
	Creating
	Editing
)

func (m Mode) String() string {
	switch m {
	case Creating:
		return "creating"
	case Editing:
		return "editing"
	}
	return "closed"
}

// Session is the state of the edit form. Record and ID are only set while
// Editing.
type Session[R any] struct {
	Mode   Mode
	ID     v1.ID
	Record R
	Draft  map[string]string
	// Errors holds per-field validation messages.
	Errors map[string]string
	// Err is the last submit failure.
	Err error
	// Generation increases every time a session opens.
	Generation uint64
}

func (s Session[R]) Open() bool { return s.Mode != Closed }

// Message is the text to show for the last submit failure.
func (s Session[R]) Message() string {
	return db.UserMessage(s.Err)
}

func (s Session[R]) clone() Session[R] {
	s.Draft = copyMap(s.Draft)
	s.Errors = copyMap(s.Errors)
	return s
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type Event interface {
	event()
}

// OpenCreate opens an empty form filled with Draft.
type OpenCreate struct {
	Draft map[string]string
}

// OpenEdit opens the form for Record, prefilled with Draft.
type OpenEdit[R any] struct {
	ID     v1.ID
	Record R
	Draft  map[string]string
}

type SetField struct {
	Name  string
	Value string
}

type Cancel struct{}

// Submitted reports a confirmed create or update for the session opened
// with Generation.
type Submitted struct {
	Generation uint64
}

type SubmitFailed struct {
	Generation uint64
	Err        error
}

// RecordDeleted closes an edit session on ID.
type RecordDeleted struct {
	ID v1.ID
}

func (OpenCreate) event()    {}
func (OpenEdit[R]) event()   {}
func (SetField) event()      {}
func (Cancel) event()        {}
func (Submitted) event()     {}
func (SubmitFailed) event()  {}
func (RecordDeleted) event() {}

// Transition describes what Reduce did.
type Transition struct {
	From, To Mode
	// Discarded is set when an open draft was thrown away, either by Cancel
	// or because another session was opened over it.
	Discarded bool
	// Ignored is set when the event did not apply to the current state.
	Ignored bool
}

// Reduce applies ev to s. It never mutates s.
func Reduce[R any](s Session[R], ev Event) (Session[R], Transition) {
	s = s.clone()
	t := Transition{From: s.Mode}

	ignore := func() (Session[R], Transition) {
		t.To, t.Ignored = s.Mode, true
		return s, t
	}

	switch e := ev.(type) {
	case OpenCreate:
		t.Discarded = s.Open()
		s = Session[R]{
			Mode:       Creating,
			Draft:      copyMap(e.Draft),
			Generation: s.Generation + 1,
		}
	case OpenEdit[R]:
		t.Discarded = s.Open()
		s = Session[R]{
			Mode:       Editing,
			ID:         e.ID,
			Record:     e.Record,
			Draft:      copyMap(e.Draft),
			Generation: s.Generation + 1,
		}
	case SetField:
		if !s.Open() {
			return ignore()
		}
		if s.Draft == nil {
			s.Draft = map[string]string{}
		}
		s.Draft[e.Name] = e.Value
		delete(s.Errors, e.Name)
	case Cancel:
		if !s.Open() {
			return ignore()
		}
		t.Discarded = true
		s = closed(s)
	case Submitted:
		if !s.Open() || e.Generation != s.Generation {
			return ignore()
		}
		s = closed(s)
	case SubmitFailed:
		if !s.Open() || e.Generation != s.Generation {
			return ignore()
		}
		s.Err = e.Err
		s.Errors = nil
		var de *db.Error
		if errors.As(e.Err, &de) && de.Kind == db.KindValidationFailed {
			s.Errors = copyMap(de.Fields)
		}
	case RecordDeleted:
		if s.Mode != Editing || s.ID != e.ID {
			return ignore()
		}
		t.Discarded = true
		s = closed(s)
	default:
		return ignore()
	}

	t.To = s.Mode
	return s, t
}

func closed[R any](s Session[R]) Session[R] {
	return Session[R]{Mode: Closed, Generation: s.Generation}
}
