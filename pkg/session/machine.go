package session

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/smart715/jobsify/pkg/db"
	v1 "github.com/smart715/jobsify/pkg/types/v1"
)

var ErrClosed = errors.New("no edit session is open")

// Committer sends a validated draft to the server. dispatch.Dispatcher
// implements it.
type Committer[R any] interface {
	Create(ctx context.Context, payload R) (R, error)
	Update(ctx context.Context, id v1.ID, payload R) (R, error)
}

// Machine holds one Session and serializes the events applied to it.
type Machine[R any] struct {
	mu       sync.Mutex
	entity   string
	form     Form[R]
	identify func(R) v1.ID
	state    Session[R]
}

func NewMachine[R any](entity string, form Form[R], identify func(R) v1.ID) *Machine[R] {
	return &Machine[R]{entity: entity, form: form, identify: identify}
}

func (m *Machine[R]) Form() Form[R] { return m.form }

// State returns a copy of the current session.
func (m *Machine[R]) State() Session[R] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

func (m *Machine[R]) Dispatch(ev Event) Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dispatch(ev)
}

func (m *Machine[R]) dispatch(ev Event) Transition {
	var t Transition
	m.state, t = Reduce(m.state, ev)
	return t
}

func (m *Machine[R]) OpenCreate() Transition {
	return m.Dispatch(OpenCreate{Draft: m.form.Defaults()})
}

func (m *Machine[R]) OpenEdit(r R) Transition {
	return m.Dispatch(OpenEdit[R]{ID: m.identify(r), Record: r, Draft: m.form.Prefill(r)})
}

func (m *Machine[R]) SetField(name, value string) Transition {
	return m.Dispatch(SetField{Name: name, Value: value})
}

func (m *Machine[R]) Cancel() Transition {
	return m.Dispatch(Cancel{})
}

func (m *Machine[R]) RecordDeleted(id v1.ID) Transition {
	return m.Dispatch(RecordDeleted{ID: id})
}

// Submit validates the draft and sends it through c. A draft that fails
// validation is never sent. When the session was closed or reopened while
// the request was in flight, the outcome is returned but the session is
// left as it is.
func (m *Machine[R]) Submit(ctx context.Context, c Committer[R]) (R, error) {
	var zero R

	m.mu.Lock()
	s := m.state.clone()
	if !s.Open() {
		m.mu.Unlock()
		return zero, ErrClosed
	}
	if fields := m.form.Validate(s.Draft); len(fields) > 0 {
		err := db.ValidationError(m.entity, fields)
		m.dispatch(SubmitFailed{Generation: s.Generation, Err: err})
		m.mu.Unlock()
		return zero, err
	}
	payload, err := m.form.Payload(s.Draft)
	if err != nil {
		verr := &db.Error{Kind: db.KindValidationFailed, Op: "validate", Entity: m.entity, Err: err}
		m.dispatch(SubmitFailed{Generation: s.Generation, Err: verr})
		m.mu.Unlock()
		return zero, verr
	}
	m.mu.Unlock()

	var out R
	if s.Mode == Creating {
		out, err = c.Create(ctx, payload)
	} else {
		out, err = c.Update(ctx, s.ID, payload)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.dispatch(SubmitFailed{Generation: s.Generation, Err: err})
		return zero, err
	}
	m.dispatch(Submitted{Generation: s.Generation})
	return out, nil
}
