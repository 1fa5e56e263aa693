package session

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-faster/errors"
	"github.com/smart715/jobsify/pkg/db"
	v1 "github.com/smart715/jobsify/pkg/types/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduceOpenAndClose(t *testing.T) {
	var s Session[v1.Record]

	s, tr := Reduce(s, OpenCreate{Draft: map[string]string{"name": ""}})
	assert.Equal(t, Creating, s.Mode)
	assert.Equal(t, Transition{From: Closed, To: Creating}, tr)
	assert.Equal(t, uint64(1), s.Generation)

	s, tr = Reduce(s, Cancel{})
	assert.Equal(t, Closed, s.Mode)
	assert.True(t, tr.Discarded)
	assert.Nil(t, s.Draft)

	rec := v1.Record{"id": "5", "name": "Acme"}
	s, _ = Reduce(s, OpenEdit[v1.Record]{ID: "5", Record: rec, Draft: map[string]string{"name": "Acme"}})
	assert.Equal(t, Editing, s.Mode)
	assert.Equal(t, v1.ID("5"), s.ID)
	assert.Equal(t, uint64(2), s.Generation)

	s, tr = Reduce(s, Submitted{Generation: 2})
	assert.Equal(t, Closed, s.Mode)
	assert.False(t, tr.Discarded)
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s, _ := Reduce(Session[v1.Record]{}, OpenCreate{Draft: map[string]string{"name": "a"}})
	next, _ := Reduce(s, SetField{Name: "name", Value: "b"})
	assert.Equal(t, "a", s.Draft["name"])
	assert.Equal(t, "b", next.Draft["name"])
}

func TestOpeningOverAnOpenSessionDiscardsIt(t *testing.T) {
	s, _ := Reduce(Session[v1.Record]{}, OpenCreate{})
	s, _ = Reduce(s, SetField{Name: "name", Value: "typed"})

	s, tr := Reduce(s, OpenEdit[v1.Record]{ID: "1", Draft: map[string]string{"name": "Acme"}})
	assert.True(t, tr.Discarded)
	assert.Equal(t, Transition{From: Creating, To: Editing, Discarded: true}, tr)
	assert.Equal(t, "Acme", s.Draft["name"])
	assert.Equal(t, uint64(2), s.Generation)
}

func TestEventsOnClosedSessionAreIgnored(t *testing.T) {
	for _, ev := range []Event{Cancel{}, SetField{Name: "x"}, Submitted{}, SubmitFailed{}, RecordDeleted{ID: "1"}} {
		s, tr := Reduce(Session[v1.Record]{}, ev)
		assert.True(t, tr.Ignored, "%T", ev)
		assert.Equal(t, Closed, s.Mode)
	}
}

func TestSubmitFailedKeepsSessionOpen(t *testing.T) {
	s, _ := Reduce(Session[v1.Record]{}, OpenCreate{})
	verr := db.ValidationError("companies", map[string]string{"email": "Email must be a valid email"})

	s, tr := Reduce(s, SubmitFailed{Generation: 1, Err: verr})
	assert.Equal(t, Creating, tr.To)
	assert.Equal(t, "Email must be a valid email", s.Errors["email"])
	assert.Equal(t, "Please fix the highlighted fields", s.Message())

	s, _ = Reduce(s, SetField{Name: "email", Value: "a@b.co"})
	assert.Empty(t, s.Errors)
	assert.Error(t, s.Err, "the submit error stays until the next submit")
}

func TestOutcomeForOlderGenerationIsIgnored(t *testing.T) {
	s, _ := Reduce(Session[v1.Record]{}, OpenCreate{})
	s, _ = Reduce(s, OpenCreate{})

	s, tr := Reduce(s, Submitted{Generation: 1})
	assert.True(t, tr.Ignored)
	assert.Equal(t, Creating, s.Mode)

	s, tr = Reduce(s, SubmitFailed{Generation: 1, Err: errors.New("boom")})
	assert.True(t, tr.Ignored)
	assert.NoError(t, s.Err)
}

func TestRecordDeletedClosesMatchingEdit(t *testing.T) {
	s, _ := Reduce(Session[v1.Record]{}, OpenEdit[v1.Record]{ID: "7"})

	s, tr := Reduce(s, RecordDeleted{ID: "8"})
	assert.True(t, tr.Ignored)
	assert.Equal(t, Editing, s.Mode)

	s, tr = Reduce(s, RecordDeleted{ID: "7"})
	assert.Equal(t, Closed, s.Mode)
	assert.True(t, tr.Discarded)

	creating, _ := Reduce(Session[v1.Record]{}, OpenCreate{})
	_, tr = Reduce(creating, RecordDeleted{ID: "7"})
	assert.True(t, tr.Ignored)
}

func companyForm(t *testing.T) *RecordForm {
	t.Helper()
	f, err := NewRecordForm(
		Field{Name: "name", Label: "Name"},
		Field{Name: "email", Label: "Email", Rules: "omitempty,email"},
		Field{Name: "employees", Label: "Employees", Kind: KindNumber, Rules: "gte=1"},
		Field{Name: "active", Label: "Active", Kind: KindBool, Default: "yes"},
		Field{Name: "founded", Label: "Founded", Kind: KindDate},
	)
	require.NoError(t, err)
	return f
}

func TestRecordFormValidate(t *testing.T) {
	f, err := NewRecordForm(
		Field{Name: "name", Label: "Name", Rules: "required,min=2"},
		Field{Name: "email", Label: "Email", Rules: "email"},
		Field{Name: "employees", Label: "Employees", Kind: KindNumber, Rules: "gte=1"},
		Field{Name: "active", Label: "Active", Kind: KindBool},
		Field{Name: "founded", Label: "Founded", Kind: KindDate},
	)
	require.NoError(t, err)

	errs := f.Validate(map[string]string{
		"name":      "  ",
		"email":     "not-an-email",
		"employees": "0",
		"active":    "maybe",
		"founded":   "yesterday",
	})
	assert.Equal(t, map[string]string{
		"name":      "Name is required",
		"email":     "Email must be a valid email",
		"employees": "Employees must be at least 1",
		"active":    "Active must be yes or no",
		"founded":   "Founded must be a date (YYYY-MM-DD)",
	}, errs)

	assert.Equal(t, "Name must be at least 2 characters", f.Validate(map[string]string{"name": "A"})["name"])
	assert.Equal(t, "Employees must be a number", f.Validate(map[string]string{"name": "Acme", "employees": "ten"})["employees"])

	assert.Nil(t, f.Validate(map[string]string{
		"name":      "Acme",
		"email":     "ops@acme.test",
		"employees": "12",
		"active":    "no",
		"founded":   "2001-04-01",
	}))
	assert.Nil(t, f.Validate(map[string]string{"name": "Acme"}), "empty optional fields are valid")
}

func TestNewRecordFormRejectsUnknownKind(t *testing.T) {
	_, err := NewRecordForm(Field{Name: "x", Kind: "color"})
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestRecordFormPayload(t *testing.T) {
	f := companyForm(t)

	p, err := f.Payload(map[string]string{
		"name":      "Acme",
		"employees": " 12 ",
		"active":    "yes",
		"founded":   "2001-04-01T00:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, v1.Record{
		"name":      "Acme",
		"email":     "",
		"employees": json.Number("12"),
		"active":    true,
		"founded":   "2001-04-01",
	}, p)

	p, err = f.Payload(map[string]string{"name": "Acme"})
	require.NoError(t, err)
	assert.Nil(t, p["employees"])
	assert.Contains(t, p, "employees")
}

func TestRecordFormDefaultsAndPrefill(t *testing.T) {
	f := companyForm(t)
	assert.Equal(t, "yes", f.Defaults()["active"])

	draft := f.Prefill(v1.Record{
		"name":      "Acme",
		"employees": json.Number("40"),
		"active":    false,
		"founded":   "2001-04-01T10:00:00Z",
	})
	assert.Equal(t, map[string]string{
		"name":      "Acme",
		"email":     "",
		"employees": "40",
		"active":    "false",
		"founded":   "2001-04-01",
	}, draft)
}

type fakeCommitter struct {
	created []v1.Record
	updated map[v1.ID]v1.Record
	err     error
	entered chan struct{}
	gate    chan struct{}
}

func (f *fakeCommitter) Create(ctx context.Context, p v1.Record) (v1.Record, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, p)
	out := p.Clone()
	out["id"] = json.Number("100")
	return out, nil
}

func (f *fakeCommitter) Update(ctx context.Context, id v1.ID, p v1.Record) (v1.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.updated == nil {
		f.updated = map[v1.ID]v1.Record{}
	}
	f.updated[id] = p
	return p, nil
}

func TestMachineSubmitCreate(t *testing.T) {
	m := NewMachine[v1.Record]("companies", companyForm(t), v1.IdentifyBy("id"))
	m.OpenCreate()
	m.SetField("name", "Acme")

	c := &fakeCommitter{}
	out, err := m.Submit(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, json.Number("100"), out["id"])
	require.Len(t, c.created, 1)
	assert.Equal(t, true, c.created[0]["active"], "defaults are sent")
	assert.Equal(t, Closed, m.State().Mode)
}

func TestMachineSubmitUpdate(t *testing.T) {
	m := NewMachine[v1.Record]("companies", companyForm(t), v1.IdentifyBy("id"))
	m.OpenEdit(v1.Record{"id": json.Number("5"), "name": "Acme", "active": true})
	m.SetField("name", "Acme Inc")

	c := &fakeCommitter{}
	_, err := m.Submit(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "Acme Inc", c.updated["5"]["name"])
	assert.Equal(t, Closed, m.State().Mode)
}

func TestSubmitNameRequiredByServer(t *testing.T) {
	m := NewMachine[v1.Record]("companies", companyForm(t), v1.IdentifyBy("id"))
	m.OpenCreate()

	c := &fakeCommitter{err: db.MutationError("create", "companies", http.StatusBadRequest, "Name required", nil)}
	_, err := m.Submit(context.Background(), c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrMutationFailed))

	s := m.State()
	assert.Equal(t, Creating, s.Mode)
	assert.Equal(t, "Name required", s.Message())
}

func TestSubmitInvalidDraftIsNotSent(t *testing.T) {
	m := NewMachine[v1.Record]("companies", companyForm(t), v1.IdentifyBy("id"))
	m.OpenCreate()
	m.SetField("employees", "-3")

	c := &fakeCommitter{}
	_, err := m.Submit(context.Background(), c)
	assert.True(t, errors.Is(err, db.ErrValidationFailed))
	assert.Empty(t, c.created)

	s := m.State()
	assert.Equal(t, Creating, s.Mode)
	assert.Equal(t, "Employees must be at least 1", s.Errors["employees"])
}

func TestSubmitOnClosedSession(t *testing.T) {
	m := NewMachine[v1.Record]("companies", companyForm(t), v1.IdentifyBy("id"))
	_, err := m.Submit(context.Background(), &fakeCommitter{})
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestSessionReopenedWhileSubmitting(t *testing.T) {
	m := NewMachine[v1.Record]("companies", companyForm(t), v1.IdentifyBy("id"))
	m.OpenCreate()
	m.SetField("name", "First")

	c := &fakeCommitter{entered: make(chan struct{}, 1), gate: make(chan struct{})}
	done := make(chan error, 1)
	go func() {
		_, err := m.Submit(context.Background(), c)
		done <- err
	}()

	<-c.entered
	m.Cancel()
	m.OpenCreate()
	m.SetField("name", "Second")
	close(c.gate)
	require.NoError(t, <-done)

	s := m.State()
	assert.Equal(t, Creating, s.Mode)
	assert.Equal(t, "Second", s.Draft["name"])
	assert.Equal(t, uint64(2), s.Generation)
}
