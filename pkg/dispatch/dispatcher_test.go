package dispatch

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-faster/errors"
	"github.com/smart715/jobsify/pkg/db"
	"github.com/smart715/jobsify/pkg/db/memory"
	"github.com/smart715/jobsify/pkg/store"
	v1 "github.com/smart715/jobsify/pkg/types/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	success []string
	errors  []string
}

func (r *recorder) Success(msg string) { r.success = append(r.success, msg) }
func (r *recorder) Error(msg string)   { r.errors = append(r.errors, msg) }

// counting wraps a collection and records every call that reaches it.
type counting struct {
	*memory.Collection
	calls []string
}

func (c *counting) List(ctx context.Context) ([]v1.Record, error) {
	c.calls = append(c.calls, "list")
	return c.Collection.List(ctx)
}

func (c *counting) Create(ctx context.Context, r v1.Record) (v1.Record, error) {
	c.calls = append(c.calls, "create")
	return c.Collection.Create(ctx, r)
}

func (c *counting) Update(ctx context.Context, id v1.ID, r v1.Record) (v1.Record, error) {
	c.calls = append(c.calls, "update")
	return c.Collection.Update(ctx, id, r)
}

func (c *counting) Delete(ctx context.Context, id v1.ID) error {
	c.calls = append(c.calls, "delete")
	return c.Collection.Delete(ctx, id)
}

type fixture struct {
	server *counting
	store  *store.Store[v1.Record]
	notes  *recorder
	d      *Dispatcher[v1.Record]
}

func setup(t *testing.T, reconcile Reconcile) *fixture {
	t.Helper()
	mem := memory.New("companies", "id", "name")
	mem.Seed(v1.Record{"name": "Acme"}, v1.Record{"name": "Bento"})
	server := &counting{Collection: mem}

	st := store.New[v1.Record]("companies", server, v1.IdentifyBy("id"))
	require.NoError(t, st.Load(context.Background()))
	server.calls = nil

	notes := &recorder{}
	d := New[v1.Record]("companies", server, st, v1.IdentifyBy("id"),
		WithReconcile(reconcile), WithNotifier(notes), WithLabel("Company"))
	return &fixture{server: server, store: st, notes: notes, d: d}
}

func names(rows []v1.Record) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i], _ = r["name"].(string)
	}
	return out
}

func TestParseReconcile(t *testing.T) {
	r, err := ParseReconcile("")
	require.NoError(t, err)
	assert.Equal(t, Optimistic, r)

	r, err = ParseReconcile("Refetch")
	require.NoError(t, err)
	assert.Equal(t, Refetch, r)

	_, err = ParseReconcile("eventually")
	assert.Error(t, err)
}

func TestCreateOptimistic(t *testing.T) {
	f := setup(t, Optimistic)

	created, err := f.d.Create(context.Background(), v1.Record{"name": "Cobalt"})
	require.NoError(t, err)
	assert.Equal(t, json.Number("3"), created["id"])
	assert.Equal(t, []string{"Cobalt", "Acme", "Bento"}, names(f.store.Snapshot()))
	assert.Equal(t, []string{"create"}, f.server.calls)
	assert.Equal(t, []string{"Company created"}, f.notes.success)
}

func TestCreateRefetch(t *testing.T) {
	f := setup(t, Refetch)

	_, err := f.d.Create(context.Background(), v1.Record{"name": "Cobalt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Bento", "Cobalt"}, names(f.store.Snapshot()), "server order")
	assert.Equal(t, []string{"create", "list"}, f.server.calls)
}

func TestCreateFailureLeavesStore(t *testing.T) {
	f := setup(t, Optimistic)
	before := f.store.Snapshot()

	_, err := f.d.Create(context.Background(), v1.Record{"name": ""})
	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrMutationFailed))
	assert.Equal(t, "Name required", db.UserMessage(err))
	assert.Equal(t, before, f.store.Snapshot())
	assert.Equal(t, []string{"Name required"}, f.notes.errors)
	assert.Empty(t, f.notes.success)
}

type noID struct{ *memory.Collection }

func (n noID) Create(ctx context.Context, r v1.Record) (v1.Record, error) {
	out, err := n.Collection.Create(ctx, r)
	if err != nil {
		return nil, err
	}
	delete(out, "id")
	return out, nil
}

func TestCreateWithoutIDReloads(t *testing.T) {
	mem := memory.New("companies", "id")
	mem.Seed(v1.Record{"name": "Acme"})
	st := store.New[v1.Record]("companies", mem, v1.IdentifyBy("id"))
	require.NoError(t, st.Load(context.Background()))

	d := New[v1.Record]("companies", noID{mem}, st, v1.IdentifyBy("id"))
	_, err := d.Create(context.Background(), v1.Record{"name": "Bento"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Bento"}, names(st.Snapshot()))
}

func TestUpdateOptimistic(t *testing.T) {
	f := setup(t, Optimistic)

	updated, err := f.d.Update(context.Background(), "2", v1.Record{"name": "Bento Box"})
	require.NoError(t, err)
	assert.Equal(t, json.Number("2"), updated["id"])
	assert.Equal(t, []string{"Acme", "Bento Box"}, names(f.store.Snapshot()))
	assert.Equal(t, []string{"update"}, f.server.calls)
	assert.Equal(t, []string{"Company updated"}, f.notes.success)
}

func TestUpdateUnknownLocallyReloads(t *testing.T) {
	f := setup(t, Optimistic)
	f.server.Seed(v1.Record{"name": "Cobalt"})

	_, err := f.d.Update(context.Background(), "3", v1.Record{"name": "Cobalt Ltd"})
	require.NoError(t, err)
	assert.Equal(t, []string{"update", "list"}, f.server.calls)
	assert.Equal(t, []string{"Acme", "Bento", "Cobalt Ltd"}, names(f.store.Snapshot()))
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	f := setup(t, Optimistic)

	req := f.d.PrepareDelete("1")
	err := f.d.Delete(context.Background(), req)
	assert.True(t, errors.Is(err, db.ErrNotConfirmed))
	assert.Empty(t, f.server.calls, "nothing is sent before confirmation")
	assert.Equal(t, 2, f.store.Len())

	assert.True(t, errors.Is(f.d.Delete(context.Background(), nil), db.ErrNotConfirmed))
}

func TestDeleteConfirmed(t *testing.T) {
	f := setup(t, Optimistic)

	req := f.d.PrepareDelete("1")
	req.Confirm()
	require.NoError(t, f.d.Delete(context.Background(), req))
	assert.Equal(t, []string{"Bento"}, names(f.store.Snapshot()))
	assert.Equal(t, 1, f.server.Count())
	assert.Equal(t, []string{"Company deleted"}, f.notes.success)
}

func TestDeleteFailureKeepsRow(t *testing.T) {
	f := setup(t, Optimistic)

	req := f.d.PrepareDelete("42")
	req.Confirm()
	err := f.d.Delete(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrMutationFailed))
	assert.Equal(t, 2, f.store.Len())
	assert.Len(t, f.notes.errors, 1)
}

func TestDeleteMissingLocallyStillSucceeds(t *testing.T) {
	f := setup(t, Optimistic)
	f.server.Seed(v1.Record{"name": "Cobalt"})

	req := f.d.PrepareDelete("3")
	req.Confirm()
	require.NoError(t, f.d.Delete(context.Background(), req))
	assert.Equal(t, []string{"Acme", "Bento"}, names(f.store.Snapshot()))
	assert.Equal(t, []string{"Company deleted"}, f.notes.success)
}

func TestDeleteRefetch(t *testing.T) {
	f := setup(t, Refetch)

	req := f.d.PrepareDelete("2")
	req.Confirm()
	require.NoError(t, f.d.Delete(context.Background(), req))
	assert.Equal(t, []string{"delete", "list"}, f.server.calls)
	assert.Equal(t, []string{"Acme"}, names(f.store.Snapshot()))
}
