package store

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/smart715/jobsify/pkg/db"
	v1 "github.com/smart715/jobsify/pkg/types/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	rows []v1.Record
	err  error
}

// gatedLister blocks every List call until the test releases it.
type gatedLister struct {
	mu      sync.Mutex
	gates   []chan result
	started chan struct{}
}

func newGatedLister() *gatedLister {
	return &gatedLister{started: make(chan struct{}, 8)}
}

func (g *gatedLister) List(ctx context.Context) ([]v1.Record, error) {
	ch := make(chan result, 1)
	g.mu.Lock()
	g.gates = append(g.gates, ch)
	g.mu.Unlock()
	g.started <- struct{}{}
	r := <-ch
	return r.rows, r.err
}

func (g *gatedLister) release(i int, r result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gates[i] <- r
}

type staticLister struct {
	rows []v1.Record
	err  error
}

func (s staticLister) List(ctx context.Context) ([]v1.Record, error) {
	return s.rows, s.err
}

func rec(id int, name string) v1.Record {
	return v1.Record{"id": json.Number(strconv.Itoa(id)), "name": name}
}

func names(rows []v1.Record) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i], _ = r["name"].(string)
	}
	return out
}

func newStore(l db.Lister[v1.Record], opts ...Option) *Store[v1.Record] {
	return New[v1.Record]("companies", l, v1.IdentifyBy("id"), opts...)
}

func loadAsync(s *Store[v1.Record]) <-chan error {
	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background()) }()
	return done
}

func TestStaleResponseGuard(t *testing.T) {
	l := newGatedLister()
	stale := 0
	s := newStore(l, WithStaleHook(func() { stale++ }))

	first := loadAsync(s)
	<-l.started
	second := loadAsync(s)
	<-l.started
	assert.Equal(t, v1.StatusSynchronizing, s.Status())

	l.release(1, result{rows: []v1.Record{rec(2, "second")}})
	require.NoError(t, <-second)

	l.release(0, result{rows: []v1.Record{rec(1, "first")}})
	err := <-first
	require.Error(t, err)
	assert.True(t, db.IsStale(err))

	assert.Equal(t, []string{"second"}, names(s.Snapshot()))
	assert.Equal(t, v1.StatusOK, s.Status())
	assert.Equal(t, 1, stale)
}

func TestInOrderResponsesBothApply(t *testing.T) {
	l := newGatedLister()
	s := newStore(l)

	first := loadAsync(s)
	<-l.started
	second := loadAsync(s)
	<-l.started

	l.release(0, result{rows: []v1.Record{rec(1, "first")}})
	require.NoError(t, <-first)
	l.release(1, result{rows: []v1.Record{rec(2, "second")}})
	require.NoError(t, <-second)
	assert.Equal(t, []string{"second"}, names(s.Snapshot()))
}

func TestLoadIssuedBeforeMutationIsStale(t *testing.T) {
	l := newGatedLister()
	s := newStore(l)

	pending := loadAsync(s)
	<-l.started
	require.NoError(t, s.ApplyCreated(rec(9, "created")))

	l.release(0, result{rows: []v1.Record{rec(1, "old")}})
	assert.True(t, db.IsStale(<-pending))
	assert.Equal(t, []string{"created"}, names(s.Snapshot()))
	assert.Equal(t, v1.StatusUninitialized, s.Status(), "no load has landed yet")
}

func TestLoadFailureKeepsCollection(t *testing.T) {
	s := newStore(staticLister{rows: []v1.Record{rec(1, "Acme")}})
	require.NoError(t, s.Load(context.Background()))
	assert.True(t, s.Loaded())

	s.source = staticLister{err: errors.New("connection refused")}
	err := s.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrFetchFailed))
	assert.Equal(t, v1.StatusError, s.Status())
	assert.Equal(t, err, s.Err())
	assert.Equal(t, []string{"Acme"}, names(s.Snapshot()))
}

func TestFailedFirstLoadIsNotEmpty(t *testing.T) {
	s := newStore(staticLister{err: db.FetchError("companies", 500, "boom", nil)})
	err := s.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, "boom", db.UserMessage(err))
	assert.False(t, s.Loaded())
	assert.Equal(t, v1.StatusError, s.Status())

	empty := newStore(staticLister{})
	require.NoError(t, empty.Load(context.Background()))
	assert.True(t, empty.Loaded())
	assert.Zero(t, empty.Len())
	assert.Equal(t, v1.StatusOK, empty.Status())
}

func TestLoadDropsDuplicateIDs(t *testing.T) {
	s := newStore(staticLister{rows: []v1.Record{rec(1, "a"), rec(2, "b"), rec(1, "c")}})
	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, []string{"a", "b"}, names(s.Snapshot()))
}

func TestApplyCreatedPrepends(t *testing.T) {
	s := newStore(staticLister{rows: []v1.Record{rec(1, "a"), rec(2, "b")}})
	require.NoError(t, s.Load(context.Background()))

	require.NoError(t, s.ApplyCreated(rec(3, "c")))
	assert.Equal(t, []string{"c", "a", "b"}, names(s.Snapshot()))

	require.NoError(t, s.ApplyCreated(rec(2, "b2")))
	assert.Equal(t, []string{"c", "a", "b2"}, names(s.Snapshot()), "existing ids are replaced in place")

	err := s.ApplyCreated(v1.Record{"name": "no id"})
	assert.True(t, errors.Is(err, ErrMissingID))
	assert.Equal(t, 3, s.Len())
}

func TestApplyUpdated(t *testing.T) {
	s := newStore(staticLister{rows: []v1.Record{rec(1, "a"), rec(2, "b")}})
	require.NoError(t, s.Load(context.Background()))
	before := s.Snapshot()

	require.NoError(t, s.ApplyUpdated(rec(2, "B")))
	assert.Equal(t, []string{"a", "B"}, names(s.Snapshot()))
	assert.Equal(t, []string{"a", "b"}, names(before), "snapshots are copies")

	err := s.ApplyUpdated(rec(7, "x"))
	assert.True(t, errors.Is(err, db.ErrNoEntryFound))
	assert.Equal(t, []string{"a", "B"}, names(s.Snapshot()))
}

func TestApplyDeletedMissingIsNoop(t *testing.T) {
	s := newStore(staticLister{rows: []v1.Record{rec(1, "a"), rec(2, "b")}})
	require.NoError(t, s.Load(context.Background()))

	err := s.ApplyDeleted("5")
	assert.True(t, errors.Is(err, db.ErrNoEntryFound))
	assert.Equal(t, []string{"a", "b"}, names(s.Snapshot()))

	require.NoError(t, s.ApplyDeleted("1"))
	assert.Equal(t, []string{"b"}, names(s.Snapshot()))
	_, ok := s.Get("1")
	assert.False(t, ok)
}

func TestDisposeDropsLateResults(t *testing.T) {
	l := newGatedLister()
	s := newStore(l)

	pending := loadAsync(s)
	<-l.started
	s.Dispose()
	l.release(0, result{rows: []v1.Record{rec(1, "late")}})

	err := <-pending
	assert.True(t, db.IsStale(err))
	assert.True(t, errors.Is(err, db.ErrDisposed))
	assert.Zero(t, s.Len())
	assert.Equal(t, v1.StatusDisposed, s.Status())
	assert.True(t, errors.Is(s.ApplyCreated(rec(2, "x")), db.ErrDisposed))
	assert.True(t, errors.Is(s.Load(context.Background()), db.ErrDisposed))
}

func TestLastFetchedUsesClock(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s := newStore(staticLister{}, WithClock(func() time.Time { return at }))
	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, at, s.LastFetched())
}
