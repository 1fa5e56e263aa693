// Package store holds the last known server state of one entity collection.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/smart715/jobsify/pkg/db"
	v1 "github.com/smart715/jobsify/pkg/types/v1"
)

var (
	ErrMissingID = errors.New("record has no identifier")
)

// Store is the single owner of a collection. Reads may happen from any
// goroutine; the collection only changes through Load and the Apply methods.
type Store[R any] struct {
	sync.RWMutex
	name     string
	source   db.Lister[R]
	identify func(R) v1.ID
	log      *logrus.Entry
	onStale  func()
	now      func() time.Time

	collection  []R
	settled     v1.SyncStatus
	err         error
	lastFetched time.Time
	loaded      bool
	disposed    bool

	// issued is the sequence number handed to the latest Load or local
	// mutation, applied the one the collection currently reflects. A Load
	// completing with a number at or below applied is stale.
	issued   uint64
	applied  uint64
	inflight int
}

type Option func(*options)

type options struct {
	log     *logrus.Entry
	onStale func()
	now     func() time.Time
}

func WithLogger(l *logrus.Entry) Option {
	return func(o *options) { o.log = l }
}

// WithStaleHook is called every time a stale Load result is dropped.
func WithStaleHook(f func()) Option {
	return func(o *options) { o.onStale = f }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func New[R any](name string, source db.Lister[R], identify func(R) v1.ID, opts ...Option) *Store[R] {
	o := options{
		log:     logrus.NewEntry(logrus.StandardLogger()),
		onStale: func() {},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[R]{
		name:     name,
		source:   source,
		identify: identify,
		log:      o.log.WithFields(logrus.Fields{"component": "store", "entity": name}),
		onStale:  o.onStale,
		now:      o.now,
		settled:  v1.StatusUninitialized,
	}
}

func (s *Store[R]) Name() string { return s.name }

// Identify returns the id of r.
func (s *Store[R]) Identify(r R) v1.ID { return s.identify(r) }

// Load replaces the collection with the server's. On failure the previous
// collection is kept and a FetchFailed error is returned. A result that was
// overtaken by a newer load or a confirmed mutation is dropped with a
// StaleResponse error.
func (s *Store[R]) Load(ctx context.Context) error {
	s.Lock()
	if s.disposed {
		s.Unlock()
		return db.StaleError("list", s.name, db.ErrDisposed)
	}
	s.issued++
	seq := s.issued
	s.inflight++
	s.Unlock()

	rows, err := s.source.List(ctx)

	s.Lock()
	defer s.Unlock()
	s.inflight--

	if s.disposed {
		return db.StaleError("list", s.name, db.ErrDisposed)
	}
	if seq <= s.applied {
		s.log.WithFields(logrus.Fields{"seq": seq, "applied": s.applied}).Debug("dropping stale list response")
		s.onStale()
		return db.StaleError("list", s.name, nil)
	}
	s.applied = seq

	if err != nil {
		if db.KindOf(err) == db.KindUnknown {
			err = db.FetchError(s.name, 0, "", err)
		}
		s.err = err
		s.settled = v1.StatusError
		s.log.WithError(err).Warn("load failed")
		return err
	}

	s.collection = s.dedupe(rows)
	s.err = nil
	s.settled = v1.StatusOK
	s.loaded = true
	s.lastFetched = s.now()
	s.log.WithField("count", len(s.collection)).Debug("collection loaded")
	return nil
}

// dedupe keeps the first record of every id.
func (s *Store[R]) dedupe(rows []R) []R {
	seen := make(map[v1.ID]bool, len(rows))
	out := make([]R, 0, len(rows))
	for _, r := range rows {
		id := s.identify(r)
		if id != "" && seen[id] {
			s.log.WithField("id", id).Warn("duplicate id in list response, keeping the first")
			continue
		}
		seen[id] = true
		out = append(out, r)
	}
	return out
}

// bump marks the collection as newer than every load issued so far. Callers
// hold the lock.
func (s *Store[R]) bump() {
	s.issued++
	s.applied = s.issued
}

func (s *Store[R]) indexOf(id v1.ID) int {
	for i, r := range s.collection {
		if s.identify(r) == id {
			return i
		}
	}
	return -1
}

// ApplyCreated puts a confirmed new record at the front of the collection.
// A record whose id is already present replaces that entry in place.
func (s *Store[R]) ApplyCreated(r R) error {
	id := s.identify(r)
	if id == "" {
		return errors.Wrapf(ErrMissingID, "apply created %s", s.name)
	}

	s.Lock()
	defer s.Unlock()
	if s.disposed {
		return db.StaleError("create", s.name, db.ErrDisposed)
	}

	next := make([]R, 0, len(s.collection)+1)
	if i := s.indexOf(id); i >= 0 {
		next = append(next, s.collection...)
		next[i] = r
	} else {
		next = append(next, r)
		next = append(next, s.collection...)
	}
	s.collection = next
	s.bump()
	return nil
}

// ApplyUpdated replaces the entry with r's id. Without a match the
// collection is left alone and ErrNoEntryFound is returned.
func (s *Store[R]) ApplyUpdated(r R) error {
	id := s.identify(r)

	s.Lock()
	defer s.Unlock()
	if s.disposed {
		return db.StaleError("update", s.name, db.ErrDisposed)
	}

	i := s.indexOf(id)
	if id == "" || i < 0 {
		s.log.WithField("id", id).Warn("updated record is not in the collection")
		return errors.Wrapf(db.ErrNoEntryFound, "apply updated %s %s", s.name, id)
	}
	next := make([]R, len(s.collection))
	copy(next, s.collection)
	next[i] = r
	s.collection = next
	s.bump()
	return nil
}

// ApplyDeleted removes the entry with id. Deleting an id that is not
// present is a no-op reported as ErrNoEntryFound.
func (s *Store[R]) ApplyDeleted(id v1.ID) error {
	s.Lock()
	defer s.Unlock()
	if s.disposed {
		return db.StaleError("delete", s.name, db.ErrDisposed)
	}

	i := s.indexOf(id)
	if i < 0 {
		s.log.WithField("id", id).Warn("deleted record is not in the collection")
		return errors.Wrapf(db.ErrNoEntryFound, "apply deleted %s %s", s.name, id)
	}
	next := make([]R, 0, len(s.collection)-1)
	next = append(next, s.collection[:i]...)
	next = append(next, s.collection[i+1:]...)
	s.collection = next
	s.bump()
	return nil
}

// Dispose freezes the store; results arriving afterwards are dropped.
func (s *Store[R]) Dispose() {
	s.Lock()
	defer s.Unlock()
	s.disposed = true
}

func (s *Store[R]) Disposed() bool {
	s.RLock()
	defer s.RUnlock()
	return s.disposed
}

// Snapshot returns a copy of the collection in server order.
func (s *Store[R]) Snapshot() []R {
	s.RLock()
	defer s.RUnlock()
	out := make([]R, len(s.collection))
	copy(out, s.collection)
	return out
}

func (s *Store[R]) Get(id v1.ID) (R, bool) {
	s.RLock()
	defer s.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.collection[i], true
	}
	var zero R
	return zero, false
}

func (s *Store[R]) Len() int {
	s.RLock()
	defer s.RUnlock()
	return len(s.collection)
}

// Status is synchronizing while any load is in flight, otherwise the
// outcome of the latest applied load.
func (s *Store[R]) Status() v1.SyncStatus {
	s.RLock()
	defer s.RUnlock()
	switch {
	case s.disposed:
		return v1.StatusDisposed
	case s.inflight > 0:
		return v1.StatusSynchronizing
	}
	return s.settled
}

// Err is the error of the latest applied load, nil after a success.
func (s *Store[R]) Err() error {
	s.RLock()
	defer s.RUnlock()
	return s.err
}

// Loaded reports whether any load has succeeded.
func (s *Store[R]) Loaded() bool {
	s.RLock()
	defer s.RUnlock()
	return s.loaded
}

func (s *Store[R]) LastFetched() time.Time {
	s.RLock()
	defer s.RUnlock()
	return s.lastFetched
}
