// Package entity is the list controller shared by every entity type: it
// owns the filter, sort and page of one view and routes edits through the
// session and the dispatcher.
package entity

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/smart715/jobsify/pkg/db"
	"github.com/smart715/jobsify/pkg/dispatch"
	"github.com/smart715/jobsify/pkg/listing"
	"github.com/smart715/jobsify/pkg/session"
	"github.com/smart715/jobsify/pkg/store"
	v1 "github.com/smart715/jobsify/pkg/types/v1"
)

// RenderState is what the list body should show.
type RenderState int

const (
	Loading RenderState = iota
	Failed
	Empty
	NoResults
	Ready
)

func (s RenderState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Failed:
		return "failed"
	case Empty:
		return "empty"
	case NoResults:
		return "no results"
	}
	return "ready"
}

// View is everything needed to draw the list once.
type View[R any] struct {
	listing.View[R]
	State  RenderState
	Filter listing.FilterState
	Sort   listing.SortState
	Status v1.SyncStatus
	// Err is the last load failure. It can be set while State is Ready,
	// when a reload failed over data that is still shown.
	Err         error
	LastFetched time.Time
}

// Message is the text for a Failed view or a failed reload.
func (v View[R]) Message() string {
	return db.UserMessage(v.Err)
}

type Controller[R any] struct {
	mu       sync.Mutex
	name     string
	label    string
	engine   *listing.Engine[R]
	store    *store.Store[R]
	dispatch *dispatch.Dispatcher[R]
	machine  *session.Machine[R]
	log      *logrus.Entry

	filter listing.FilterState
	sort   listing.SortState
	page   listing.PageState
}

type Option func(*options)

type options struct {
	label    string
	pageSize int
	log      *logrus.Entry
}

// WithLabel is the singular display name, e.g. "company".
func WithLabel(label string) Option {
	return func(o *options) { o.label = label }
}

// WithPageSize sets the page size a new view opens with.
func WithPageSize(n int) Option {
	return func(o *options) { o.pageSize = n }
}

func WithLogger(l *logrus.Entry) Option {
	return func(o *options) { o.log = l }
}

func New[R any](name string, engine *listing.Engine[R], st *store.Store[R], d *dispatch.Dispatcher[R], m *session.Machine[R], opts ...Option) *Controller[R] {
	o := options{
		label:    name,
		pageSize: listing.DefaultPageSize,
		log:      logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Controller[R]{
		name:     name,
		label:    o.label,
		engine:   engine,
		store:    st,
		dispatch: d,
		machine:  m,
		log:      o.log.WithFields(logrus.Fields{"component": "controller", "entity": name}),
		page:     listing.PageState{Size: o.pageSize}.Normalized(),
	}
}

func (c *Controller[R]) Name() string  { return c.name }
func (c *Controller[R]) Label() string { return c.label }

func (c *Controller[R]) Engine() *listing.Engine[R] { return c.engine }

func (c *Controller[R]) Store() *store.Store[R] { return c.store }

func (c *Controller[R]) Identify(r R) v1.ID { return c.store.Identify(r) }

// Load reads the collection. Stale results are dropped silently and
// reported as nil.
func (c *Controller[R]) Load(ctx context.Context) error {
	err := c.store.Load(ctx)
	if db.IsStale(err) {
		return nil
	}
	return err
}

// SetQuery replaces the whole filter with q. key:value tokens naming a
// column become equality filters.
func (c *Controller[R]) SetQuery(q string) {
	f := c.engine.ParseQuery(q)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = f
	c.page.Index = 0
}

// SetEquals adds or replaces one equality filter. An empty value removes it.
func (c *Controller[R]) SetEquals(key, value string) error {
	if _, ok := c.engine.Column(key); !ok {
		return errors.Wrap(listing.ErrUnknownColumn, key)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = c.filter.With(key, value)
	c.page.Index = 0
	return nil
}

func (c *Controller[R]) ClearFilter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = listing.FilterState{}
	c.page.Index = 0
}

func (c *Controller[R]) SetSort(s listing.SortState) error {
	if err := c.engine.ValidateSort(s); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sort = s
	c.page.Index = 0
	return nil
}

// CycleSort moves key through ascending, descending and unsorted.
func (c *Controller[R]) CycleSort(key string) (listing.SortState, error) {
	c.mu.Lock()
	next := c.sort.Cycle(key)
	c.mu.Unlock()
	if err := c.SetSort(next); err != nil {
		return listing.SortState{}, err
	}
	return next, nil
}

// SetPage moves to page index. Out of range pages land on the first page
// when the view is computed.
func (c *Controller[R]) SetPage(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 {
		index = 0
	}
	c.page.Index = index
}

func (c *Controller[R]) NextPage() {
	v := c.View()
	c.mu.Lock()
	defer c.mu.Unlock()
	if v.Page.Index+1 < v.PageCount {
		c.page.Index = v.Page.Index + 1
	}
}

func (c *Controller[R]) PrevPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.page.Index > 0 {
		c.page.Index--
	}
}

// SetPageSize keeps the first visible record on screen.
func (c *Controller[R]) SetPageSize(size int) error {
	if !listing.ValidPageSize(size) {
		return errors.Wrapf(listing.ErrInvalidPageSize, "got %d", size)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = c.page.Resize(size)
	return nil
}

// CyclePageSize switches to the next of listing.PageSizes.
func (c *Controller[R]) CyclePageSize() int {
	c.mu.Lock()
	next := listing.NextPageSize(c.page.Size)
	c.mu.Unlock()
	_ = c.SetPageSize(next)
	return next
}

func (c *Controller[R]) Filter() listing.FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

func (c *Controller[R]) Sort() listing.SortState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sort
}

func (c *Controller[R]) Page() listing.PageState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// View computes the current page. A page index beyond the last page is
// reset to 0 and remembered.
func (c *Controller[R]) View() View[R] {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows := c.store.Snapshot()
	lv := c.engine.Apply(rows, c.filter, c.sort, c.page)
	c.page = lv.Page

	v := View[R]{
		View:        lv,
		Filter:      c.filter,
		Sort:        c.sort,
		Status:      c.store.Status(),
		Err:         c.store.Err(),
		LastFetched: c.store.LastFetched(),
	}
	switch {
	case !c.store.Loaded() && v.Status == v1.StatusError:
		v.State = Failed
	case !c.store.Loaded() && len(rows) == 0:
		v.State = Loading
	case len(rows) == 0:
		v.State = Empty
	case lv.Total == 0:
		v.State = NoResults
	default:
		v.State = Ready
	}
	return v
}

// Session returns the current edit session.
func (c *Controller[R]) Session() session.Session[R] {
	return c.machine.State()
}

// Form is the form used by the edit session.
func (c *Controller[R]) Form() session.Form[R] {
	return c.machine.Form()
}

func (c *Controller[R]) OpenCreate() session.Transition {
	return c.machine.OpenCreate()
}

// OpenEdit opens the edit session for the record with id.
func (c *Controller[R]) OpenEdit(id v1.ID) (session.Transition, error) {
	r, ok := c.store.Get(id)
	if !ok {
		return session.Transition{}, errors.Wrapf(db.ErrNoEntryFound, "edit %s %s", c.name, id)
	}
	return c.machine.OpenEdit(r), nil
}

func (c *Controller[R]) SetField(name, value string) session.Transition {
	return c.machine.SetField(name, value)
}

func (c *Controller[R]) Cancel() session.Transition {
	return c.machine.Cancel()
}

// Submit sends the open draft. On failure the session stays open with the
// error attached.
func (c *Controller[R]) Submit(ctx context.Context) (R, error) {
	return c.machine.Submit(ctx, c.dispatch)
}

func (c *Controller[R]) PrepareDelete(id v1.ID) *dispatch.DeleteRequest {
	return c.dispatch.PrepareDelete(id)
}

// Delete sends a confirmed delete and closes an edit session open on the
// same record.
func (c *Controller[R]) Delete(ctx context.Context, req *dispatch.DeleteRequest) error {
	if err := c.dispatch.Delete(ctx, req); err != nil {
		return err
	}
	if t := c.machine.RecordDeleted(req.ID()); !t.Ignored {
		c.log.WithField("id", req.ID()).Debug("closed edit session of deleted record")
	}
	return nil
}

// Dispose detaches the view; loads still in flight are dropped.
func (c *Controller[R]) Dispose() {
	c.store.Dispose()
	c.machine.Cancel()
}
