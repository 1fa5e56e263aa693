// Package dispatch sends create, update and delete requests and reconciles
// the store once the server has confirmed them.
package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/smart715/jobsify/pkg/db"
	"github.com/smart715/jobsify/pkg/store"
	v1 "github.com/smart715/jobsify/pkg/types/v1"
)

// Reconcile is how the store catches up after a confirmed mutation.
type Reconcile int

const (
	// Optimistic applies the server's response to the store directly.
	Optimistic Reconcile = iota
	// Refetch reloads the whole collection.
	Refetch
)

func (r Reconcile) String() string {
	if r == Refetch {
		return "refetch"
	}
	return "optimistic"
}

// ParseReconcile reads a config value; empty means Optimistic.
func ParseReconcile(s string) (Reconcile, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "optimistic":
		return Optimistic, nil
	case "refetch":
		return Refetch, nil
	}
	return Optimistic, errors.Errorf("unknown reconcile mode %q", s)
}

// Notifier surfaces the outcome of a mutation to the user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

type discard struct{}

func (discard) Success(string) {}
func (discard) Error(string)   {}

// Discard is a Notifier that drops everything.
var Discard Notifier = discard{}

type Dispatcher[R any] struct {
	name      string
	label     string
	client    db.Collection[R]
	store     *store.Store[R]
	identify  func(R) v1.ID
	reconcile Reconcile
	notify    Notifier
	log       *logrus.Entry
}

type Option func(*options)

type options struct {
	label     string
	reconcile Reconcile
	notify    Notifier
	log       *logrus.Entry
}

func WithReconcile(r Reconcile) Option {
	return func(o *options) { o.reconcile = r }
}

func WithNotifier(n Notifier) Option {
	return func(o *options) {
		if n != nil {
			o.notify = n
		}
	}
}

// WithLabel is the singular name used in notifications, e.g. "Company".
func WithLabel(label string) Option {
	return func(o *options) { o.label = label }
}

func WithLogger(l *logrus.Entry) Option {
	return func(o *options) { o.log = l }
}

func New[R any](name string, client db.Collection[R], st *store.Store[R], identify func(R) v1.ID, opts ...Option) *Dispatcher[R] {
	o := options{
		label:  name,
		notify: Discard,
		log:    logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Dispatcher[R]{
		name:      name,
		label:     o.label,
		client:    client,
		store:     st,
		identify:  identify,
		reconcile: o.reconcile,
		notify:    o.notify,
		log:       o.log.WithFields(logrus.Fields{"component": "dispatch", "entity": name}),
	}
}

func (d *Dispatcher[R]) Reconcile() Reconcile { return d.reconcile }

// Create posts payload and returns the record the server created.
func (d *Dispatcher[R]) Create(ctx context.Context, payload R) (R, error) {
	created, err := d.client.Create(ctx, payload)
	if err != nil {
		var zero R
		return zero, d.fail("create", err)
	}

	if d.reconcile == Refetch {
		d.reload(ctx)
	} else if err := d.store.ApplyCreated(created); err != nil {
		// no id in the response: the only way to see the new row is a reload
		d.log.WithError(err).Info("created record can't be applied, reloading")
		d.reload(ctx)
	}
	d.notify.Success(fmt.Sprintf("%s created", d.label))
	return created, nil
}

// Update puts payload for id and returns the server's version of the record.
func (d *Dispatcher[R]) Update(ctx context.Context, id v1.ID, payload R) (R, error) {
	updated, err := d.client.Update(ctx, id, payload)
	if err != nil {
		var zero R
		return zero, d.fail("update", err)
	}

	if d.reconcile == Refetch {
		d.reload(ctx)
	} else if err := d.store.ApplyUpdated(updated); err != nil {
		if errors.Is(err, db.ErrNoEntryFound) {
			d.log.WithField("id", id).Warn("server updated a record we don't have, reloading")
			d.reload(ctx)
		} else {
			d.log.WithError(err).Warn("apply updated")
		}
	}
	d.notify.Success(fmt.Sprintf("%s updated", d.label))
	return updated, nil
}

// DeleteRequest is a pending delete. Delete refuses it until Confirm has
// been called.
type DeleteRequest struct {
	id        v1.ID
	confirmed bool
}

func (r *DeleteRequest) ID() v1.ID       { return r.id }
func (r *DeleteRequest) Confirm()        { r.confirmed = true }
func (r *DeleteRequest) Confirmed() bool { return r != nil && r.confirmed }

func (d *Dispatcher[R]) PrepareDelete(id v1.ID) *DeleteRequest {
	return &DeleteRequest{id: id}
}

// Delete sends the DELETE for a confirmed request. The row stays in the
// store until the server has answered with success.
func (d *Dispatcher[R]) Delete(ctx context.Context, req *DeleteRequest) error {
	if !req.Confirmed() {
		return errors.Wrapf(db.ErrNotConfirmed, "delete %s", d.name)
	}
	if err := d.client.Delete(ctx, req.id); err != nil {
		return d.fail("delete", err)
	}

	if d.reconcile == Refetch {
		d.reload(ctx)
	} else if err := d.store.ApplyDeleted(req.id); err != nil && !errors.Is(err, db.ErrNoEntryFound) {
		d.log.WithError(err).Warn("apply deleted")
	}
	d.notify.Success(fmt.Sprintf("%s deleted", d.label))
	return nil
}

func (d *Dispatcher[R]) fail(op string, err error) error {
	if db.KindOf(err) == db.KindUnknown {
		err = db.MutationError(op, d.name, 0, "", err)
	}
	d.log.WithError(err).Warnf("%s failed", op)
	d.notify.Error(db.UserMessage(err))
	return err
}

// reload refreshes the store after a mutation. The mutation itself already
// succeeded, so a failed reload is only reported.
func (d *Dispatcher[R]) reload(ctx context.Context) {
	err := d.store.Load(ctx)
	switch {
	case err == nil, db.IsStale(err):
	default:
		d.log.WithError(err).Warn("reload after mutation failed")
		d.notify.Error(db.UserMessage(err))
	}
}
