package entity

import (
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/smart715/jobsify/pkg/config"
	"github.com/smart715/jobsify/pkg/db"
	"github.com/smart715/jobsify/pkg/db/rest"
	"github.com/smart715/jobsify/pkg/dispatch"
	"github.com/smart715/jobsify/pkg/listing"
	"github.com/smart715/jobsify/pkg/metrics"
	jhttp "github.com/smart715/jobsify/pkg/net/http"
	"github.com/smart715/jobsify/pkg/session"
	"github.com/smart715/jobsify/pkg/store"
	"github.com/smart715/jobsify/pkg/text"
	v1 "github.com/smart715/jobsify/pkg/types/v1"
	"golang.org/x/text/language"
)

// Records is the controller of an entity configured in YAML.
type Records = Controller[v1.Record]

// Deps are the collaborators shared by every record controller.
type Deps struct {
	Notifier dispatch.Notifier
	Metrics  *metrics.Metrics
	Log      *logrus.Entry
}

// Columns turns configured columns into engine columns reading dotted
// record paths.
func Columns(e config.Entity) []listing.Column[v1.Record] {
	cols := make([]listing.Column[v1.Record], 0, len(e.Columns))
	for _, c := range e.Columns {
		key := c.Key
		cols = append(cols, listing.Column[v1.Record]{
			Key:        key,
			Header:     c.Header,
			Accessor:   func(r v1.Record) any { return r.Get(key) },
			Sortable:   c.Sortable,
			Searchable: c.Searchable,
			Format:     text.Format(c.Format),
			Width:      c.Width,
		})
	}
	return cols
}

func Form(e config.Entity) (*session.RecordForm, error) {
	fields := make([]session.Field, 0, len(e.Form))
	for _, f := range e.Form {
		fields = append(fields, session.Field{
			Name:    f.Name,
			Label:   f.Label,
			Kind:    session.Kind(f.Kind),
			Rules:   f.Rules,
			Default: f.Default,
		})
	}
	return session.NewRecordForm(fields...)
}

func idField(e config.Entity) string {
	if e.IDField != "" {
		return e.IDField
	}
	return v1.DefaultIDField
}

// RESTClient is the REST collaborator of e.
func RESTClient(api config.API, e config.Entity, deps Deps) (*rest.Client, error) {
	hc := jhttp.NewClient(e.Name, jhttp.Options{
		Timeout: api.Timeout,
		Token:   api.Token,
		Metrics: deps.Metrics,
		Log:     deps.logger(),
	})
	return rest.New(api.BaseURL, e.Name,
		rest.WithHTTPClient(hc),
		rest.WithEnvelope(e.EnvelopeKey()),
		rest.WithIDField(idField(e)),
		rest.WithLogger(deps.logger()),
	)
}

func (d Deps) logger() *logrus.Entry {
	if d.Log != nil {
		return d.Log
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// NewRecords wires engine, store, dispatcher and session for e on top of
// client.
func NewRecords(e config.Entity, ui config.UI, client db.Collection[v1.Record], deps Deps) (*Records, error) {
	lang, err := language.Parse(ui.Language)
	if err != nil {
		lang = language.English
	}
	engine, err := listing.NewEngine(Columns(e),
		listing.WithMatcher(listing.MatcherByName(ui.Matcher)),
		listing.WithLanguage(lang),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "columns of %s", e.Name)
	}
	form, err := Form(e)
	if err != nil {
		return nil, errors.Wrapf(err, "form of %s", e.Name)
	}
	reconcile, err := dispatch.ParseReconcile(e.Reconcile)
	if err != nil {
		return nil, errors.Wrapf(err, "entity %s", e.Name)
	}

	log := deps.logger()
	identify := v1.IdentifyBy(idField(e))

	storeOpts := []store.Option{store.WithLogger(log)}
	if deps.Metrics != nil {
		storeOpts = append(storeOpts, store.WithStaleHook(deps.Metrics.StaleHook(e.Name)))
	}
	st := store.New[v1.Record](e.Name, client, identify, storeOpts...)

	d := dispatch.New[v1.Record](e.Name, client, st, identify,
		dispatch.WithReconcile(reconcile),
		dispatch.WithNotifier(deps.Notifier),
		dispatch.WithLabel(e.DisplayLabel()),
		dispatch.WithLogger(log),
	)
	m := session.NewMachine[v1.Record](e.Name, form, identify)

	return New[v1.Record](e.Name, engine, st, d, m,
		WithLabel(e.DisplayLabel()),
		WithPageSize(ui.PageSize),
		WithLogger(log),
	), nil
}
