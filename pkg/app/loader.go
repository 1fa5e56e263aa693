package app

import (
	"context"

	"github.com/charmbracelet/bubbles/list"
	"github.com/sirupsen/logrus"
	"github.com/smart715/jobsify/pkg/config"
	"github.com/smart715/jobsify/pkg/entity"
	"github.com/smart715/jobsify/pkg/metrics"
	"github.com/smart715/jobsify/pkg/model"
)

// Opener builds the controller of an entity.
type Opener func(cfg *config.Config, e config.Entity) (*entity.Records, error)

type Options struct {
	// ConfigPath is reloaded when Watcher reports a change.
	ConfigPath string
	Watcher    *config.Watcher
	Metrics    *metrics.Metrics
	Log        *logrus.Entry
	// Opener defaults to a REST backed controller.
	Opener Opener
	// Notices receives the dispatcher notifications of every controller
	// that Opener builds.
	Notices *model.Notices
}

// RESTOpener opens entities against cfg.API.
func RESTOpener(deps entity.Deps) Opener {
	return func(cfg *config.Config, e config.Entity) (*entity.Records, error) {
		client, err := entity.RESTClient(cfg.API, e, deps)
		if err != nil {
			return nil, err
		}
		return entity.NewRecords(e, cfg.UI, client, deps)
	}
}

func New(ctx context.Context, cfg *config.Config, o Options) *Application {
	if o.Log == nil {
		o.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	if o.Notices == nil {
		o.Notices = model.NewNotices()
	}
	if o.Opener == nil {
		o.Opener = RESTOpener(entity.Deps{
			Notifier: o.Notices,
			Metrics:  o.Metrics,
			Log:      o.Log,
		})
	}

	delegateKeys := newDelegateKeyMap()
	l := list.New(itemsFromSections(sectionsFromConfig(cfg)), newSectionDelegate(delegateKeys), 0, 0)
	l.Title = "jobsify"
	l.Styles.Title = titleStyle

	return &Application{
		ctx:     ctx,
		Config:  cfg,
		opts:    o,
		log:     o.Log.WithField("component", "app"),
		keys:    DefaultKeyMap(),
		choose:  delegateKeys.choose,
		list:    l,
		notices: o.Notices,
	}
}

func itemsFromSections(sections []section) []list.Item {
	lx := make([]list.Item, len(sections))
	for i := range sections {
		lx[i] = sections[i]
	}
	return lx
}
