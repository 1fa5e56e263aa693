package app

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/smart715/jobsify/pkg/config"
	"github.com/smart715/jobsify/pkg/model"
)

type configChangedMsg string
type configErrMsg struct{ err error }

// Application is the entity picker and, once one is chosen, the screen of
// that entity.
type Application struct {
	*config.Config

	ctx     context.Context
	opts    Options
	log     *logrus.Entry
	keys    applicationKeyMap
	choose  key.Binding
	list    list.Model
	notices *model.Notices

	// screen is the open entity, nil while picking.
	screen   *model.Model
	width    int
	height   int
	quitting bool
}

func (m *Application) Init() tea.Cmd {
	return tea.Batch(m.notices.Wait(), m.watchCmd())
}

func (m *Application) watchCmd() tea.Cmd {
	w := m.opts.Watcher
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case path, ok := <-w.Changes:
			if !ok {
				return nil
			}
			return configChangedMsg(path)
		case err := <-w.Errors:
			return configErrMsg{err}
		}
	}
}

// Screen is the open entity screen, if any.
func (m *Application) Screen() *model.Model { return m.screen }

func (m *Application) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		topGap, rightGap, bottomGap, leftGap := appStyle.GetPadding()
		m.list.SetSize(msg.Width-leftGap-rightGap, msg.Height-topGap-bottomGap)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			return m.quit()
		}
		if m.screen != nil {
			if key.Matches(msg, m.keys.Quit) && !m.screen.CapturesInput() {
				return m.quit()
			}
			break
		}
		// Don't match any of the keys below if we're actively filtering.
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		case key.Matches(msg, m.choose):
			if s, ok := m.list.SelectedItem().(section); ok {
				return m, m.open(s.entity)
			}
		case key.Matches(msg, m.keys.Reload):
			return m, m.reloadConfig(m.opts.ConfigPath)
		}

	case model.BackMsg:
		m.close()
		return m, nil

	case model.NoticeMsg:
		var cmd tea.Cmd
		if m.screen != nil {
			*m.screen, cmd = m.screen.Update(msg)
		} else {
			style := statusMessageStyle
			if msg.Err {
				style = errorMessageStyle
			}
			cmd = m.list.NewStatusMessage(style(msg.Text))
		}
		return m, tea.Batch(cmd, m.notices.Wait())

	case configChangedMsg:
		return m, tea.Batch(m.reloadConfig(string(msg)), m.watchCmd())

	case configErrMsg:
		m.log.WithError(msg.err).Warn("config watcher")
		return m, m.watchCmd()
	}

	var cmd tea.Cmd
	if m.screen != nil {
		*m.screen, cmd = m.screen.Update(msg)
		return m, cmd
	}
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// open builds the controller of e and shows its screen.
func (m *Application) open(e config.Entity) tea.Cmd {
	records, err := m.opts.Opener(m.Config, e)
	if err != nil {
		m.log.WithError(err).WithField("entity", e.Name).Error("open entity")
		return m.list.NewStatusMessage(errorMessageStyle(err.Error()))
	}
	screen := model.New(m.ctx, records, m.Config.UI, m.log)
	screen, _ = screen.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	m.screen = &screen
	return screen.Init()
}

func (m *Application) close() {
	if m.screen == nil {
		return
	}
	m.screen.Records().Dispose()
	m.screen = nil
}

// reloadConfig swaps in the entity definitions from path. An open screen is
// reopened with its new definition, or closed when it is gone.
func (m *Application) reloadConfig(path string) tea.Cmd {
	if path == "" {
		return nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		m.log.WithError(err).Warn("config reload failed")
		return m.list.NewStatusMessage(errorMessageStyle("config: " + err.Error()))
	}
	m.Config = cfg
	cmd := m.list.SetItems(itemsFromSections(sectionsFromConfig(cfg)))
	m.log.Info("config reloaded")

	if m.screen == nil {
		return tea.Batch(cmd, m.list.NewStatusMessage(statusMessageStyle("Config reloaded")))
	}
	name := m.screen.Records().Name()
	m.close()
	e, err := cfg.Entity(name)
	if err != nil {
		return tea.Batch(cmd, m.list.NewStatusMessage(errorMessageStyle(name+" is no longer configured")))
	}
	return tea.Batch(cmd, m.open(e))
}

func (m *Application) quit() (tea.Model, tea.Cmd) {
	m.close()
	m.quitting = true
	return m, tea.Quit
}

func (m *Application) View() string {
	if m.quitting {
		return "Bye!\n"
	}
	if m.screen != nil {
		return m.screen.View()
	}
	return appStyle.Render(m.list.View())
}
