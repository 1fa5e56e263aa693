// Package model is the screen of one entity type: the paged table, the
// filter, the edit form and the detail pager.
package model

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/smart715/jobsify/pkg/config"
	"github.com/smart715/jobsify/pkg/db"
	"github.com/smart715/jobsify/pkg/dispatch"
	"github.com/smart715/jobsify/pkg/entity"
	"github.com/smart715/jobsify/pkg/session"
)

const (
	defaultStatusMessageTimeout = 4 * time.Second
)

// state is the top-level screen state.
type state int

const (
	stateShowList state = iota
	stateShowForm
	stateShowDocument
)

func (s state) String() string {
	return map[state]string{
		stateShowList:     "showing list",
		stateShowForm:     "showing form",
		stateShowDocument: "showing record",
	}[s]
}

// Common stuff we'll need to access in all models.
type commonModel struct {
	width  int
	height int
	ui     config.UI
	now    func() time.Time
}

func (c commonModel) statusMessageTimeout() time.Duration {
	if c.ui.StatusMessageTimeout > 0 {
		return c.ui.StatusMessageTimeout
	}
	return defaultStatusMessageTimeout
}

// Model is the screen of one entity.
type Model struct {
	ctx     context.Context
	common  *commonModel
	records *entity.Records
	log     *logrus.Entry

	state          state
	filterState    filterState
	selectionState selectionState
	cursor         int
	loading        bool
	filterSeq      int
	pendingDelete  *dispatch.DeleteRequest

	keys        keyMap
	formKeys    formKeyMap
	help        help.Model
	spinner     spinner.Model
	filterInput textinput.Model
	form        formModel
	pager       pagerModel

	showStatusMessage bool
	statusMessage     statusMessage
	statusSeq         int
}

func New(ctx context.Context, records *entity.Records, cfg config.UI, log *logrus.Entry) Model {
	common := &commonModel{ui: cfg, now: time.Now}

	sp := spinner.New(
		spinner.WithSpinner(spinner.Line),
		spinner.WithStyle(cursorStyle),
	)

	fi := textinput.New()
	fi.Prompt = "Find: "
	fi.PromptStyle = promptStyle
	fi.Cursor.Style = cursorStyle
	fi.CharLimit = fieldCharacterLimit

	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	return Model{
		ctx:         ctx,
		common:      common,
		records:     records,
		log:         log.WithFields(logrus.Fields{"component": "tui", "entity": records.Name()}),
		state:       stateShowList,
		loading:     true,
		keys:        defaultKeyMap(),
		formKeys:    defaultFormKeyMap(),
		help:        help.New(),
		spinner:     sp,
		filterInput: fi,
		pager:       newPagerModel(common),
	}
}

// Records is the controller behind the screen.
func (m Model) Records() *entity.Records { return m.records }

// CapturesInput reports whether the screen wants keys like q for itself:
// while typing into an input or reading a record.
func (m Model) CapturesInput() bool {
	return m.state != stateShowList || m.filterState == filtering || m.selectionState != selectionIdle
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, loadCmd(m.ctx, m.records))
}

func (m *Model) setSize(w, h int) {
	m.common.width = w
	m.common.height = h
	m.help.Width = w
	m.filterInput.Width = max(10, w-20)
	m.pager.setSize(w, h)
}

// Reload fetches the collection again.
func (m *Model) Reload() tea.Cmd {
	m.loading = true
	return tea.Batch(m.spinner.Tick, loadCmd(m.ctx, m.records))
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		if m.state == stateShowDocument {
			var cmd tea.Cmd
			m.pager, cmd = m.pager.update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		if m.loading || m.form.submitting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case loadedMsg:
		m.loading = false
		m.clampCursor()
		if msg.err != nil {
			m.log.WithError(msg.err).Warn("load failed")
			if m.records.View().State != entity.Failed {
				cmds = append(cmds, m.newStatusMessage(statusMessage{
					status:  errorStatusMessage,
					message: db.UserMessage(msg.err),
				}))
			}
		}
		return m, tea.Batch(cmds...)

	case NoticeMsg:
		sm := statusMessage{status: normalStatusMessage, message: msg.Text}
		if msg.Err {
			sm.status = errorStatusMessage
		}
		return m, m.newStatusMessage(sm)

	case statusMessageTimeoutMsg:
		if msg.seq == m.statusSeq {
			m.hideStatusMessage()
		}
		return m, nil

	case filterMsg:
		if msg.seq == m.filterSeq {
			m.records.SetQuery(msg.query)
			m.cursor = 0
		}
		return m, nil

	case submittedMsg:
		m.form.submitting = false
		switch {
		case msg.err == nil, errors.Is(msg.err, session.ErrClosed):
			m.state = stateShowList
			m.clampCursor()
		default:
			m.log.WithError(msg.err).Debug("submit failed")
		}
		return m, nil

	case deletedMsg:
		if msg.err == nil {
			if m.state == stateShowForm && !m.records.Session().Open() {
				m.state = stateShowList
			}
			m.clampCursor()
		}
		return m, nil

	case errMsg:
		return m, m.newStatusMessage(statusMessage{status: errorStatusMessage, message: msg.Error()})
	}

	switch m.state {
	case stateShowForm:
		return m, m.updateForm(msg)
	case stateShowDocument:
		return m, m.updatePager(msg)
	default:
		return m, m.updateList(msg)
	}
}

func (m *Model) updatePager(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc", "q", "left", "h":
			m.pager.unload()
			m.state = stateShowList
			return nil
		}
	}
	var cmd tea.Cmd
	m.pager, cmd = m.pager.update(msg)
	return cmd
}

func (m *Model) openForm() tea.Cmd {
	s := m.records.Session()
	form, cmd := newFormModel(m.common, m.records.Form().Fields(), s.Draft)
	m.form = form
	m.state = stateShowForm
	return cmd
}

func (m *Model) updateForm(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.formKeys.Cancel):
			m.records.Cancel()
			m.form.submitting = false
			m.state = stateShowList
			return nil
		case key.Matches(msg, m.formKeys.Submit):
			if m.form.submitting {
				return nil
			}
			m.form.submitting = true
			return tea.Batch(m.spinner.Tick, submitCmd(m.ctx, m.records))
		case key.Matches(msg, m.formKeys.Next):
			return m.form.next()
		case key.Matches(msg, m.formKeys.Prev):
			return m.form.prev()
		}
	}

	cmd, name, changed := m.form.updateInput(msg)
	if changed {
		m.records.SetField(name, m.form.value(m.form.focus))
	}
	return cmd
}

func (m Model) View() string {
	switch m.state {
	case stateShowForm:
		return "\n" + indent(m.form.view(m.records.Session(), m.records.Label(), m.spinner.View())+
			"\n"+m.help.View(m.formKeys), listIndent)
	case stateShowDocument:
		return m.pager.View()
	default:
		return m.listView()
	}
}
