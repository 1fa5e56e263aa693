package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/ansi"
	"github.com/smart715/jobsify/pkg/entity"
	"github.com/smart715/jobsify/pkg/listing"
	"github.com/smart715/jobsify/pkg/text"
	v1 "github.com/smart715/jobsify/pkg/types/v1"
	"github.com/smart715/jobsify/pkg/ui"
)

const (
	listIndent            = 1
	listViewTopPadding    = 5
	listViewBottomPadding = 3
)

// filterState is the current filtering state in the list.
type filterState int

const (
	unfiltered    filterState = iota // no filter set
	filtering                        // user is actively setting a filter
	filterApplied                    // a filter is applied and user is not editing filter
)

// selectionState is the state of the currently selected record.
type selectionState int

const (
	selectionIdle selectionState = iota
	selectionPromptingDelete
)

// statusMessageType adds some context to the status message being sent.
type statusMessageType int

const (
	normalStatusMessage statusMessageType = iota
	subtleStatusMessage
	errorStatusMessage
)

// statusMessage is an ephemeral note displayed in the UI.
type statusMessage struct {
	status  statusMessageType
	message string
}

func (s statusMessage) String() string {
	switch s.status {
	case subtleStatusMessage:
		return ui.DimGreenText(s.message)
	case errorStatusMessage:
		return ui.RedText(s.message)
	default:
		return ui.GreenText(s.message)
	}
}

func (m *Model) newStatusMessage(sm statusMessage) tea.Cmd {
	m.showStatusMessage = true
	m.statusMessage = sm
	m.statusSeq++
	return waitForStatusMessageTimeout(m.statusSeq, m.common.statusMessageTimeout())
}

func (m *Model) hideStatusMessage() {
	m.showStatusMessage = false
	m.statusMessage = statusMessage{}
}

func (m *Model) resetFiltering() {
	m.filterState = unfiltered
	m.filterInput.Reset()
	m.filterInput.Blur()
	m.filterSeq++
	m.records.ClearFilter()
	m.cursor = 0
}

func (m *Model) clampCursor() {
	v := m.records.View()
	if m.cursor >= len(v.Rows) {
		m.cursor = max(0, len(v.Rows)-1)
	}
}

// selected is the record under the cursor.
func (m Model) selected() (v1.Record, v1.ID, bool) {
	v := m.records.View()
	if m.cursor < 0 || m.cursor >= len(v.Rows) {
		return nil, "", false
	}
	r := v.Rows[m.cursor].Record
	return r, m.records.Identify(r), true
}

func (m *Model) moveCursorUp() {
	if m.cursor > 0 {
		m.cursor--
		return
	}
	if m.records.Page().Index == 0 {
		return
	}
	m.records.PrevPage()
	m.cursor = max(0, len(m.records.View().Rows)-1)
}

func (m *Model) moveCursorDown() {
	v := m.records.View()
	if m.cursor < len(v.Rows)-1 {
		m.cursor++
		return
	}
	if v.Page.Index+1 < v.PageCount {
		m.records.NextPage()
		m.cursor = 0
	}
}

func (m *Model) updateList(msg tea.Msg) tea.Cmd {
	switch {
	case m.selectionState == selectionPromptingDelete:
		return m.handleDeleteConfirmation(msg)
	case m.filterState == filtering:
		return m.handleFiltering(msg)
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.handleBrowsing(msg)
	}
	return nil
}

func (m *Model) handleBrowsing(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveCursorUp()

	case key.Matches(msg, m.keys.Down):
		m.moveCursorDown()

	case key.Matches(msg, m.keys.PrevPage):
		m.records.PrevPage()
		m.cursor = 0

	case key.Matches(msg, m.keys.NextPage):
		m.records.NextPage()
		m.cursor = 0

	case key.Matches(msg, m.keys.Filter):
		m.hideStatusMessage()
		m.filterState = filtering
		m.filterInput.CursorEnd()
		return m.filterInput.Focus()

	case key.Matches(msg, m.keys.Clear):
		if m.filterState == filterApplied {
			m.resetFiltering()
			return nil
		}
		return backCmd

	case key.Matches(msg, m.keys.Sort):
		return m.cycleSort(msg.String())

	case key.Matches(msg, m.keys.PageSize):
		n := m.records.CyclePageSize()
		m.cursor = 0
		return m.newStatusMessage(statusMessage{
			status:  subtleStatusMessage,
			message: fmt.Sprintf("%d per page", n),
		})

	case key.Matches(msg, m.keys.Reload):
		return m.Reload()

	case key.Matches(msg, m.keys.Create):
		m.records.OpenCreate()
		return m.openForm()

	case key.Matches(msg, m.keys.Edit):
		_, id, ok := m.selected()
		if !ok {
			return nil
		}
		if _, err := m.records.OpenEdit(id); err != nil {
			return m.newStatusMessage(statusMessage{status: errorStatusMessage, message: err.Error()})
		}
		return m.openForm()

	case key.Matches(msg, m.keys.Delete):
		_, id, ok := m.selected()
		if !ok {
			return nil
		}
		m.pendingDelete = m.records.PrepareDelete(id)
		m.selectionState = selectionPromptingDelete

	case key.Matches(msg, m.keys.Detail):
		r, id, ok := m.selected()
		if !ok {
			return nil
		}
		m.state = stateShowDocument
		doc := recordMarkdown(m.records.Label(), id, m.records.Engine().Columns(), r, m.common.now())
		return m.pager.load(fmt.Sprintf("%s %s", m.records.Label(), id), doc)

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil
}

// cycleSort sorts by the nth sortable column, n being the digit pressed.
func (m *Model) cycleSort(digit string) tea.Cmd {
	var n int
	if _, err := fmt.Sscanf(digit, "%d", &n); err != nil {
		return nil
	}
	cols := m.records.Engine().SortableColumns()
	if n < 1 || n > len(cols) {
		return nil
	}
	s, err := m.records.CycleSort(cols[n-1].Key)
	if err != nil {
		return m.newStatusMessage(statusMessage{status: errorStatusMessage, message: err.Error()})
	}
	m.cursor = 0
	msg := "Unsorted"
	switch {
	case s.IsZero():
	case s.Direction == listing.Descending:
		msg = "Sorted by " + headerText(cols[n-1]) + ", descending"
	default:
		msg = "Sorted by " + headerText(cols[n-1]) + ", ascending"
	}
	return m.newStatusMessage(statusMessage{status: subtleStatusMessage, message: msg})
}

// Updates for when a user is being prompted whether or not to delete a
// record. Only y confirms.
func (m *Model) handleDeleteConfirmation(msg tea.Msg) tea.Cmd {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	req := m.pendingDelete
	m.pendingDelete = nil
	m.selectionState = selectionIdle
	if km.String() != "y" || req == nil {
		return nil
	}
	req.Confirm()
	return deleteCmd(m.ctx, m.records, req)
}

// Updates for when a user is in the filter editing interface.
func (m *Model) handleFiltering(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			m.resetFiltering()
			return nil
		case "enter", "tab", "shift+tab", "up", "down":
			m.filterInput.Blur()
			m.filterState = filterApplied
			// Apply whatever is pending right away.
			m.filterSeq++
			m.records.SetQuery(m.filterInput.Value())
			m.cursor = 0
			if m.filterInput.Value() == "" {
				m.resetFiltering()
			}
			return nil
		}
	}

	var cmd tea.Cmd
	before := m.filterInput.Value()
	m.filterInput, cmd = m.filterInput.Update(msg)
	cmds = append(cmds, cmd)

	if after := m.filterInput.Value(); after != before {
		m.filterSeq++
		cmds = append(cmds, filterCmd(m.filterSeq, after, m.common.ui.FilterDebounce))
	}
	return tea.Batch(cmds...)
}

// VIEW

func (m Model) listView() string {
	v := m.records.View()

	loadingIndicator := " "
	if m.loading {
		loadingIndicator = m.spinner.View()
	}

	var header string
	switch m.selectionState {
	case selectionPromptingDelete:
		header = ui.RedText(fmt.Sprintf("Delete this %s? ", strings.ToLower(m.records.Label()))) + ui.FaintRedText("(y/N)")
	default:
		header = m.headerView(v)
	}

	// Rules for the logo, filter and status message.
	logoOrFilter := " "
	if m.filterState == filtering {
		logoOrFilter += m.filterInput.View()
	} else {
		logoOrFilter += logoView(m.records.Label())
		if m.showStatusMessage {
			logoOrFilter += "  " + m.statusMessage.String()
		}
	}
	logoOrFilter = text.TruncateWithTail(logoOrFilter, uint(max(0, m.common.width-1)), text.Ellipsis)

	body := m.bodyView(v)
	helpView := m.help.View(m.keys)

	bodyHeight := strings.Count(body, "\n") + 1
	helpHeight := strings.Count(helpView, "\n") + 1
	availHeight := m.common.height -
		listViewTopPadding -
		bodyHeight -
		helpHeight -
		listViewBottomPadding
	blankLines := strings.Repeat("\n", max(0, availHeight))

	s := fmt.Sprintf(
		"%s%s\n\n  %s\n\n%s\n%s\n%s\n\n%s",
		loadingIndicator,
		logoOrFilter,
		header,
		body,
		blankLines,
		m.footerView(v),
		helpView,
	)
	return "\n" + indent(s, listIndent)
}

// headerView is the one line summary above the table.
func (m Model) headerView(v entity.View[v1.Record]) string {
	var parts []string
	switch v.State {
	case entity.Loading:
		return ui.GrayText("Loading " + m.records.Name() + "…")
	case entity.Failed:
		return ui.RedText(text.EmojiError + " " + v.Message())
	}

	noun := m.records.Name()
	if v.Total != v.CollectionSize {
		parts = append(parts, fmt.Sprintf("%d of %d %s", v.Total, v.CollectionSize, noun))
	} else {
		parts = append(parts, fmt.Sprintf("%d %s", v.Total, noun))
	}
	if q := v.Filter.Query; q != "" {
		parts = append(parts, "matching “"+q+"”")
	}
	keys := make([]string, 0, len(v.Filter.Equals))
	for k := range v.Filter.Equals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, v.Filter.Equals[k]))
	}
	if !v.LastFetched.IsZero() {
		parts = append(parts, "fetched "+text.RelativeTime(v.LastFetched, m.common.now()))
	}
	if v.Err != nil {
		parts = append(parts, ui.RedText(v.Message()))
	}
	return ui.GrayText(strings.Join(parts, " • "))
}

func (m Model) bodyView(v entity.View[v1.Record]) string {
	noun := m.records.Name()
	switch v.State {
	case entity.Loading:
		return "  " + m.spinner.View() + " " + text.EmojiLoading + " Loading " + noun + "…"
	case entity.Failed:
		return errorView(v.Message(), "press r to retry")
	case entity.Empty:
		return "  " + text.EmojiEmpty + " " + ui.GrayText(fmt.Sprintf("No %s yet. Press a to add one.", noun))
	case entity.NoResults:
		return "  " + ui.GrayText(fmt.Sprintf("No %s match. Press / to change the filter or esc to clear it.", noun))
	}

	now := m.common.now()
	cols := m.records.Engine().Columns()
	widths := columnWidths(cols, v.Rows, now)

	var b strings.Builder
	b.WriteString(headerView(cols, widths, v.Sort))
	for i, row := range v.Rows {
		b.WriteString("\n")
		b.WriteString(rowView(v, cols, widths, row, i == m.cursor && m.filterState != filtering, now))
	}
	return b.String()
}

func (m Model) footerView(v entity.View[v1.Record]) string {
	if v.Total == 0 {
		return ""
	}
	p := paginator.New()
	p.Type = paginator.Dots
	p.ActiveDot = ui.FuchsiaText("•")
	p.InactiveDot = ui.GrayText("•")
	p.PerPage = v.Page.Size
	p.SetTotalPages(v.Total)
	p.Page = v.Page.Index

	pagination := p.View()
	if ansi.PrintableRuneWidth(pagination) > m.common.width/2 {
		p.Type = paginator.Arabic
		pagination = ui.GrayText(p.View())
	}
	if p.TotalPages <= 1 {
		pagination = ""
	}
	return fmt.Sprintf("  %s  %s", pagination,
		ui.GrayText(fmt.Sprintf("%d–%d of %d • %d per page", v.Start(), v.End(), v.Total, v.Page.Size)))
}

// Lightweight version of reflow's indent function.
func indent(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	l := strings.Split(s, "\n")
	b := strings.Builder{}
	i := strings.Repeat(" ", n)
	for _, v := range l {
		fmt.Fprintf(&b, "%s%s\n", i, v)
	}
	return b.String()
}
