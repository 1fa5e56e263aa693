package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/reflow/ansi"
	"github.com/smart715/jobsify/pkg/text"
)

const statusBarHeight = 1

// pagerModel shows one record rendered with glamour.
type pagerModel struct {
	common   *commonModel
	viewport viewport.Model
	title    string

	// Unrendered document, kept so it can be rendered again on resize.
	document string
}

func newPagerModel(common *commonModel) pagerModel {
	return pagerModel{
		common:   common,
		viewport: viewport.New(0, 0),
	}
}

func (m *pagerModel) setSize(w, h int) {
	m.viewport.Width = w
	m.viewport.Height = h - statusBarHeight
}

func (m *pagerModel) load(title, document string) tea.Cmd {
	m.title = title
	m.document = document
	m.viewport.SetContent("")
	m.viewport.GotoTop()
	return renderWithGlamour(m.viewport.Width, document)
}

func (m *pagerModel) unload() {
	m.title = ""
	m.document = ""
	m.viewport.SetContent("")
	m.viewport.GotoTop()
}

func (m pagerModel) update(msg tea.Msg) (pagerModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "home", "g":
			m.viewport.GotoTop()
		case "end", "G":
			m.viewport.GotoBottom()
		}

	case contentRenderedMsg:
		m.viewport.SetContent(string(msg))

	case tea.WindowSizeMsg:
		if m.document != "" {
			cmds = append(cmds, renderWithGlamour(m.viewport.Width, m.document))
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m pagerModel) View() string {
	var b strings.Builder
	fmt.Fprint(&b, m.viewport.View()+"\n")
	m.statusBarView(&b)
	return b.String()
}

func (m pagerModel) statusBarView(b *strings.Builder) {
	logo := logoView(m.title)

	percent := math.Max(0, math.Min(1, m.viewport.ScrollPercent()))
	scrollPercent := statusBarNoteStyle(fmt.Sprintf(" %3.f%% ", percent*100))
	helpNote := statusBarHelpStyle(" esc back ")

	note := text.TruncateWithTail(" g/G top/bottom ", uint(max(0,
		m.common.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(scrollPercent)-
			ansi.PrintableRuneWidth(helpNote),
	)), text.Ellipsis)
	note = statusBarNoteStyle(note)

	padding := max(0,
		m.common.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(note)-
			ansi.PrintableRuneWidth(scrollPercent)-
			ansi.PrintableRuneWidth(helpNote),
	)
	emptySpace := statusBarNoteStyle(strings.Repeat(" ", padding))

	fmt.Fprintf(b, "%s%s%s%s%s", logo, note, emptySpace, scrollPercent, helpNote)
}

func renderWithGlamour(width int, md string) tea.Cmd {
	return func() tea.Msg {
		s, err := glamourRender(width, md)
		if err != nil {
			return errMsg{err}
		}
		return contentRenderedMsg(s)
	}
}

func glamourRender(width int, markdown string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(0, width)),
	)
	if err != nil {
		return "", err
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", err
	}

	lines := strings.Split(out, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return strings.Join(lines, "\n"), nil
}
