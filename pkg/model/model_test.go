package model

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/smart715/jobsify/pkg/config"
	"github.com/smart715/jobsify/pkg/db"
	"github.com/smart715/jobsify/pkg/db/memory"
	"github.com/smart715/jobsify/pkg/entity"
	"github.com/smart715/jobsify/pkg/session"
	v1 "github.com/smart715/jobsify/pkg/types/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var companies = config.Entity{
	Name:  "companies",
	Label: "Company",
	Columns: []config.Column{
		{Key: "id", Header: "ID", Sortable: true},
		{Key: "name", Header: "Name", Searchable: true, Sortable: true},
		{Key: "status", Header: "Status", Sortable: true},
	},
	Form: []config.Field{
		{Name: "name", Label: "Name"},
		{Name: "status", Label: "Status", Default: "active"},
	},
}

var uiConfig = config.UI{PageSize: 10, Matcher: "substring", Language: "en"}

func newScreen(t *testing.T, names ...string) (Model, *memory.Collection) {
	t.Helper()
	mem := memory.New("companies", "id", "name")
	for _, n := range names {
		mem.Seed(v1.Record{"name": n, "status": "active"})
	}
	records, err := entity.NewRecords(companies, uiConfig, mem, entity.Deps{})
	require.NoError(t, err)
	return open(t, records), mem
}

func open(t *testing.T, records *entity.Records) Model {
	t.Helper()
	m := New(context.Background(), records, uiConfig, nil)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return step(m, loadCmd(context.Background(), records)())
}

// drain runs cmd, and the commands it batches, keeping the messages that
// arrive quickly. Timers such as the cursor blink are left behind.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, drain(c)...)
			}
			return out
		}
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(200 * time.Millisecond):
		return nil
	}
}

// step applies msg and then the messages its command produces.
func step(m Model, msg tea.Msg) Model {
	m, cmd := m.Update(msg)
	for _, out := range drain(cmd) {
		m, _ = m.Update(out)
	}
	return m
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		m = step(m, keyMsg(k))
	}
	return m
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func numbered(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Company %02d", i+1)
	}
	return out
}

func TestListShowsCurrentPage(t *testing.T) {
	m, _ := newScreen(t, numbered(12)...)

	view := m.View()
	assert.Contains(t, view, "Company 01")
	assert.Contains(t, view, "Company 10")
	assert.NotContains(t, view, "Company 11")
	assert.Contains(t, view, "1–10 of 12")

	m = press(m, "right")
	view = m.View()
	assert.Contains(t, view, "Company 11")
	assert.NotContains(t, view, "Company 01")
	assert.Contains(t, view, "11–12 of 12")
}

func TestCursorMovesAcrossPages(t *testing.T) {
	m, _ := newScreen(t, numbered(12)...)
	for i := 0; i < 10; i++ {
		m = press(m, "down")
	}
	assert.Equal(t, 1, m.records.Page().Index)
	_, id, ok := m.selected()
	require.True(t, ok)
	assert.Equal(t, v1.ID("11"), id)

	m = press(m, "k")
	assert.Equal(t, 0, m.records.Page().Index)
	_, id, _ = m.selected()
	assert.Equal(t, v1.ID("10"), id)
}

func TestFilter(t *testing.T) {
	m, _ := newScreen(t, "Acme", "Bento", "Cobalt")

	m = press(m, "/")
	assert.True(t, m.CapturesInput())
	m = press(m, "acm")
	view := m.View()
	assert.Contains(t, view, "Acme")
	assert.NotContains(t, view, "Bento")

	m = press(m, "enter")
	assert.Equal(t, filterApplied, m.filterState)
	assert.False(t, m.CapturesInput())
	assert.Equal(t, "acm", m.records.Filter().Query)

	m = press(m, "esc")
	assert.Equal(t, unfiltered, m.filterState)
	assert.Contains(t, m.View(), "Bento")
}

func TestFilterDebounceKeepsLatestQuery(t *testing.T) {
	m, _ := newScreen(t, "Acme", "Bento")
	m = press(m, "/")
	m.common.ui.FilterDebounce = time.Hour

	m, _ = m.Update(keyMsg("a"))
	first := m.filterSeq
	m, _ = m.Update(keyMsg("c"))

	m, _ = m.Update(filterMsg{seq: first, query: "a"})
	assert.Empty(t, m.records.Filter().Query, "superseded query is dropped")

	m, _ = m.Update(filterMsg{seq: m.filterSeq, query: "ac"})
	assert.Equal(t, "ac", m.records.Filter().Query)
}

func TestNoResultsAndEmpty(t *testing.T) {
	m, _ := newScreen(t)
	assert.Contains(t, m.View(), "No companies yet")

	m, _ = newScreen(t, "Acme")
	m = press(m, "/", "zzz")
	assert.Contains(t, m.View(), "No companies match")
}

type failing struct{ *memory.Collection }

func (failing) List(context.Context) ([]v1.Record, error) {
	return nil, db.FetchError("companies", 503, "", nil)
}

func TestFailedLoad(t *testing.T) {
	records, err := entity.NewRecords(companies, uiConfig, failing{memory.New("companies", "")}, entity.Deps{})
	require.NoError(t, err)
	m := open(t, records)

	view := m.View()
	assert.Contains(t, view, "Couldn’t load companies (Service Unavailable)")
	assert.Contains(t, view, "press r to retry")
	assert.False(t, m.loading)
}

func TestSortKeys(t *testing.T) {
	m, _ := newScreen(t, "Bento", "Acme", "Cobalt")

	m = press(m, "2")
	view := m.View()
	assert.Less(t, strings.Index(view, "Acme"), strings.Index(view, "Bento"))
	assert.Contains(t, view, "Sorted by Name, ascending")

	m = press(m, "2")
	view = m.View()
	assert.Less(t, strings.Index(view, "Cobalt"), strings.Index(view, "Acme"))

	m = press(m, "9")
	assert.Equal(t, "name", m.records.Sort().Key, "no ninth sortable column")
}

func TestPageSizeKey(t *testing.T) {
	m, _ := newScreen(t, numbered(30)...)
	m = press(m, "p")
	assert.Equal(t, 25, m.records.Page().Size)
	assert.Contains(t, m.View(), "25 per page")
}

func TestDeleteAsksFirst(t *testing.T) {
	m, mem := newScreen(t, "Acme", "Bento")

	m = press(m, "x")
	assert.Contains(t, m.View(), "Delete this company? (y/N)")
	m = press(m, "n")
	assert.Equal(t, 2, mem.Count())
	assert.NotContains(t, m.View(), "(y/N)")

	m = press(m, "x", "y")
	assert.Equal(t, 1, mem.Count())
	view := m.View()
	assert.NotContains(t, view, "Acme")
	assert.Contains(t, view, "Bento")
}

func TestCreateThroughForm(t *testing.T) {
	m, mem := newScreen(t, "Acme")

	m = press(m, "a")
	assert.Equal(t, stateShowForm, m.state)
	assert.True(t, m.CapturesInput())
	assert.Contains(t, m.View(), "New Company")

	m = press(m, "Cobalt", "ctrl+s")
	assert.Equal(t, stateShowList, m.state)
	assert.Equal(t, 2, mem.Count())
	view := m.View()
	assert.Less(t, strings.Index(view, "Cobalt"), strings.Index(view, "Acme"))
}

func TestRejectedSubmitKeepsForm(t *testing.T) {
	m, mem := newScreen(t, "Acme")

	m = press(m, "a", "ctrl+s")
	assert.Equal(t, stateShowForm, m.state)
	assert.Contains(t, m.View(), "Name required")
	assert.Equal(t, 1, mem.Count())

	m = press(m, "esc")
	assert.Equal(t, stateShowList, m.state)
	assert.Equal(t, session.Closed, m.records.Session().Mode)
}

func TestEditThroughForm(t *testing.T) {
	m, mem := newScreen(t, "Acme")

	m = press(m, "e")
	require.Equal(t, stateShowForm, m.state)
	assert.Contains(t, m.View(), "Edit Company 1")
	assert.Equal(t, "Acme", m.form.value(0))

	m = press(m, "tab")
	assert.Equal(t, 1, m.form.focus)
	m = press(m, "tab")
	assert.Equal(t, 0, m.form.focus, "focus wraps around")

	m = press(m, " Inc", "ctrl+s")
	assert.Equal(t, stateShowList, m.state)
	r, ok := mem.Get("1")
	require.True(t, ok)
	assert.Equal(t, "Acme Inc", r["name"])
}

func TestStatusMessages(t *testing.T) {
	m, _ := newScreen(t, "Acme")

	m, _ = m.Update(NoticeMsg{Text: "Company deleted"})
	assert.Contains(t, m.View(), "Company deleted")

	stale := m.statusSeq
	m, _ = m.Update(NoticeMsg{Text: "Company created"})
	m, _ = m.Update(statusMessageTimeoutMsg{seq: stale})
	assert.Contains(t, m.View(), "Company created", "an older timeout does not hide a newer message")

	m, _ = m.Update(statusMessageTimeoutMsg{seq: m.statusSeq})
	assert.NotContains(t, m.View(), "Company created")
}

func TestDetailView(t *testing.T) {
	m, _ := newScreen(t, "Acme")

	m, _ = m.Update(keyMsg("v"))
	assert.Equal(t, stateShowDocument, m.state)
	assert.True(t, m.CapturesInput())
	assert.Contains(t, m.pager.document, "| Name | Acme |")

	m = press(m, "esc")
	assert.Equal(t, stateShowList, m.state)
	assert.Empty(t, m.pager.document)
}

func TestEscGoesBack(t *testing.T) {
	m, _ := newScreen(t, "Acme")
	_, cmd := m.Update(keyMsg("esc"))
	require.NotNil(t, cmd)
	assert.Equal(t, BackMsg{}, cmd())
}

func TestNotices(t *testing.T) {
	n := NewNotices()
	n.Success("Company created")
	n.Error("Name required")

	assert.Equal(t, NoticeMsg{Text: "Company created"}, n.Wait()())
	assert.Equal(t, NoticeMsg{Text: "Name required", Err: true}, n.Wait()())
}
