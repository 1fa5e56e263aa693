package model

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/smart715/jobsify/pkg/dispatch"
	"github.com/smart715/jobsify/pkg/entity"
	v1 "github.com/smart715/jobsify/pkg/types/v1"
)

type loadedMsg struct{ err error }
type submittedMsg struct{ err error }
type deletedMsg struct {
	id  v1.ID
	err error
}
type filterMsg struct {
	seq   int
	query string
}
type statusMessageTimeoutMsg struct{ seq int }
type contentRenderedMsg string
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

// BackMsg asks the application to close the entity screen.
type BackMsg struct{}

func loadCmd(ctx context.Context, r *entity.Records) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: r.Load(ctx)}
	}
}

func submitCmd(ctx context.Context, r *entity.Records) tea.Cmd {
	return func() tea.Msg {
		_, err := r.Submit(ctx)
		return submittedMsg{err: err}
	}
}

func deleteCmd(ctx context.Context, r *entity.Records, req *dispatch.DeleteRequest) tea.Cmd {
	return func() tea.Msg {
		return deletedMsg{id: req.ID(), err: r.Delete(ctx, req)}
	}
}

// filterCmd applies query after d. Only the latest seq is applied, so typing
// quickly filters once.
func filterCmd(seq int, query string, d time.Duration) tea.Cmd {
	if d <= 0 {
		return func() tea.Msg { return filterMsg{seq: seq, query: query} }
	}
	return tea.Tick(d, func(time.Time) tea.Msg {
		return filterMsg{seq: seq, query: query}
	})
}

func waitForStatusMessageTimeout(seq int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg{seq: seq}
	})
}

func backCmd() tea.Msg { return BackMsg{} }

// NoticeMsg is a notification from the dispatcher.
type NoticeMsg struct {
	Text string
	Err  bool
}

// Notices hands dispatcher notifications to the running program. Wait must
// be re-issued after every NoticeMsg.
type Notices struct {
	ch chan NoticeMsg
}

var _ dispatch.Notifier = (*Notices)(nil)

func NewNotices() *Notices {
	return &Notices{ch: make(chan NoticeMsg, 16)}
}

func (n *Notices) Success(msg string) { n.send(NoticeMsg{Text: msg}) }
func (n *Notices) Error(msg string)   { n.send(NoticeMsg{Text: msg, Err: true}) }

// send drops the notice when nobody has read the last 16.
func (n *Notices) send(m NoticeMsg) {
	select {
	case n.ch <- m:
	default:
	}
}

func (n *Notices) Wait() tea.Cmd {
	return func() tea.Msg { return <-n.ch }
}
