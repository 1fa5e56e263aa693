// https://github.com/charmbracelet/bubbletea/blob/master/examples/list-fancy/delegate.go
package app

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
	"github.com/smart715/jobsify/pkg/ui"
)

var (
	appStyle = lipgloss.NewStyle().Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Foreground(ui.Cream).
			Background(ui.Fuchsia).
			Padding(0, 1)

	statusMessageStyle = lipgloss.NewStyle().
				Foreground(ui.Green).
				Render

	errorMessageStyle = lipgloss.NewStyle().
				Foreground(ui.Red).
				Render
)

func newSectionDelegate(keys *delegateKeyMap) list.DefaultDelegate {
	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = d.Styles.SelectedTitle.Copy().
		Foreground(ui.Fuchsia).
		BorderLeftForeground(ui.Fuchsia)
	d.Styles.SelectedDesc = d.Styles.SelectedDesc.Copy().
		Foreground(ui.DimFuchsia).
		BorderLeftForeground(ui.Fuchsia)

	help := []key.Binding{keys.choose}
	d.ShortHelpFunc = func() []key.Binding {
		return help
	}
	d.FullHelpFunc = func() [][]key.Binding {
		return [][]key.Binding{help}
	}
	return d
}

type delegateKeyMap struct {
	choose key.Binding
}

func newDelegateKeyMap() *delegateKeyMap {
	return &delegateKeyMap{
		choose: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
	}
}
