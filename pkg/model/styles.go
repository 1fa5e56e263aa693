package model

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/smart715/jobsify/pkg/text"
	"github.com/smart715/jobsify/pkg/ui"
)

var (
	statusBarNoteStyle = ui.NewStyle(ui.StatusBarFg, ui.StatusBarBg, false)
	statusBarHelpStyle = ui.NewStyle(ui.StatusBarFg, lipgloss.AdaptiveColor{Light: "#DCDCDC", Dark: "#323232"}, false)

	promptStyle = lipgloss.NewStyle().Foreground(ui.Fuchsia)
	cursorStyle = lipgloss.NewStyle().Foreground(ui.Fuchsia)
)

func logoView(s string) string {
	return ui.Logo.Render(s)
}

func errorView(err string, hint string) string {
	s := fmt.Sprintf("%s %s\n\n%s\n\n%s",
		text.EmojiError,
		ui.ErrorBadge.Render("ERROR"),
		err,
		ui.GrayText(hint),
	)
	return ui.Dialog.Copy().Align(lipgloss.Center).Render(s)
}
