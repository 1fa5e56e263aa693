// Package ui holds the palette and the styles shared by every screen.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette. Light is used on light terminal backgrounds.
var (
	Cream       = lipgloss.AdaptiveColor{Light: "#FFFDF5", Dark: "#FFFDF5"}
	Fuchsia     = lipgloss.AdaptiveColor{Light: "#EE6FF8", Dark: "#EE6FF8"}
	DimFuchsia  = lipgloss.AdaptiveColor{Light: "#F1A8FF", Dark: "#99519E"}
	Indigo      = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	Green       = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	DimGreen    = lipgloss.AdaptiveColor{Light: "#72D2B0", Dark: "#0B5137"}
	Red         = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	FaintRed    = lipgloss.AdaptiveColor{Light: "#FF6F91", Dark: "#C74665"}
	NormalFg    = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#DDDDDD"}
	GrayFg      = lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}
	Subtle      = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}

	StatusBarFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	StatusBarBg = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}
)

// NewStyle returns a render func in fg over bg.
func NewStyle(fg, bg lipgloss.TerminalColor, bold bool) func(...string) string {
	return lipgloss.NewStyle().Foreground(fg).Background(bg).Bold(bold).Render
}

// NewFgStyle returns a render func in fg.
func NewFgStyle(fg lipgloss.TerminalColor) func(...string) string {
	return lipgloss.NewStyle().Foreground(fg).Render
}

var (
	GrayText     = NewFgStyle(GrayFg)
	GreenText    = NewFgStyle(Green)
	DimGreenText = NewFgStyle(DimGreen)
	RedText      = NewFgStyle(Red)
	FaintRedText = NewFgStyle(FaintRed)
	FuchsiaText  = NewFgStyle(Fuchsia)

	Logo = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#ECFD65")).
		Background(Fuchsia).
		Padding(0, 1)

	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Indigo).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Subtle)

	Cell     = lipgloss.NewStyle().Foreground(NormalFg)
	Selected = lipgloss.NewStyle().Foreground(Fuchsia).Bold(true)
	Match    = lipgloss.NewStyle().Foreground(Green).Underline(true)
	Gutter   = lipgloss.NewStyle().Foreground(Fuchsia).SetString("│")

	ErrorBadge = lipgloss.NewStyle().
			Foreground(Cream).
			Background(Red).
			Padding(0, 1)

	Dialog = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#874BFD")).
		Padding(1, 2)

	Label    = lipgloss.NewStyle().Foreground(GrayFg).Width(18)
	FieldErr = lipgloss.NewStyle().Foreground(Red).PaddingLeft(18)
)

// DetectColor drops to plain text when NO_COLOR is set or the output is not
// a terminal.
func DetectColor() {
	if termenv.EnvNoColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.NewOutput(os.Stdout).EnvColorProfile())
}
