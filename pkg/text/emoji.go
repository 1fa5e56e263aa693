package text

import (
	"hash/fnv"
	"math"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/enescakir/emoji"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	Ellipsis = "…"
)

var (
	EmojiLoading  = emoji.ThinkingFace.String()
	EmojiEmpty    = emoji.Notebook.String()
	EmojiError    = emoji.CrossMark.String()
	EmojiSaved    = emoji.CheckBoxWithCheck.String()
	EmojiHoliday  = emoji.Sun.String()
	EmojiCalendar = emoji.Calendar.String()
)

var (
	badgeColorHashSalt uint32 = 6969420
	// NOTE: changing these dimensions uncovers some awkward indexing issues
	// in the color selection. avoid if you can help it
	badgeColors = colorGrid(4, 4)
)

// Return the time in a human-readable format relative to now.
func RelativeTime(then, now time.Time) string {
	ago := now.Sub(then)
	if ago < 0 {
		ago = -ago
	}
	if ago < time.Minute {
		return "just now"
	} else if ago < humanize.Week {
		return humanize.CustomRelTime(then, now, "ago", "from now", magnitudes)
	}
	return then.Format("02 Jan 2006")
}

// Magnitudes for relative time.
var magnitudes = []humanize.RelTimeMagnitude{
	{D: time.Second, Format: "now", DivBy: time.Second},
	{D: 2 * time.Second, Format: "1 second %s", DivBy: 1},
	{D: time.Minute, Format: "%d seconds %s", DivBy: time.Second},
	{D: 2 * time.Minute, Format: "1 minute %s", DivBy: 1},
	{D: time.Hour, Format: "%d minutes %s", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "1 hour %s", DivBy: 1},
	{D: humanize.Day, Format: "%d hours %s", DivBy: time.Hour},
	{D: 2 * humanize.Day, Format: "1 day %s", DivBy: 1},
	{D: humanize.Week, Format: "%d days %s", DivBy: humanize.Day},
	{D: math.MaxInt64, Format: "a long while %s", DivBy: 1},
}

// BadgeColor picks a color for value, always the same one for the same value.
func BadgeColor(value string) lipgloss.Color {
	h := fnv.New32a()
	_, _ = h.Write([]byte(Fold(value)))
	rows, cols := len(badgeColors), len(badgeColors[0])
	idx := (h.Sum32() + badgeColorHashSalt) % uint32(rows*cols)
	return lipgloss.Color(badgeColors[int(idx)/cols][int(idx)%cols])
}

// Badge renders value in its badge color.
func Badge(value string) string {
	if value == "" {
		return ""
	}
	return lipgloss.NewStyle().Foreground(BadgeColor(value)).Render(value)
}

func colorGrid(xSteps, ySteps int) [][]string {
	x0y0, _ := colorful.Hex("#F25D94")
	x1y0, _ := colorful.Hex("#EDFF82")
	x0y1, _ := colorful.Hex("#643AFF")
	x1y1, _ := colorful.Hex("#14F9D5")

	x0 := make([]colorful.Color, ySteps)
	for i := range x0 {
		x0[i] = x0y0.BlendLuv(x0y1, float64(i)/float64(ySteps))
	}

	x1 := make([]colorful.Color, ySteps)
	for i := range x1 {
		x1[i] = x1y0.BlendLuv(x1y1, float64(i)/float64(ySteps))
	}

	grid := make([][]string, ySteps)
	for x := 0; x < ySteps; x++ {
		y0 := x0[x]
		grid[x] = make([]string, xSteps)
		for y := 0; y < xSteps; y++ {
			grid[x][y] = y0.BlendLuv(x1[x], float64(y)/float64(xSteps)).Hex()
		}
	}

	return grid
}
