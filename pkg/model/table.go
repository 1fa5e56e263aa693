package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/smart715/jobsify/pkg/entity"
	"github.com/smart715/jobsify/pkg/listing"
	"github.com/smart715/jobsify/pkg/text"
	"github.com/smart715/jobsify/pkg/ui"
	v1 "github.com/smart715/jobsify/pkg/types/v1"
)

const (
	maxColumnWidth = 32
	columnGap      = 2
	gutterWidth    = 2
)

// columnWidths sizes every column to its widest cell on the page, unless the
// column sets a width.
func columnWidths(cols []listing.Column[v1.Record], rows []listing.Row[v1.Record], now time.Time) []int {
	widths := make([]int, len(cols))
	for i, c := range cols {
		if c.Width > 0 {
			widths[i] = c.Width
			continue
		}
		w := runewidth.StringWidth(headerText(c)) + 2
		for _, r := range rows {
			w = max(w, runewidth.StringWidth(c.Display(r.Record, now)))
		}
		widths[i] = min(w, maxColumnWidth)
	}
	return widths
}

func headerText(c listing.Column[v1.Record]) string {
	if c.Header != "" {
		return c.Header
	}
	return c.Key
}

// sortNumbers maps a sortable column key to the digit that sorts by it.
func sortNumbers(cols []listing.Column[v1.Record]) map[string]int {
	out := map[string]int{}
	n := 0
	for _, c := range cols {
		if c.Sortable && n < 9 {
			n++
			out[c.Key] = n
		}
	}
	return out
}

func headerView(cols []listing.Column[v1.Record], widths []int, sort listing.SortState) string {
	numbers := sortNumbers(cols)
	cells := make([]string, len(cols))
	for i, c := range cols {
		h := headerText(c)
		if n, ok := numbers[c.Key]; ok {
			h = strconv.Itoa(n) + " " + h
		}
		if sort.Key == c.Key {
			if sort.Direction == listing.Descending {
				h += " ▼"
			} else {
				h += " ▲"
			}
		}
		cells[i] = pad(text.TruncateWithTail(h, uint(widths[i]), text.Ellipsis), widths[i])
	}
	return strings.Repeat(" ", gutterWidth) + ui.Header.Render(strings.Join(cells, strings.Repeat(" ", columnGap)))
}

func rowView(v entity.View[v1.Record], cols []listing.Column[v1.Record], widths []int, row listing.Row[v1.Record], selected bool, now time.Time) string {
	base := ui.Cell
	gutter := strings.Repeat(" ", gutterWidth)
	if selected {
		base = ui.Selected
		gutter = ui.Gutter.String() + " "
	}

	cells := make([]string, len(cols))
	for i, c := range cols {
		raw := text.TruncateWithTail(c.Display(row.Record, now), uint(widths[i]), text.Ellipsis)
		var cell string
		switch {
		case c.Format == text.FormatBadge:
			cell = base.Copy().Foreground(text.BadgeColor(raw)).Render(raw)
		case c.Searchable && v.Filter.Query != "":
			cell = text.Highlight(raw, v.Filter.Query, base, ui.Match)
		default:
			cell = base.Render(raw)
		}
		cells[i] = pad(cell, widths[i])
	}
	return gutter + strings.Join(cells, strings.Repeat(" ", columnGap))
}

// pad right-fills s to w printable columns.
func pad(s string, w int) string {
	n := w - lipgloss.Width(s)
	if n <= 0 {
		return s
	}
	return s + strings.Repeat(" ", n)
}
