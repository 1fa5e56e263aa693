package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	runewidth "github.com/mattn/go-runewidth"
	"github.com/smart715/jobsify/pkg/entity"
	v1 "github.com/smart715/jobsify/pkg/types/v1"
)

const maxCellWidth = 40

type page struct {
	Page      int         `json:"page"`
	PageCount int         `json:"pageCount"`
	PageSize  int         `json:"pageSize"`
	Total     int         `json:"total"`
	Records   []v1.Record `json:"records"`
}

func writeJSON(w io.Writer, v entity.View[v1.Record]) error {
	p := page{
		Page:      v.Page.Index + 1,
		PageCount: v.PageCount,
		PageSize:  v.Page.Size,
		Total:     v.Total,
		Records:   make([]v1.Record, len(v.Rows)),
	}
	for i, r := range v.Rows {
		p.Records[i] = r.Record
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

// writeTable prints the page the way the list screen shows it, without
// colors.
func writeTable(w io.Writer, c *entity.Records, v entity.View[v1.Record]) error {
	switch v.State {
	case entity.Empty:
		_, err := fmt.Fprintf(w, "No %s yet\n", c.Name())
		return err
	case entity.NoResults:
		_, err := fmt.Fprintf(w, "No %s match\n", c.Name())
		return err
	}

	now := time.Now()
	cols := c.Engine().Columns()
	cells := make([][]string, 0, len(v.Rows)+1)
	header := make([]string, len(cols))
	for i, col := range cols {
		header[i] = strings.ToUpper(col.Header)
	}
	cells = append(cells, header)
	for _, r := range v.Rows {
		row := make([]string, len(cols))
		for i, col := range cols {
			row[i] = runewidth.Truncate(col.Display(r.Record, now), maxCellWidth, "…")
		}
		cells = append(cells, row)
	}

	widths := make([]int, len(cols))
	for _, row := range cells {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	for _, row := range cells {
		var b strings.Builder
		for i, cell := range row {
			if i == len(row)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]+2))
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(b.String(), " ")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\n%d–%d of %d, page %d of %d\n", v.Start(), v.End(), v.Total, v.Page.Index+1, max(v.PageCount, 1))
	return err
}
