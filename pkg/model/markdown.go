package model

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/smart715/jobsify/pkg/listing"
	"github.com/smart715/jobsify/pkg/text"
	v1 "github.com/smart715/jobsify/pkg/types/v1"
)

// recordMarkdown renders r as a markdown document: the configured columns
// first, formatted, then every other top level field as it came from the
// server.
func recordMarkdown(label string, id v1.ID, cols []listing.Column[v1.Record], r v1.Record, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s\n\n", label, id)

	b.WriteString("| Field | Value |\n|---|---|\n")
	shown := map[string]bool{}
	for _, c := range cols {
		shown[strings.SplitN(c.Key, ".", 2)[0]] = true
		header := c.Header
		if header == "" {
			header = c.Key
		}
		fmt.Fprintf(&b, "| %s | %s |\n", escapeCell(header), escapeCell(c.Display(r, now)))
	}

	var rest []string
	for k := range r {
		if !shown[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		fmt.Fprintf(&b, "| %s | %s |\n", escapeCell(k), escapeCell(text.String(r[k])))
	}
	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
