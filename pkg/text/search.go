package text

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/sahilm/fuzzy"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// folder removes diacritics and case folds; "Émile" becomes "emile". Mn is
// the unicode class for nonspacing marks. Transformers are stateful, so one
// is built per call.
func folder() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Fold())
}

// Normalize text to aid in the filtering process by removing diacritics.
func Normalize(in string) (string, error) {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, in)
	return out, err
}

// Fold normalizes and case folds in. On a transform error the input is
// lowercased instead.
func Fold(in string) string {
	out, _, err := transform.String(folder(), in)
	if err != nil {
		return strings.ToLower(in)
	}
	return out
}

// folded is a folded string that remembers which runes of the original
// produced each folded rune.
type folded struct {
	runes []rune
	start []int
	end   []int
}

// foldRunes folds in one normalization segment at a time, so a base rune
// and the marks composing with it fold together, like Fold does.
func foldRunes(in string) folded {
	t := folder()
	f := folded{}
	pos := 0
	for len(in) > 0 {
		n := norm.NFC.NextBoundaryInString(in, true)
		if n <= 0 {
			n = len(in)
		}
		seg := in[:n]
		in = in[n:]
		width := utf8.RuneCountInString(seg)

		out, _, err := transform.String(t, seg)
		if err != nil {
			out = strings.ToLower(seg)
		}
		for _, fr := range out {
			f.runes = append(f.runes, fr)
			f.start = append(f.start, pos)
			f.end = append(f.end, pos+width)
		}
		pos += width
	}
	return f
}

// Span is a half open range of rune offsets into the original string.
type Span struct {
	Start, End int
}

// FindFold returns the first occurrence of needle in haystack, comparing
// folded text. Offsets refer to runes of the unfolded haystack.
func FindFold(haystack, needle string) (Span, bool) {
	n := []rune(Fold(needle))
	if len(n) == 0 {
		return Span{}, false
	}
	h := foldRunes(haystack)
	for i := 0; i+len(n) <= len(h.runes); i++ {
		if equalRunes(h.runes[i:i+len(n)], n) {
			return Span{Start: h.start[i], End: h.end[i+len(n)-1]}, true
		}
	}
	return Span{}, false
}

func equalRunes(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FuzzyIndexes returns the rune offsets of haystack matched by a fuzzy
// search for needle.
func FuzzyIndexes(haystack, needle string) []int {
	normalized, err := Normalize(haystack)
	if err != nil {
		normalized = haystack
	}
	matches := fuzzy.Find(needle, []string{normalized})
	if len(matches) == 0 {
		return nil
	}
	return byteToRuneOffsets(normalized, matches[0].MatchedIndexes)
}

func byteToRuneOffsets(s string, byteIdx []int) []int {
	want := make(map[int]bool, len(byteIdx))
	for _, b := range byteIdx {
		want[b] = true
	}
	var out []int
	ri := 0
	for bi := range s {
		if want[bi] {
			out = append(out, ri)
		}
		ri++
	}
	return out
}

// Highlight renders haystack with base, applying match to the runes selected
// by the query: a folded substring match first, otherwise a fuzzy match.
func Highlight(haystack, query string, base, match lipgloss.Style) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return base.Render(haystack)
	}

	marked := map[int]bool{}
	if span, ok := FindFold(haystack, query); ok {
		for i := span.Start; i < span.End; i++ {
			marked[i] = true
		}
	} else {
		for _, i := range FuzzyIndexes(haystack, query) {
			marked[i] = true
		}
	}
	if len(marked) == 0 {
		return base.Render(haystack)
	}

	var b strings.Builder
	var run []rune
	inMatch := false
	flush := func() {
		if len(run) == 0 {
			return
		}
		if inMatch {
			b.WriteString(match.Render(string(run)))
		} else {
			b.WriteString(base.Render(string(run)))
		}
		run = run[:0]
	}
	for i, r := range []rune(haystack) {
		if marked[i] != inMatch {
			flush()
			inMatch = marked[i]
		}
		run = append(run, r)
	}
	flush()
	return b.String()
}

// TruncateWithTail cuts txt to width printable columns, ending in ellipsis.
// Text that already fits is returned as is.
func TruncateWithTail(txt string, width uint, ellipsis string) string {
	if ansi.PrintableRuneWidth(txt) <= int(width) {
		return txt
	}
	return truncate.StringWithTail(txt, width, ellipsis)
}
