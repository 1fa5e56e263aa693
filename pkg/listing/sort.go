package listing

import (
	"sort"
	"strings"

	"github.com/smart715/jobsify/pkg/text"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// RelevanceKey is the pseudo column that orders rows by match rank.
const RelevanceKey = "_relevance"

type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// SortState is the single active sort. The zero value means no sort.
type SortState struct {
	Key       string
	Direction Direction
}

func (s SortState) IsZero() bool { return s.Key == "" }

// ParseSort reads "key" or "key:desc".
func ParseSort(s string) SortState {
	key, dir, _ := strings.Cut(strings.TrimSpace(s), ":")
	st := SortState{Key: key}
	if strings.EqualFold(dir, "desc") {
		st.Direction = Descending
	}
	return st
}

func (s SortState) String() string {
	if s.IsZero() {
		return ""
	}
	return s.Key + ":" + s.Direction.String()
}

// Cycle advances a column header click: ascending, then descending, then
// no sort. Clicking another column starts it ascending.
func (s SortState) Cycle(key string) SortState {
	switch {
	case s.Key != key:
		return SortState{Key: key, Direction: Ascending}
	case s.Direction == Ascending:
		return SortState{Key: key, Direction: Descending}
	default:
		return SortState{}
	}
}

// Sort returns a stably sorted copy of rows. Empty values always sort last.
func (e *Engine[R]) Sort(rows []Row[R], s SortState) []Row[R] {
	out := make([]Row[R], len(rows))
	copy(out, rows)
	if s.IsZero() {
		return out
	}

	if s.Key == RelevanceKey {
		sort.SliceStable(out, func(i, j int) bool {
			if s.Direction == Descending {
				return out[j].Rank.Less(out[i].Rank)
			}
			return out[i].Rank.Less(out[j].Rank)
		})
		return out
	}

	c, ok := e.Column(s.Key)
	if !ok || !c.Sortable {
		return out
	}
	cmp := c.Compare
	if cmp == nil {
		cmp = DefaultComparator(e.lang)
	}

	values := make([]any, len(out))
	for i, r := range out {
		values[i] = c.Value(r.Record)
	}
	// sort a permutation so values stay aligned with their rows
	perm := make([]int, len(out))
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(i, j int) bool {
		a, b := values[perm[i]], values[perm[j]]
		ea, eb := isEmpty(a), isEmpty(b)
		if ea || eb {
			return !ea && eb
		}
		n := cmp(a, b)
		if s.Direction == Descending {
			n = -n
		}
		return n < 0
	})

	sorted := make([]Row[R], len(out))
	for i, p := range perm {
		sorted[i] = out[p]
	}
	return sorted
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// DefaultComparator orders numbers numerically, timestamps chronologically,
// bools false first and everything else by collation in lang. Numeric
// strings count as numbers.
func DefaultComparator(lang language.Tag) func(a, b any) int {
	col := collate.New(lang, collate.Loose, collate.Numeric)
	return func(a, b any) int {
		if x, ok := text.ParseNumber(a); ok {
			if y, ok := text.ParseNumber(b); ok {
				return compareFloat(x, y)
			}
		}
		if x, ok := a.(bool); ok {
			if y, ok := b.(bool); ok {
				return compareBool(x, y)
			}
		}
		if x, ok := text.ParseTime(a); ok {
			if y, ok := text.ParseTime(b); ok {
				return x.Compare(y)
			}
		}
		return col.CompareString(text.String(a), text.String(b))
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}
