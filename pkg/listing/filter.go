package listing

import (
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/smart715/jobsify/pkg/text"
)

// FilterState is the free text query plus per-column equality filters.
type FilterState struct {
	Query  string
	Equals map[string]string
}

func (f FilterState) IsZero() bool {
	return strings.TrimSpace(f.Query) == "" && len(f.Equals) == 0
}

// With returns a copy of f with an equality filter on key. An empty value
// removes the filter.
func (f FilterState) With(key, value string) FilterState {
	eq := make(map[string]string, len(f.Equals)+1)
	for k, v := range f.Equals {
		eq[k] = v
	}
	if value == "" {
		delete(eq, key)
	} else {
		eq[key] = value
	}
	if len(eq) == 0 {
		eq = nil
	}
	return FilterState{Query: f.Query, Equals: eq}
}

// Tier orders kinds of matches, best first.
type Tier int

const (
	TierExact Tier = iota
	TierPrefix
	TierWord
	TierSubstring
	TierFuzzy
	TierNone
)

// Rank is how well a record matched the query. Lower is better: by Tier,
// then by the first match offset, then by column order.
type Rank struct {
	Tier   Tier
	Pos    int
	Column int
}

func (a Rank) Less(b Rank) bool {
	if a.Tier != b.Tier {
		return a.Tier < b.Tier
	}
	if a.Pos != b.Pos {
		return a.Pos < b.Pos
	}
	return a.Column < b.Column
}

// Matcher matches a query against one field value.
type Matcher interface {
	Match(value, query string) (Rank, bool)
}

// Substring matches when the folded value contains the folded query.
type Substring struct{}

func (Substring) Match(value, query string) (Rank, bool) {
	span, ok := text.FindFold(value, query)
	if !ok {
		return Rank{Tier: TierNone}, false
	}
	r := Rank{Tier: TierSubstring, Pos: span.Start}
	switch {
	case text.Fold(strings.TrimSpace(value)) == text.Fold(query):
		r.Tier = TierExact
	case span.Start == 0:
		r.Tier = TierPrefix
	case isBoundary([]rune(value)[span.Start-1]):
		r.Tier = TierWord
	}
	return r, true
}

func isBoundary(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// Fuzzy matches like Substring and additionally accepts values containing
// the query's characters in order. Such matches rank after every substring
// match, by edit distance.
type Fuzzy struct{}

func (Fuzzy) Match(value, query string) (Rank, bool) {
	if r, ok := (Substring{}).Match(value, query); ok {
		return r, true
	}
	d := fuzzy.RankMatchNormalizedFold(query, value)
	if d < 0 {
		return Rank{Tier: TierNone}, false
	}
	return Rank{Tier: TierFuzzy, Pos: d}, true
}

// MatcherByName returns the matcher for a config value, Substring for
// anything unknown.
func MatcherByName(name string) Matcher {
	if strings.EqualFold(name, "fuzzy") {
		return Fuzzy{}
	}
	return Substring{}
}

// Filter keeps records matching f, in collection order.
func (e *Engine[R]) Filter(rows []R, f FilterState) []Row[R] {
	query := strings.TrimSpace(f.Query)
	out := make([]Row[R], 0, len(rows))
	for i, r := range rows {
		if !e.matchesEquals(r, f.Equals) {
			continue
		}
		rank, ok := e.rank(r, query)
		if !ok {
			continue
		}
		out = append(out, Row[R]{Record: r, Index: i, Rank: rank})
	}
	return out
}

func (e *Engine[R]) rank(r R, query string) (Rank, bool) {
	if query == "" {
		return Rank{Tier: TierNone}, true
	}
	best := Rank{Tier: TierNone}
	found := false
	for ci, c := range e.columns {
		if !c.Searchable {
			continue
		}
		rk, ok := e.matcher.Match(c.Text(r), query)
		if !ok {
			continue
		}
		rk.Column = ci
		if !found || rk.Less(best) {
			best = rk
			found = true
		}
	}
	return best, found
}

func (e *Engine[R]) matchesEquals(r R, equals map[string]string) bool {
	for k, want := range equals {
		i, ok := e.index[k]
		if !ok {
			return false
		}
		if text.Fold(strings.TrimSpace(e.columns[i].Text(r))) != text.Fold(strings.TrimSpace(want)) {
			return false
		}
	}
	return true
}

// ParseQuery splits key:value tokens naming a known column out of q into
// equality filters; everything else stays free text.
func (e *Engine[R]) ParseQuery(q string) FilterState {
	var words []string
	var f FilterState
	for _, tok := range strings.Fields(q) {
		key, value, ok := strings.Cut(tok, ":")
		if ok && value != "" {
			if _, known := e.index[key]; known {
				f = f.With(key, value)
				continue
			}
		}
		words = append(words, tok)
	}
	f.Query = strings.Join(words, " ")
	return f
}
