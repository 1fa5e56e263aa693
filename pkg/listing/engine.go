// Package listing turns a collection into the rows of one page: text and
// equality filtering, a stable single column sort, and pagination. Nothing
// here mutates the input or keeps state between calls.
package listing

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/smart715/jobsify/pkg/text"
	"golang.org/x/text/language"
)

var (
	ErrNoColumns       = errors.New("at least one column is required")
	ErrDuplicateColumn = errors.New("duplicate column key")
	ErrNilAccessor     = errors.New("column has no accessor")
	ErrReservedKey     = errors.New("column key is reserved")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrNotSortable     = errors.New("column is not sortable")
)

// Column describes how one field of a record is read, shown, searched and
// sorted.
type Column[R any] struct {
	Key      string
	Header   string
	Accessor func(R) any

	Sortable   bool
	Searchable bool
	// Compare overrides the default comparator for non-empty values.
	Compare func(a, b any) int

	Format text.Format
	Width  int
}

// Value returns the raw value of the column for r.
func (c Column[R]) Value(r R) any {
	return c.Accessor(r)
}

// Text is the unformatted textual value used for matching.
func (c Column[R]) Text(r R) string {
	return text.String(c.Accessor(r))
}

// Display is the formatted value shown in a table cell.
func (c Column[R]) Display(r R, now time.Time) string {
	return text.FormatValue(c.Accessor(r), c.Format, now)
}

// Row is one visible record along with where it came from and how well it
// matched the query.
type Row[R any] struct {
	Record R
	// Index is the position of the record in the unfiltered collection.
	Index int
	Rank  Rank
}

// View is one computed page.
type View[R any] struct {
	Rows []Row[R]
	// Total is the number of rows matching the filter, before paging.
	Total int
	// CollectionSize is the number of records before filtering.
	CollectionSize int
	PageCount      int
	// Page is the page actually shown; Index is reset to 0 when the
	// requested page is beyond the last one.
	Page PageState
}

// Start and End are the 1 based positions of the first and last visible
// rows, for "1-10 of 12" displays.
func (v View[R]) Start() int {
	if len(v.Rows) == 0 {
		return 0
	}
	return v.Page.Index*v.Page.Size + 1
}

func (v View[R]) End() int {
	return v.Page.Index*v.Page.Size + len(v.Rows)
}

type Engine[R any] struct {
	columns []Column[R]
	index   map[string]int
	matcher Matcher
	lang    language.Tag
}

type EngineOption func(*engineOptions)

type engineOptions struct {
	matcher Matcher
	lang    language.Tag
}

// WithMatcher selects how the free text query is matched. Substring is the
// default.
func WithMatcher(m Matcher) EngineOption {
	return func(o *engineOptions) {
		if m != nil {
			o.matcher = m
		}
	}
}

// WithLanguage sets the collation language used to order strings.
func WithLanguage(tag language.Tag) EngineOption {
	return func(o *engineOptions) { o.lang = tag }
}

// NewEngine checks the column set once so nothing is looked up dynamically
// when rendering.
func NewEngine[R any](columns []Column[R], opts ...EngineOption) (*Engine[R], error) {
	o := engineOptions{matcher: Substring{}, lang: language.English}
	for _, opt := range opts {
		opt(&o)
	}

	if len(columns) == 0 {
		return nil, ErrNoColumns
	}
	cols := make([]Column[R], len(columns))
	copy(cols, columns)
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		if c.Key == "" || c.Key == RelevanceKey {
			return nil, errors.Wrapf(ErrReservedKey, "column %d %q", i, c.Key)
		}
		if _, dup := index[c.Key]; dup {
			return nil, errors.Wrap(ErrDuplicateColumn, c.Key)
		}
		if c.Accessor == nil {
			return nil, errors.Wrap(ErrNilAccessor, c.Key)
		}
		if c.Header == "" {
			cols[i].Header = c.Key
		}
		index[c.Key] = i
	}

	return &Engine[R]{columns: cols, index: index, matcher: o.matcher, lang: o.lang}, nil
}

func (e *Engine[R]) Columns() []Column[R] {
	out := make([]Column[R], len(e.columns))
	copy(out, e.columns)
	return out
}

func (e *Engine[R]) Column(key string) (Column[R], bool) {
	i, ok := e.index[key]
	if !ok {
		return Column[R]{}, false
	}
	return e.columns[i], true
}

// SortableColumns lists the columns that accept a sort, in display order.
func (e *Engine[R]) SortableColumns() []Column[R] {
	var out []Column[R]
	for _, c := range e.columns {
		if c.Sortable {
			out = append(out, c)
		}
	}
	return out
}

// ValidateFilter rejects equality filters on unknown columns.
func (e *Engine[R]) ValidateFilter(f FilterState) error {
	for k := range f.Equals {
		if _, ok := e.index[k]; !ok {
			return errors.Wrap(ErrUnknownColumn, k)
		}
	}
	return nil
}

// ValidateSort rejects sorts on unknown or unsortable columns.
func (e *Engine[R]) ValidateSort(s SortState) error {
	if s.IsZero() || s.Key == RelevanceKey {
		return nil
	}
	c, ok := e.Column(s.Key)
	if !ok {
		return errors.Wrap(ErrUnknownColumn, s.Key)
	}
	if !c.Sortable {
		return errors.Wrap(ErrNotSortable, s.Key)
	}
	return nil
}

// Apply filters, sorts and paginates rows. Calling it twice with the same
// arguments returns identical views.
func (e *Engine[R]) Apply(rows []R, f FilterState, s SortState, p PageState) View[R] {
	filtered := e.Filter(rows, f)
	sorted := e.Sort(filtered, s)
	page, state, pages := Paginate(sorted, p)
	return View[R]{
		Rows:           page,
		Total:          len(sorted),
		CollectionSize: len(rows),
		PageCount:      pages,
		Page:           state,
	}
}
