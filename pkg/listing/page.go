package listing

import (
	"math"

	"github.com/go-faster/errors"
)

const DefaultPageSize = 10

// PageSizes are the sizes a page may have.
var PageSizes = []int{10, 25, 50}

var ErrInvalidPageSize = errors.New("page size must be 10, 25 or 50")

type PageState struct {
	Index int
	Size  int
}

func ValidPageSize(n int) bool {
	for _, s := range PageSizes {
		if s == n {
			return true
		}
	}
	return false
}

// NextPageSize cycles through PageSizes.
func NextPageSize(n int) int {
	for i, s := range PageSizes {
		if s == n {
			return PageSizes[(i+1)%len(PageSizes)]
		}
	}
	return DefaultPageSize
}

// Normalized replaces an invalid size with DefaultPageSize and a negative
// index with 0.
func (p PageState) Normalized() PageState {
	if !ValidPageSize(p.Size) {
		p.Size = DefaultPageSize
	}
	if p.Index < 0 {
		p.Index = 0
	}
	return p
}

// Resize changes the page size keeping the first visible record on the
// new page.
func (p PageState) Resize(size int) PageState {
	p = p.Normalized()
	if !ValidPageSize(size) {
		return p
	}
	if p.Index > math.MaxInt/p.Size {
		return PageState{Size: size}
	}
	first := p.Index * p.Size
	return PageState{Index: first / size, Size: size}
}

// PageCount is the number of pages needed for total rows.
func PageCount(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Paginate slices one page out of rows. A page beyond the end resets to the
// first page.
func Paginate[R any](rows []Row[R], p PageState) ([]Row[R], PageState, int) {
	p = p.Normalized()
	total := len(rows)
	pages := PageCount(total, p.Size)
	if p.Index >= pages {
		p.Index = 0
	}
	start := p.Index * p.Size
	end := start + p.Size
	if end > total {
		end = total
	}
	page := make([]Row[R], end-start)
	copy(page, rows[start:end])
	return page, p, pages
}
