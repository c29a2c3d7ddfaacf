// Package listquery implements the search/page/page-size state machine shared
// by every paginated list page.
package listquery

import (
	"errors"
	"slices"
	"strings"
)

// PageSizes are the page sizes a list may be shown with.
var PageSizes = []int{5, 10, 20, 50}

const DefaultPageSize = 10

var ErrInvalidPageSize = errors.New("invalid page size")

// Query is the parameter set sent with every list fetch.
type Query struct {
	Search   string `json:"search"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

// SearchActive reports whether results are scoped by a search string.
func (q Query) SearchActive() bool {
	return strings.TrimSpace(q.Search) != ""
}

// Offset is the zero-based index of the first item on the page.
func (q Query) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}

// ValidPageSize reports whether n is one of PageSizes.
func ValidPageSize(n int) bool {
	return slices.Contains(PageSizes, n)
}

// TotalPages returns ceil(count/pageSize), where count is the filtered count
// while a search is active and the unfiltered total otherwise.
func TotalPages(q Query, total, filtered int) int {
	if q.PageSize <= 0 {
		return 0
	}
	count := total
	if q.SearchActive() {
		count = filtered
	}
	if count <= 0 {
		return 0
	}
	return (count + q.PageSize - 1) / q.PageSize
}

// Change carries the parts of a query the user touched. Nil fields are left
// as they are.
type Change struct {
	Search   *string
	Page     *int
	PageSize *int
}

// next applies c to q. Changing the search text or the page size puts the
// list back on page 1; the requested page is ignored in that case.
func (c Change) next(q Query) Query {
	reset := false
	if c.Search != nil && *c.Search != q.Search {
		q.Search = *c.Search
		reset = true
	}
	if c.PageSize != nil && *c.PageSize != q.PageSize {
		q.PageSize = *c.PageSize
		reset = true
	}
	if reset {
		q.Page = 1
		return q
	}
	if c.Page != nil {
		q.Page = max(*c.Page, 1)
	}
	return q
}
