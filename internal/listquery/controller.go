package listquery

import (
	"context"
	"log/slog"
	"sync"
)

// Result is one page of items as returned by the list endpoint.
type Result[T any] struct {
	Items         []T
	TotalCount    int
	FilteredCount int
}

// FetchFunc loads one page for the query.
type FetchFunc[T any] func(ctx context.Context, q Query) (Result[T], error)

// View is the state a list page renders.
type View[T any] struct {
	Query         Query  `json:"query"`
	Items         []T    `json:"items"`
	TotalCount    int    `json:"total_count"`
	FilteredCount int    `json:"filtered_count"`
	TotalPages    int    `json:"total_pages"`
	Loading       bool   `json:"loading"`
	Error         string `json:"error,omitempty"`
	Retryable     bool   `json:"retryable,omitempty"`

	// Stale is set on the view returned to a caller whose fetch was
	// superseded by a newer one; the view then shows the newer state.
	Stale bool `json:"stale,omitempty"`
}

// Controller owns the query state of one list page. Every state change
// issues exactly one fetch. Fetches are numbered and only the response to the
// most recently issued fetch is applied, so a slow response can never
// overwrite a newer one.
type Controller[T any] struct {
	fetch  FetchFunc[T]
	logger *slog.Logger

	mu            sync.Mutex
	query         Query
	issued        uint64
	loading       bool
	items         []T
	totalCount    int
	filteredCount int
	err           error
}

type Option func(*options)

type options struct {
	pageSize int
	logger   *slog.Logger
}

// WithPageSize sets the initial page size. Sizes outside PageSizes are
// ignored.
func WithPageSize(n int) Option {
	return func(o *options) {
		if ValidPageSize(n) {
			o.pageSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates a controller in its mounted state: page 1, empty search, no
// fetch issued yet.
func New[T any](fetch FetchFunc[T], opts ...Option) *Controller[T] {
	o := options{pageSize: DefaultPageSize, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Controller[T]{
		fetch:  fetch,
		logger: o.logger,
		query:  Query{Page: 1, PageSize: o.pageSize},
		items:  []T{},
	}
}

// Query returns the current query state.
func (c *Controller[T]) Query() Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// View returns the current state without fetching.
func (c *Controller[T]) View() View[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// SetSearch changes the search text and returns to page 1.
func (c *Controller[T]) SetSearch(ctx context.Context, search string) (View[T], error) {
	return c.Apply(ctx, Change{Search: &search})
}

// SetPage moves to page n, keeping search and page size.
func (c *Controller[T]) SetPage(ctx context.Context, n int) (View[T], error) {
	return c.Apply(ctx, Change{Page: &n})
}

// SetPageSize changes the page size and returns to page 1.
func (c *Controller[T]) SetPageSize(ctx context.Context, n int) (View[T], error) {
	return c.Apply(ctx, Change{PageSize: &n})
}

// Apply applies a change and fetches once if the query changed. An unchanged
// query returns the current view without fetching.
func (c *Controller[T]) Apply(ctx context.Context, change Change) (View[T], error) {
	if change.PageSize != nil && !ValidPageSize(*change.PageSize) {
		return c.View(), ErrInvalidPageSize
	}

	c.mu.Lock()
	next := change.next(c.query)
	if next == c.query && c.issued > 0 {
		view := c.viewLocked()
		c.mu.Unlock()
		return view, nil
	}
	c.query = next
	seq := c.beginLocked()
	c.mu.Unlock()

	return c.run(ctx, seq, next)
}

// Retry applies a change and always fetches, even when the query is
// unchanged. An empty change is equivalent to Refresh.
func (c *Controller[T]) Retry(ctx context.Context, change Change) (View[T], error) {
	if change.PageSize != nil && !ValidPageSize(*change.PageSize) {
		return c.View(), ErrInvalidPageSize
	}

	c.mu.Lock()
	next := change.next(c.query)
	c.query = next
	seq := c.beginLocked()
	c.mu.Unlock()

	return c.run(ctx, seq, next)
}

// Refresh reissues the current query. It is the retry action after a failed
// fetch and the initial load after mount.
func (c *Controller[T]) Refresh(ctx context.Context) (View[T], error) {
	c.mu.Lock()
	q := c.query
	seq := c.beginLocked()
	c.mu.Unlock()

	return c.run(ctx, seq, q)
}

func (c *Controller[T]) beginLocked() uint64 {
	c.issued++
	c.loading = true
	return c.issued
}

func (c *Controller[T]) run(ctx context.Context, seq uint64, q Query) (View[T], error) {
	res, err := c.fetch(ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.issued {
		c.logger.DebugContext(ctx, "Discarding superseded list response",
			"seq", seq, "latest", c.issued, "page", q.Page, "search", q.Search)
		view := c.viewLocked()
		view.Stale = true
		return view, nil
	}

	c.loading = false
	if err != nil {
		c.items = []T{}
		c.totalCount = 0
		c.filteredCount = 0
		c.err = err
		return c.viewLocked(), err
	}

	c.items = res.Items
	if c.items == nil {
		c.items = []T{}
	}
	c.totalCount = res.TotalCount
	c.filteredCount = res.FilteredCount
	c.err = nil
	return c.viewLocked(), nil
}

func (c *Controller[T]) viewLocked() View[T] {
	items := make([]T, len(c.items))
	copy(items, c.items)
	view := View[T]{
		Query:         c.query,
		Items:         items,
		TotalCount:    c.totalCount,
		FilteredCount: c.filteredCount,
		TotalPages:    TotalPages(c.query, c.totalCount, c.filteredCount),
		Loading:       c.loading,
	}
	if c.err != nil {
		view.Error = "Failed to load data. Please try again."
		view.Retryable = true
	}
	return view
}
