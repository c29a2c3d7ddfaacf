package listquery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend serves a fixed list of names with search and paging.
type fakeBackend struct {
	mu      sync.Mutex
	names   []string
	calls   []Query
	failing bool
}

func newFakeBackend(n int) *fakeBackend {
	b := &fakeBackend{}
	for i := 1; i <= n; i++ {
		b.names = append(b.names, fmt.Sprintf("member-%02d", i))
	}
	return b
}

func (b *fakeBackend) fetch(_ context.Context, q Query) (Result[string], error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, q)
	if b.failing {
		return Result[string]{}, errors.New("backend down")
	}

	var matched []string
	for _, name := range b.names {
		if strings.Contains(name, q.Search) {
			matched = append(matched, name)
		}
	}
	start := min(q.Offset(), len(matched))
	end := min(start+q.PageSize, len(matched))
	return Result[string]{
		Items:         matched[start:end],
		TotalCount:    len(b.names),
		FilteredCount: len(matched),
	}, nil
}

func (b *fakeBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func TestController_InitialState(t *testing.T) {
	c := New(newFakeBackend(3).fetch)

	q := c.Query()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, DefaultPageSize, q.PageSize)
	assert.Empty(t, q.Search)
	assert.Empty(t, c.View().Items)
}

func TestController_RefreshLoadsFirstPage(t *testing.T) {
	backend := newFakeBackend(47)
	c := New(backend.fetch, WithPageSize(10))

	view, err := c.Refresh(context.Background())
	require.NoError(t, err)

	assert.Len(t, view.Items, 10)
	assert.Equal(t, 47, view.TotalCount)
	assert.Equal(t, 5, view.TotalPages)
	assert.False(t, view.Loading)
}

func TestController_SearchUsesFilteredCount(t *testing.T) {
	backend := newFakeBackend(47)
	c := New(backend.fetch, WithPageSize(10))

	// matches member-10 through member-19
	view, err := c.SetSearch(context.Background(), "member-1")
	require.NoError(t, err)

	assert.Equal(t, 10, view.FilteredCount)
	assert.Equal(t, 1, view.TotalPages)
	assert.Equal(t, 47, view.TotalCount)
}

func TestController_PageSizeChangeResetsPage(t *testing.T) {
	backend := newFakeBackend(47)
	c := New(backend.fetch, WithPageSize(10))
	ctx := context.Background()

	_, err := c.SetPage(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, 3, c.Query().Page)

	view, err := c.SetPageSize(ctx, 20)
	require.NoError(t, err)

	assert.Equal(t, 1, view.Query.Page)
	assert.Equal(t, 20, view.Query.PageSize)
	assert.Equal(t, Query{Page: 1, PageSize: 20}, backend.calls[len(backend.calls)-1])
	assert.Equal(t, 3, view.TotalPages)
}

func TestController_SearchChangeResetsPage(t *testing.T) {
	backend := newFakeBackend(47)
	c := New(backend.fetch)
	ctx := context.Background()

	_, err := c.SetPage(ctx, 4)
	require.NoError(t, err)
	view, err := c.SetSearch(ctx, "member-4")
	require.NoError(t, err)

	assert.Equal(t, 1, view.Query.Page)
	assert.Equal(t, "member-4", view.Query.Search)
}

func TestController_OneFetchPerChange(t *testing.T) {
	backend := newFakeBackend(30)
	c := New(backend.fetch)
	ctx := context.Background()

	_, _ = c.Refresh(ctx)
	_, _ = c.SetPage(ctx, 2)
	_, _ = c.SetPage(ctx, 2)
	_, _ = c.SetSearch(ctx, "member")
	_, _ = c.Apply(ctx, Change{})

	assert.Equal(t, 3, backend.callCount())
}

func TestController_Idempotent(t *testing.T) {
	backend := newFakeBackend(47)
	ctx := context.Background()

	first := New(backend.fetch)
	a, err := first.Apply(ctx, Change{Search: strPtr("member-3"), PageSize: intPtr(5)})
	require.NoError(t, err)

	second := New(backend.fetch)
	b, err := second.Apply(ctx, Change{Search: strPtr("member-3"), PageSize: intPtr(5)})
	require.NoError(t, err)

	assert.Equal(t, len(a.Items), len(b.Items))
	assert.Equal(t, a.TotalPages, b.TotalPages)

	again, err := first.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(a.Items), len(again.Items))
	assert.Equal(t, a.TotalPages, again.TotalPages)
}

func TestController_InvalidPageSize(t *testing.T) {
	backend := newFakeBackend(5)
	c := New(backend.fetch)

	_, err := c.SetPageSize(context.Background(), 7)

	assert.ErrorIs(t, err, ErrInvalidPageSize)
	assert.Zero(t, backend.callCount())
	assert.Equal(t, DefaultPageSize, c.Query().PageSize)
}

func TestController_FailureClearsItemsKeepsQuery(t *testing.T) {
	backend := newFakeBackend(47)
	c := New(backend.fetch)
	ctx := context.Background()

	_, err := c.SetPage(ctx, 2)
	require.NoError(t, err)

	backend.mu.Lock()
	backend.failing = true
	backend.mu.Unlock()

	view, err := c.SetSearch(ctx, "member-2")
	require.Error(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.Retryable)
	assert.NotEmpty(t, view.Error)
	assert.Equal(t, "member-2", view.Query.Search)
	assert.Equal(t, 1, view.Query.Page)
	assert.Zero(t, view.TotalCount)
	assert.Zero(t, view.FilteredCount)
	assert.Zero(t, view.TotalPages)

	backend.mu.Lock()
	backend.failing = false
	backend.mu.Unlock()

	view, err = c.Refresh(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, view.Items)
	assert.False(t, view.Retryable)
	assert.Equal(t, Query{Search: "member-2", Page: 1, PageSize: DefaultPageSize}, backend.calls[len(backend.calls)-1])
}

func TestController_RetryAlwaysFetches(t *testing.T) {
	backend := newFakeBackend(47)
	c := New(backend.fetch)
	ctx := context.Background()

	_, err := c.SetPage(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, 1, backend.callCount())

	view, err := c.Retry(ctx, Change{})
	require.NoError(t, err)
	assert.Equal(t, 2, backend.callCount())
	assert.Equal(t, 2, view.Query.Page)

	search := "member-1"
	view, err = c.Retry(ctx, Change{Search: &search})
	require.NoError(t, err)
	assert.Equal(t, 3, backend.callCount())
	assert.Equal(t, Query{Search: "member-1", Page: 1, PageSize: DefaultPageSize}, view.Query)

	bad := 7
	_, err = c.Retry(ctx, Change{PageSize: &bad})
	assert.ErrorIs(t, err, ErrInvalidPageSize)
	assert.Equal(t, 3, backend.callCount())
}

func TestController_DiscardsSupersededResponse(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	fetch := func(_ context.Context, q Query) (Result[string], error) {
		if q.Page == 2 {
			close(started)
			<-release
			return Result[string]{Items: []string{"old"}, TotalCount: 100}, nil
		}
		return Result[string]{Items: []string{"new"}, TotalCount: 30}, nil
	}
	c := New(fetch)
	ctx := context.Background()

	type outcome struct {
		view View[string]
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := c.SetPage(ctx, 2)
		done <- outcome{v, err}
	}()
	<-started

	latest, err := c.SetPage(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, latest.Items)

	close(release)
	old := <-done
	require.NoError(t, old.err)
	assert.True(t, old.view.Stale)

	view := c.View()
	assert.Equal(t, []string{"new"}, view.Items)
	assert.Equal(t, 30, view.TotalCount)
	assert.Equal(t, 3, view.Query.Page)
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
