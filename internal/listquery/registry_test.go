package listquery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_PerSessionControllers(t *testing.T) {
	tokens := []string{}
	r := NewRegistry(func(token string) FetchFunc[string] {
		tokens = append(tokens, token)
		return func(context.Context, Query) (Result[string], error) {
			return Result[string]{Items: []string{token}}, nil
		}
	}, time.Minute)

	a := r.Get("a")
	assert.Same(t, a, r.Get("a"))
	assert.NotSame(t, a, r.Get("b"))
	assert.Equal(t, []string{"a", "b"}, tokens)
	assert.Equal(t, 2, r.Len())

	view, err := a.Refresh(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []string{"a"}, view.Items)
}

func TestRegistry_IdleControllerIsReplaced(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	r := NewRegistry(func(string) FetchFunc[string] {
		return func(context.Context, Query) (Result[string], error) { return Result[string]{}, nil }
	}, 10*time.Minute, WithPageSize(20))
	r.now = func() time.Time { return now }

	first := r.Get("a")
	_, _ = first.SetPage(context.Background(), 4)

	now = now.Add(5 * time.Minute)
	assert.Same(t, first, r.Get("a"))

	now = now.Add(11 * time.Minute)
	second := r.Get("a")
	assert.NotSame(t, first, second)
	assert.Equal(t, Query{Page: 1, PageSize: 20}, second.Query())
}

func TestGroup_ForgetAndSweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	fetch := func(string) FetchFunc[int] {
		return func(context.Context, Query) (Result[int], error) { return Result[int]{}, nil }
	}
	projects := NewRegistry(fetch, time.Minute)
	courses := NewRegistry(fetch, time.Minute)
	projects.now = func() time.Time { return now }
	courses.now = func() time.Time { return now }
	group := Group{projects, courses}

	projects.Get("a")
	courses.Get("a")
	courses.Get("b")

	assert.Equal(t, 3, group.Len())

	group.Forget("a")
	assert.Equal(t, 0, projects.Len())
	assert.Equal(t, 1, courses.Len())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, group.Sweep())
	assert.Equal(t, 0, courses.Len())
}
